// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/auth"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// PinChecker verifies a transaction PIN; auth.Gate implements it.
type PinChecker interface {
	CheckPIN(ctx context.Context, subject, supplied string, digest *string) error
}

// Party addresses one bucket of a user account or admin wallet.
type Party struct {
	Kind   domain.PartyKind
	ID     uuid.UUID
	Bucket domain.Bucket
}

// TransferRequest moves Amount from one party bucket to another.
// FromNote and ToNote override Description on the respective leg.
type TransferRequest struct {
	From        Party
	To          Party
	Amount      decimal.Decimal
	Description string
	FromNote    string
	ToNote      string
	Status      domain.TransactionStatus
}

// UserTransferRequest is a customer-initiated transfer to an account number.
type UserTransferRequest struct {
	Pin             string
	ToAccountNumber string
	FromBucket      domain.Bucket
	ToBucket        domain.Bucket
	Amount          decimal.Decimal
	Bank            string
	Country         string
}

// AdminTransferRequest moves money between two users on an admin's behalf.
type AdminTransferRequest struct {
	FromUserID  uuid.UUID
	FromBucket  domain.Bucket
	ToUserID    uuid.UUID
	ToBucket    domain.Bucket
	Amount      decimal.Decimal
	Description string
}

// LedgerService exposes the balance-moving operations on accounts and wallets.
type LedgerService interface {
	Transfer(ctx context.Context, req TransferRequest) (*domain.CommitResult, error)
	UserTransfer(ctx context.Context, actor *domain.Principal, req UserTransferRequest) (*domain.CommitResult, error)
	AdminTransfer(ctx context.Context, actor *domain.Principal, req AdminTransferRequest) (*domain.CommitResult, error)
	FundFromWallet(ctx context.Context, actor *domain.Principal, userID uuid.UUID, bucket domain.Bucket, amount decimal.Decimal, description string) (*domain.CommitResult, error)
	FundWallet(ctx context.Context, actor *domain.Principal, adminID uuid.UUID, amount decimal.Decimal) (*domain.AdminWallet, error)
	Wallet(ctx context.Context, actor *domain.Principal) (*domain.AdminWallet, error)
	History(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error)
	UpdateTransactionStatus(ctx context.Context, actor *domain.Principal, id int64, status domain.TransactionStatus) (*domain.Transaction, error)

	Transactions(ctx context.Context, actor *domain.Principal, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error)
	Transaction(ctx context.Context, actor *domain.Principal, id int64) (*domain.Transaction, error)
	TransactionStats(ctx context.Context, actor *domain.Principal, filter repository.TransactionFilter) (*domain.TransactionStats, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	engine          *Engine
	dbExecutor      repository.DBExecutor // For non-transactional reads
	accountRepo     repository.AccountRepository
	adminRepo       repository.AdminRepository
	transactionRepo repository.TransactionRepository
	pins            PinChecker
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	engine *Engine,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	adminRepo repository.AdminRepository,
	transactionRepo repository.TransactionRepository,
	pins PinChecker,
) LedgerService {
	return &ledgerService{
		engine:          engine,
		dbExecutor:      dbExecutor,
		accountRepo:     accountRepo,
		adminRepo:       adminRepo,
		transactionRepo: transactionRepo,
		pins:            pins,
	}
}

// Transfer is the core two-party movement between account or wallet buckets.
func (s *ledgerService) Transfer(ctx context.Context, req TransferRequest) (*domain.CommitResult, error) {
	for _, p := range []Party{req.From, req.To} {
		if p.Kind != domain.PartyUser && p.Kind != domain.PartyAdmin {
			return nil, fmt.Errorf("transfer: %w: %s parties move through the card service", util.ErrInvalidBucket, p.Kind)
		}
	}
	fromNote, toNote := firstNonEmpty(req.FromNote, req.Description), firstNonEmpty(req.ToNote, req.Description)

	result, err := s.engine.Commit(ctx, domain.CommitUnit{
		Amount: req.Amount,
		Status: req.Status,
		Debit: &domain.Posting{
			Party: req.From.Kind, PartyID: req.From.ID, OwnerID: req.From.ID,
			Bucket: req.From.Bucket, Description: fromNote,
		},
		Credit: &domain.Posting{
			Party: req.To.Kind, PartyID: req.To.ID, OwnerID: req.To.ID,
			Bucket: req.To.Bucket, Description: toNote,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	return result, nil
}

// UserTransfer sends money from the caller's savings or current bucket to
// another customer's account number. Both legs await review.
func (s *ledgerService) UserTransfer(ctx context.Context, actor *domain.Principal, req UserTransferRequest) (*domain.CommitResult, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleUser); err != nil {
		return nil, err
	}
	if actor.Kind != domain.PartyUser {
		return nil, fmt.Errorf("%w: only customers can send transfers", util.ErrForbidden)
	}
	if req.FromBucket == "" {
		req.FromBucket = domain.BucketSavings
	}
	if req.ToBucket == "" {
		req.ToBucket = domain.BucketCurrent
	}
	if !domain.IsTransferBucket(req.FromBucket) || !domain.IsTransferBucket(req.ToBucket) {
		return nil, util.ErrInvalidBucket
	}
	if !domain.ValidAmount(req.Amount) {
		return nil, util.ErrInvalidAmount
	}
	accountNumber := strings.TrimSpace(req.ToAccountNumber)
	if accountNumber == "" {
		return nil, fmt.Errorf("%w: account number is required", util.ErrInvalidInput)
	}

	sender, err := s.accountRepo.GetByID(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("user transfer: %w", err)
	}
	if err := s.pins.CheckPIN(ctx, accountPinSubject(sender.ID), req.Pin, sender.TransactionPinHash); err != nil {
		return nil, err
	}

	recipient, err := s.accountRepo.GetByAccountNumber(ctx, s.dbExecutor, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("user transfer: %w", err)
	}
	if recipient.ID == sender.ID {
		return nil, util.ErrSelfTransfer
	}

	senderNumber := sender.SavingsAccountNumber
	if req.FromBucket == domain.BucketCurrent {
		senderNumber = sender.CurrentAccountNumber
	}
	return s.Transfer(ctx, TransferRequest{
		From:     Party{Kind: domain.PartyUser, ID: sender.ID, Bucket: req.FromBucket},
		To:       Party{Kind: domain.PartyUser, ID: recipient.ID, Bucket: req.ToBucket},
		Amount:   req.Amount,
		FromNote: fmt.Sprintf("Transfer to %s (%s, %s)", accountNumber, orUnknown(req.Bank, "Bank"), orUnknown(req.Country, "Country")),
		ToNote:   fmt.Sprintf("Transfer from %s (%s)", sender.Fullname, senderNumber),
		Status:   domain.TransactionStatusPendingReview,
	})
}

// AdminTransfer moves money between two customers on an admin's behalf.
func (s *ledgerService) AdminTransfer(ctx context.Context, actor *domain.Principal, req AdminTransferRequest) (*domain.CommitResult, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	description := firstNonEmpty(req.Description, "Transfer by administrator")
	return s.Transfer(ctx, TransferRequest{
		From:        Party{Kind: domain.PartyUser, ID: req.FromUserID, Bucket: req.FromBucket},
		To:          Party{Kind: domain.PartyUser, ID: req.ToUserID, Bucket: req.ToBucket},
		Amount:      req.Amount,
		Description: description,
		Status:      domain.TransactionStatusCompleted,
	})
}

// FundFromWallet pays from the calling admin's wallet into a customer bucket.
func (s *ledgerService) FundFromWallet(ctx context.Context, actor *domain.Principal, userID uuid.UUID, bucket domain.Bucket, amount decimal.Decimal, description string) (*domain.CommitResult, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	result, err := s.Transfer(ctx, TransferRequest{
		From:     Party{Kind: domain.PartyAdmin, ID: actor.ID, Bucket: domain.BucketWallet},
		To:       Party{Kind: domain.PartyUser, ID: userID, Bucket: bucket},
		Amount:   amount,
		FromNote: fmt.Sprintf("Funded customer %s %s account", userID, bucket),
		ToNote:   firstNonEmpty(description, fmt.Sprintf("Funded by admin (%s)", actor.Email)),
		Status:   domain.TransactionStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("fund from wallet: %w", err)
	}
	return result, nil
}

// FundWallet credits an ordinary admin's wallet from outside the ledger.
// Superadmin wallets cannot be funded.
func (s *ledgerService) FundWallet(ctx context.Context, actor *domain.Principal, adminID uuid.UUID, amount decimal.Decimal) (*domain.AdminWallet, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if !domain.ValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	target, err := s.adminRepo.GetByID(ctx, s.dbExecutor, adminID)
	if err != nil {
		return nil, fmt.Errorf("fund wallet: %w", err)
	}
	if target.Role == domain.RoleSuperAdmin {
		return nil, util.ErrSuperAdminWallet
	}

	_, err = s.engine.Commit(ctx, domain.CommitUnit{
		Amount: amount,
		Credit: &domain.Posting{
			Party: domain.PartyAdmin, PartyID: target.ID, OwnerID: target.ID,
			Bucket: domain.BucketWallet, Description: fmt.Sprintf("Wallet funded by superadmin (%s)", actor.Email),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fund wallet: %w", err)
	}

	updated, err := s.adminRepo.GetByID(ctx, s.dbExecutor, adminID)
	if err != nil {
		return nil, fmt.Errorf("fund wallet: failed to re-fetch admin %s: %w", adminID, err)
	}
	return updated, nil
}

// Wallet returns the calling admin's wallet.
func (s *ledgerService) Wallet(ctx context.Context, actor *domain.Principal) (*domain.AdminWallet, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	admin, err := s.adminRepo.GetByID(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	return admin, nil
}

// History returns the owner's legs newest first.
func (s *ledgerService) History(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	limit, offset = clampPage(limit, offset)
	transactions, total, err := s.transactionRepo.ListByOwner(ctx, s.dbExecutor, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("history: %w", err)
	}
	return transactions, total, nil
}

// UpdateTransactionStatus re-tags a leg for reconciliation. Amounts never change.
func (s *ledgerService) UpdateTransactionStatus(ctx context.Context, actor *domain.Principal, id int64, status domain.TransactionStatus) (*domain.Transaction, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", util.ErrInvalidInput, status)
	}
	if err := s.transactionRepo.UpdateStatus(ctx, s.dbExecutor, id, status); err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}
	updated, err := s.transactionRepo.GetByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}
	return updated, nil
}

// Transactions lists legs across every owner for an admin, newest first.
func (s *ledgerService) Transactions(ctx context.Context, actor *domain.Principal, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if err := validateTransactionFilter(filter); err != nil {
		return nil, 0, err
	}
	limit, offset = clampPage(limit, offset)
	transactions, total, err := s.transactionRepo.List(ctx, s.dbExecutor, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, total, nil
}

// Transaction returns one leg by ID for an admin.
func (s *ledgerService) Transaction(ctx context.Context, actor *domain.Principal, id int64) (*domain.Transaction, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	transaction, err := s.transactionRepo.GetByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return transaction, nil
}

// TransactionStats aggregates the legs matching filter.
func (s *ledgerService) TransactionStats(ctx context.Context, actor *domain.Principal, filter repository.TransactionFilter) (*domain.TransactionStats, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateTransactionFilter(filter); err != nil {
		return nil, err
	}
	stats, err := s.transactionRepo.Stats(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, fmt.Errorf("transaction stats: %w", err)
	}
	return stats, nil
}

func validateTransactionFilter(filter repository.TransactionFilter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", util.ErrInvalidInput, filter.Status)
	}
	if filter.Direction != "" && !filter.Direction.Valid() {
		return fmt.Errorf("%w: unknown direction %q", util.ErrInvalidInput, filter.Direction)
	}
	return nil
}

// clampPage applies the default and maximum page size.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func accountPinSubject(id uuid.UUID) string { return "account:" + id.String() }

func cardPinSubject(id uuid.UUID) string { return "card:" + id.String() }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orUnknown(v, what string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown " + what
	}
	return v
}

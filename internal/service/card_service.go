// internal/service/card_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/auth"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/idgen"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const maxHolderNameLength = 25

// CardApplication is the input for a new card, self-applied or admin-created.
type CardApplication struct {
	HolderName string
	CardType   domain.CardType
	Pin        string
}

// CardMovement reports the balances left after a card operation.
type CardMovement struct {
	CorrelationID  string                `json:"correlation_id"`
	TransactionIDs []int64               `json:"transaction_ids"`
	CardBalance    decimal.Decimal       `json:"card_balance"`
	OtherBalance   *decimal.Decimal      `json:"other_balance,omitempty"`
	Legs           []*domain.Transaction `json:"-"`
}

// CardService runs card funding, spending and the card approval lifecycle.
type CardService interface {
	CardFund(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, amount decimal.Decimal, source domain.Bucket, pin string) (*CardMovement, error)
	CardPurchase(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, pin string, amount decimal.Decimal, memo string) (*CardMovement, error)
	CardToAccount(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, bucket domain.Bucket, amount decimal.Decimal, pin string) (*CardMovement, error)
	AdminFundCard(ctx context.Context, actor *domain.Principal, userID uuid.UUID, amount decimal.Decimal) (*CardMovement, error)

	Apply(ctx context.Context, actor *domain.Principal, app CardApplication) (*domain.Card, error)
	AdminCreate(ctx context.Context, actor *domain.Principal, userID uuid.UUID, app CardApplication) (*domain.Card, error)
	Approve(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error)
	Reject(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, reason string) (*domain.Card, error)
	Deactivate(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error)
	Reactivate(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error)
	MyCard(ctx context.Context, actor *domain.Principal) (*domain.Card, error)
	Pending(ctx context.Context, actor *domain.Principal) ([]domain.Card, error)
	List(ctx context.Context, actor *domain.Principal, filter repository.CardFilter, limit, offset int) ([]domain.Card, int64, error)
}

// cardService implements the CardService interface.
type cardService struct {
	engine      *Engine
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
	cardRepo    repository.CardRepository
	pins        PinChecker
	numbers     *idgen.NumberGenerator
	logger      *slog.Logger
	now         func() time.Time
}

// NewCardService creates a new instance of CardService.
func NewCardService(
	engine *Engine,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	cardRepo repository.CardRepository,
	pins PinChecker,
	logger *slog.Logger,
) CardService {
	return &cardService{
		engine:      engine,
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		cardRepo:    cardRepo,
		pins:        pins,
		numbers:     idgen.NewCardNumberGenerator(),
		logger:      logger,
		now:         time.Now,
	}
}

// ownedEligibleCard applies the card checks in order: existence, ownership,
// eligibility. Someone else's card reads as not found.
func (s *cardService) ownedEligibleCard(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, s.dbExecutor, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != actor.ID || card.IsDeleted {
		return nil, util.ErrCardNotFound
	}
	if !card.Eligible() {
		return nil, util.ErrCardNotEligible
	}
	return card, nil
}

func (s *cardService) requireCustomer(actor *domain.Principal) error {
	if err := auth.AuthorizeRole(actor, domain.RoleUser); err != nil {
		return err
	}
	if actor.Kind != domain.PartyUser {
		return fmt.Errorf("%w: card operations belong to customers", util.ErrForbidden)
	}
	return nil
}

// CardFund moves money from one of the caller's account buckets onto the
// card. An empty source means current. Gated by the account-level
// transaction PIN.
func (s *cardService) CardFund(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, amount decimal.Decimal, source domain.Bucket, pin string) (*CardMovement, error) {
	if err := s.requireCustomer(actor); err != nil {
		return nil, err
	}
	if source == "" {
		source = domain.BucketCurrent
	}
	if !domain.IsCardFundSource(source) {
		return nil, util.ErrInvalidBucket
	}
	if !domain.ValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	card, err := s.ownedEligibleCard(ctx, actor, cardID)
	if err != nil {
		return nil, fmt.Errorf("card fund: %w", err)
	}
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("card fund: %w", err)
	}
	if err := s.pins.CheckPIN(ctx, accountPinSubject(account.ID), pin, account.TransactionPinHash); err != nil {
		return nil, err
	}

	result, err := s.engine.Commit(ctx, domain.CommitUnit{
		Amount: amount,
		Debit: &domain.Posting{
			Party: domain.PartyUser, PartyID: account.ID, OwnerID: account.ID,
			Bucket: source, Description: fmt.Sprintf("Card funding to %s", card.MaskedNumber()),
		},
		Credit: &domain.Posting{
			Party: domain.PartyCard, PartyID: card.ID, OwnerID: card.UserID,
			Bucket: domain.BucketCard, Description: fmt.Sprintf("Card funded from %s account", source),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("card fund: %w", err)
	}
	sourceBalance := result.DebitBalance
	return movement(result, result.CreditBalance, &sourceBalance), nil
}

// CardPurchase spends from the card balance. Gated by the card's own PIN.
func (s *cardService) CardPurchase(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, pin string, amount decimal.Decimal, memo string) (*CardMovement, error) {
	if err := s.requireCustomer(actor); err != nil {
		return nil, err
	}
	if !domain.ValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	card, err := s.ownedEligibleCard(ctx, actor, cardID)
	if err != nil {
		return nil, fmt.Errorf("card purchase: %w", err)
	}
	if err := s.pins.CheckPIN(ctx, cardPinSubject(card.ID), pin, &card.PinHash); err != nil {
		return nil, err
	}

	result, err := s.engine.Commit(ctx, domain.CommitUnit{
		Amount: amount,
		Debit: &domain.Posting{
			Party: domain.PartyCard, PartyID: card.ID, OwnerID: card.UserID,
			Bucket: domain.BucketCard, Description: firstNonEmpty(memo, "Card purchase"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("card purchase: %w", err)
	}
	return movement(result, result.DebitBalance, nil), nil
}

// CardToAccount moves money from the card back into savings or current.
// Gated by the account-level transaction PIN.
func (s *cardService) CardToAccount(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, bucket domain.Bucket, amount decimal.Decimal, pin string) (*CardMovement, error) {
	if err := s.requireCustomer(actor); err != nil {
		return nil, err
	}
	if !domain.IsTransferBucket(bucket) {
		return nil, util.ErrInvalidBucket
	}
	if !domain.ValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	card, err := s.ownedEligibleCard(ctx, actor, cardID)
	if err != nil {
		return nil, fmt.Errorf("card to account: %w", err)
	}
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("card to account: %w", err)
	}
	if err := s.pins.CheckPIN(ctx, accountPinSubject(account.ID), pin, account.TransactionPinHash); err != nil {
		return nil, err
	}

	result, err := s.engine.Commit(ctx, domain.CommitUnit{
		Amount: amount,
		Debit: &domain.Posting{
			Party: domain.PartyCard, PartyID: card.ID, OwnerID: card.UserID,
			Bucket: domain.BucketCard, Description: fmt.Sprintf("Transfer to %s account", bucket),
		},
		Credit: &domain.Posting{
			Party: domain.PartyUser, PartyID: account.ID, OwnerID: account.ID,
			Bucket: bucket, Description: fmt.Sprintf("Transfer from card %s", card.MaskedNumber()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("card to account: %w", err)
	}
	accountBalance := result.CreditBalance
	return movement(result, result.DebitBalance, &accountBalance), nil
}

// AdminFundCard pays from the calling admin's wallet onto a customer's card.
func (s *cardService) AdminFundCard(ctx context.Context, actor *domain.Principal, userID uuid.UUID, amount decimal.Decimal) (*CardMovement, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !domain.ValidAmount(amount) {
		return nil, util.ErrInvalidAmount
	}

	card, err := s.cardRepo.GetCurrentByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("admin fund card: %w", err)
	}
	if !card.Eligible() {
		return nil, util.ErrCardNotEligible
	}

	result, err := s.engine.Commit(ctx, domain.CommitUnit{
		Amount: amount,
		Debit: &domain.Posting{
			Party: domain.PartyAdmin, PartyID: actor.ID, OwnerID: actor.ID,
			Bucket: domain.BucketWallet, Description: fmt.Sprintf("Funded card %s", card.MaskedNumber()),
		},
		Credit: &domain.Posting{
			Party: domain.PartyCard, PartyID: card.ID, OwnerID: card.UserID,
			Bucket: domain.BucketCard, Description: fmt.Sprintf("Card funded by admin (%s)", actor.Email),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("admin fund card: %w", err)
	}
	walletBalance := result.DebitBalance
	return movement(result, result.CreditBalance, &walletBalance), nil
}

func movement(result *domain.CommitResult, cardBalance decimal.Decimal, other *decimal.Decimal) *CardMovement {
	ids := make([]int64, 0, len(result.Legs))
	for _, leg := range result.Legs {
		ids = append(ids, leg.ID)
	}
	return &CardMovement{
		CorrelationID:  result.CorrelationID,
		TransactionIDs: ids,
		CardBalance:    cardBalance,
		OtherBalance:   other,
		Legs:           result.Legs,
	}
}

// Apply files a pending card application for the caller. A pending or
// approved card blocks a new application; a rejected one does not.
func (s *cardService) Apply(ctx context.Context, actor *domain.Principal, app CardApplication) (*domain.Card, error) {
	if err := s.requireCustomer(actor); err != nil {
		return nil, err
	}
	card, err := s.newCard(ctx, actor.ID, app, "user")
	if err != nil {
		return nil, fmt.Errorf("apply for card: %w", err)
	}
	return card, nil
}

// AdminCreate issues an already approved card to a customer.
func (s *cardService) AdminCreate(ctx context.Context, actor *domain.Principal, userID uuid.UUID, app CardApplication) (*domain.Card, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("admin create card: %w", err)
	}
	if account.IsDeleted {
		return nil, fmt.Errorf("admin create card: %w", util.ErrPartyNotFound)
	}
	card, err := s.newCard(ctx, userID, app, "admin", actor.ID)
	if err != nil {
		return nil, fmt.Errorf("admin create card: %w", err)
	}
	return card, nil
}

// newCard validates and stores a card. approvedBy, when given, creates the
// card approved and active.
func (s *cardService) newCard(ctx context.Context, userID uuid.UUID, app CardApplication, createdBy string, approvedBy ...uuid.UUID) (*domain.Card, error) {
	holder := strings.TrimSpace(app.HolderName)
	if holder == "" || len(holder) > maxHolderNameLength {
		return nil, fmt.Errorf("%w: holder name must be 1-%d characters", util.ErrInvalidInput, maxHolderNameLength)
	}
	cardType := domain.CardType(strings.ToLower(string(app.CardType)))
	if cardType != domain.CardVisa && cardType != domain.CardMastercard {
		return nil, fmt.Errorf("%w: card type must be visa or mastercard", util.ErrInvalidInput)
	}
	if !auth.ValidPinFormat(app.Pin) {
		return nil, util.ErrInvalidPinFormat
	}

	existing, err := s.cardRepo.GetCurrentByUser(ctx, s.dbExecutor, userID)
	switch {
	case err == nil && existing.Blocks():
		return nil, fmt.Errorf("%w: user already has a %s card", util.ErrAlreadyExists, existing.Status)
	case err != nil && !util.IsError(err, util.ErrNotFound):
		return nil, err
	}

	number, err := s.numbers.Next(ctx, func(ctx context.Context, candidate string) (bool, error) {
		return s.cardRepo.CardNumberExists(ctx, s.dbExecutor, candidate)
	})
	if err != nil {
		return nil, err
	}
	pinHash, err := auth.HashSecret(app.Pin)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	card := &domain.Card{
		ID:         uuid.New(),
		UserID:     userID,
		HolderName: holder,
		CardType:   cardType,
		CardNumber: number,
		ExpiryDate: now.AddDate(4, 0, 0).Format("01/06"),
		PinHash:    pinHash,
		Balance:    decimal.Zero,
		Status:     domain.CardPending,
		IsActive:   false,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if len(approvedBy) > 0 {
		card.Status = domain.CardApproved
		card.IsActive = true
		card.ApprovedBy = &approvedBy[0]
		card.ApprovedAt = &now
	}

	if err := s.cardRepo.Create(ctx, s.dbExecutor, card); err != nil {
		return nil, err
	}
	s.logger.Info("Card created", "card_id", card.ID, "user_id", userID, "status", card.Status, "created_by", createdBy)
	return card, nil
}

// Approve moves a pending card to approved and active.
func (s *cardService) Approve(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error) {
	return s.transition(ctx, actor, cardID, "approve card", func(q repository.DBExecutor, at time.Time) error {
		return s.cardRepo.Approve(ctx, q, cardID, actor.ID, at)
	})
}

// Reject closes a pending application with a reason.
func (s *cardService) Reject(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, reason string) (*domain.Card, error) {
	reason = firstNonEmpty(strings.TrimSpace(reason), "No reason provided")
	return s.transition(ctx, actor, cardID, "reject card", func(q repository.DBExecutor, at time.Time) error {
		return s.cardRepo.Reject(ctx, q, cardID, actor.ID, reason, at)
	})
}

// Deactivate freezes an approved card.
func (s *cardService) Deactivate(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error) {
	return s.transition(ctx, actor, cardID, "deactivate card", func(q repository.DBExecutor, _ time.Time) error {
		return s.cardRepo.SetActive(ctx, q, cardID, false)
	})
}

// Reactivate unfreezes an approved card.
func (s *cardService) Reactivate(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error) {
	return s.transition(ctx, actor, cardID, "reactivate card", func(q repository.DBExecutor, _ time.Time) error {
		return s.cardRepo.SetActive(ctx, q, cardID, true)
	})
}

func (s *cardService) transition(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, op string, apply func(q repository.DBExecutor, at time.Time) error) (*domain.Card, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	card, err := s.cardRepo.GetByID(ctx, s.dbExecutor, cardID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if card.IsDeleted {
		return nil, fmt.Errorf("%s: %w", op, util.ErrCardNotFound)
	}
	if err := apply(s.dbExecutor, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := s.cardRepo.GetByID(ctx, s.dbExecutor, cardID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to re-fetch card: %w", op, err)
	}
	s.logger.Info("Card updated", "op", op, "card_id", cardID, "actor_id", actor.ID, "status", updated.Status, "active", updated.IsActive)
	return updated, nil
}

// MyCard returns the caller's current card.
func (s *cardService) MyCard(ctx context.Context, actor *domain.Principal) (*domain.Card, error) {
	if err := s.requireCustomer(actor); err != nil {
		return nil, err
	}
	card, err := s.cardRepo.GetCurrentByUser(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("my card: %w", err)
	}
	return card, nil
}

// Pending lists applications awaiting review.
func (s *cardService) Pending(ctx context.Context, actor *domain.Principal) ([]domain.Card, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	cards, err := s.cardRepo.ListPending(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("pending cards: %w", err)
	}
	return cards, nil
}

// List pages through cards for an admin, newest first.
func (s *cardService) List(ctx context.Context, actor *domain.Principal, filter repository.CardFilter, limit, offset int) ([]domain.Card, int64, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown card status %q", util.ErrInvalidInput, filter.Status)
	}
	limit, offset = clampPage(limit, offset)
	cards, total, err := s.cardRepo.List(ctx, s.dbExecutor, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	return cards, total, nil
}

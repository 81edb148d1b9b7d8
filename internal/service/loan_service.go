// internal/service/loan_service.go
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
	"valley-ledger/internal/notify"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const (
	defaultApprovalMessage  = "Your loan has been approved. Our loan officer will contact you shortly."
	defaultRejectionMessage = "Unfortunately, your loan was not approved at this time."
)

// LoanRequest is a customer's loan application. Empty applicant fields are
// taken from the caller's account.
type LoanRequest struct {
	LoanType       string
	Amount         decimal.Decimal
	ApplicantName  string
	ApplicantEmail string
	ApplicantPhone string
	AnnualIncome   decimal.Decimal
	Purpose        string
}

// LoanService files loan applications and records admin verdicts on them.
type LoanService interface {
	Apply(ctx context.Context, actor *domain.Principal, req LoanRequest) (*domain.LoanApplication, error)
	MyLoans(ctx context.Context, actor *domain.Principal, limit, offset int) ([]domain.LoanApplication, int64, error)
	List(ctx context.Context, actor *domain.Principal, status domain.LoanStatus, limit, offset int) ([]domain.LoanApplication, int64, error)
	Get(ctx context.Context, actor *domain.Principal, loanID uuid.UUID) (*domain.LoanApplication, error)
	Review(ctx context.Context, actor *domain.Principal, loanID uuid.UUID, decision domain.LoanDecision, message string) (*domain.LoanApplication, error)
}

// loanService implements the LoanService interface.
type loanService struct {
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
	loanRepo    repository.LoanRepository
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

// NewLoanService creates a new instance of LoanService.
func NewLoanService(
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	loanRepo repository.LoanRepository,
	notifier Notifier,
	logger *slog.Logger,
) LoanService {
	return &loanService{
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		loanRepo:    loanRepo,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

// Apply files a pending application for the caller.
func (s *loanService) Apply(ctx context.Context, actor *domain.Principal, req LoanRequest) (*domain.LoanApplication, error) {
	if actor == nil || actor.Kind != domain.PartyUser {
		return nil, fmt.Errorf("%w: customers only", util.ErrForbidden)
	}
	loanType := strings.TrimSpace(req.LoanType)
	if loanType == "" {
		return nil, fmt.Errorf("%w: loan type is required", util.ErrInvalidInput)
	}
	if !domain.ValidAmount(req.Amount) {
		return nil, util.ErrInvalidAmount
	}
	if req.AnnualIncome.IsNegative() {
		return nil, fmt.Errorf("%w: annual income cannot be negative", util.ErrInvalidInput)
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		return nil, fmt.Errorf("%w: loan purpose is required", util.ErrInvalidInput)
	}

	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("apply for loan: %w", err)
	}
	if account.IsDeleted || !account.IsActive {
		return nil, fmt.Errorf("apply for loan: %w", util.ErrInvalidState)
	}

	loan := domain.NewLoanApplication(account.ID, loanType, req.Amount)
	loan.ApplicantName = firstNonEmpty(strings.TrimSpace(req.ApplicantName), account.Fullname)
	loan.ApplicantEmail = strings.ToLower(firstNonEmpty(strings.TrimSpace(req.ApplicantEmail), account.Email))
	loan.ApplicantPhone = firstNonEmpty(strings.TrimSpace(req.ApplicantPhone), account.Phone)
	loan.AnnualIncome = domain.NormalizeAmount(req.AnnualIncome)
	loan.Purpose = purpose
	if err := validate.Var(loan.ApplicantEmail, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid applicant email", util.ErrInvalidInput)
	}

	if err := s.loanRepo.Create(ctx, s.dbExecutor, loan); err != nil {
		return nil, fmt.Errorf("apply for loan: %w", err)
	}
	s.logger.Info("Loan application filed", "loan_id", loan.ID, "user_id", loan.UserID, "amount", loan.Amount)
	return loan, nil
}

// MyLoans lists the caller's applications, newest first.
func (s *loanService) MyLoans(ctx context.Context, actor *domain.Principal, limit, offset int) ([]domain.LoanApplication, int64, error) {
	if actor == nil || actor.Kind != domain.PartyUser {
		return nil, 0, fmt.Errorf("%w: customers only", util.ErrForbidden)
	}
	limit, offset = clampPage(limit, offset)
	loans, total, err := s.loanRepo.List(ctx, s.dbExecutor, repository.LoanFilter{UserID: &actor.ID}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("my loans: %w", err)
	}
	return loans, total, nil
}

// List pages through every application for an admin.
func (s *loanService) List(ctx context.Context, actor *domain.Principal, status domain.LoanStatus, limit, offset int) ([]domain.LoanApplication, int64, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown loan status %q", util.ErrInvalidInput, status)
	}
	limit, offset = clampPage(limit, offset)
	loans, total, err := s.loanRepo.List(ctx, s.dbExecutor, repository.LoanFilter{Status: status}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	return loans, total, nil
}

// Get returns one application for an admin.
func (s *loanService) Get(ctx context.Context, actor *domain.Principal, loanID uuid.UUID) (*domain.LoanApplication, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	loan, err := s.loanRepo.GetByID(ctx, s.dbExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return loan, nil
}

// Review approves or rejects a pending application and tells the applicant.
// No money moves.
func (s *loanService) Review(ctx context.Context, actor *domain.Principal, loanID uuid.UUID, decision domain.LoanDecision, message string) (*domain.LoanApplication, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	status, ok := decision.Status()
	if !ok {
		return nil, fmt.Errorf("%w: action must be approve or reject", util.ErrInvalidInput)
	}
	fallback := defaultRejectionMessage
	if status == domain.LoanApproved {
		fallback = defaultApprovalMessage
	}
	message = firstNonEmpty(strings.TrimSpace(message), fallback)

	if err := s.loanRepo.Review(ctx, s.dbExecutor, loanID, status, message, actor.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("review loan: %w", err)
	}
	loan, err := s.loanRepo.GetByID(ctx, s.dbExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("review loan: failed to re-fetch application: %w", err)
	}
	s.logger.Info("Loan application reviewed", "loan_id", loan.ID, "status", loan.Status, "reviewed_by", actor.ID)
	s.notifier.Notify(notify.FromLoanReview(loan))
	return loan, nil
}

// internal/service/account_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"valley-ledger/internal/auth"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/idgen"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const minPasswordLength = 8

var validate = validator.New()

// OpenAccountRequest carries the identity of a new customer.
type OpenAccountRequest struct {
	Fullname string
	Email    string
	Phone    string
	Password string
}

// CreateAdminRequest carries the identity of a new admin.
type CreateAdminRequest struct {
	Username string
	Email    string
	Password string
}

// AccountService opens accounts, manages transaction PINs and admin identities.
type AccountService interface {
	OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error)
	Profile(ctx context.Context, actor *domain.Principal) (*domain.Account, error)
	SetTransactionPin(ctx context.Context, actor *domain.Principal, current, pin, confirm string) error
	PinStatus(ctx context.Context, actor *domain.Principal) (bool, error)
	CreateAdmin(ctx context.Context, actor *domain.Principal, req CreateAdminRequest) (*domain.AdminWallet, error)
	EnsureSuperAdmin(ctx context.Context, email, password string) error

	ListUsers(ctx context.Context, actor *domain.Principal, filter repository.AccountFilter, limit, offset int) ([]domain.Account, int64, error)
	ListAdmins(ctx context.Context, actor *domain.Principal, limit, offset int) ([]domain.AdminWallet, int64, error)
}

// accountService implements the AccountService interface.
type accountService struct {
	dbExecutor  repository.DBExecutor
	accountRepo repository.AccountRepository
	adminRepo   repository.AdminRepository
	pins        PinChecker
	numbers     *idgen.NumberGenerator
	logger      *slog.Logger
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	adminRepo repository.AdminRepository,
	pins PinChecker,
	logger *slog.Logger,
) AccountService {
	return &accountService{
		dbExecutor:  dbExecutor,
		accountRepo: accountRepo,
		adminRepo:   adminRepo,
		pins:        pins,
		numbers:     idgen.NewAccountNumberGenerator(),
		logger:      logger,
	}
}

// OpenAccount creates a customer with zero balances and two fresh account numbers.
func (s *accountService) OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error) {
	fullname := strings.TrimSpace(req.Fullname)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if fullname == "" || phone == "" {
		return nil, fmt.Errorf("%w: fullname and phone are required", util.ErrInvalidInput)
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", util.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", util.ErrInvalidInput, minPasswordLength)
	}

	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.accountRepo.AccountNumberExists(ctx, s.dbExecutor, candidate)
	}
	savingsNumber, err := s.numbers.Next(ctx, exists)
	if err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}
	currentNumber, err := s.numbers.Next(ctx, exists, savingsNumber)
	if err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}

	passwordHash, err := auth.HashSecret(req.Password)
	if err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}

	account := domain.NewAccount(fullname, email, phone, passwordHash, savingsNumber, currentNumber)
	if err := s.accountRepo.Create(ctx, s.dbExecutor, account); err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}
	s.logger.Info("Account opened", "user_id", account.ID)
	return account, nil
}

// Profile returns the caller's account.
func (s *accountService) Profile(ctx context.Context, actor *domain.Principal) (*domain.Account, error) {
	if actor == nil || actor.Kind != domain.PartyUser {
		return nil, fmt.Errorf("%w: customers only", util.ErrForbidden)
	}
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return account, nil
}

// SetTransactionPin stores a new four-digit PIN for the caller. Replacing an
// existing PIN requires the current one, checked under the same lockout as
// transfers.
func (s *accountService) SetTransactionPin(ctx context.Context, actor *domain.Principal, current, pin, confirm string) error {
	account, err := s.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if !auth.ValidPinFormat(pin) {
		return util.ErrInvalidPinFormat
	}
	if pin != confirm {
		return fmt.Errorf("%w: pins do not match", util.ErrInvalidInput)
	}
	if account.HasPin() {
		if err := s.pins.CheckPIN(ctx, accountPinSubject(account.ID), current, account.TransactionPinHash); err != nil {
			return err
		}
	}
	pinHash, err := auth.HashSecret(pin)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	if err := s.accountRepo.SetTransactionPin(ctx, s.dbExecutor, actor.ID, pinHash); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	s.logger.Info("Transaction PIN set", "user_id", actor.ID, "replaced", account.HasPin())
	return nil
}

// PinStatus reports whether the caller has a transaction PIN.
func (s *accountService) PinStatus(ctx context.Context, actor *domain.Principal) (bool, error) {
	account, err := s.Profile(ctx, actor)
	if err != nil {
		return false, err
	}
	return account.HasPin(), nil
}

// CreateAdmin registers an ordinary admin with an empty wallet.
func (s *accountService) CreateAdmin(ctx context.Context, actor *domain.Principal, req CreateAdminRequest) (*domain.AdminWallet, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	admin, err := s.newAdmin(req, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.adminRepo.Create(ctx, s.dbExecutor, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("Admin created", "admin_id", admin.ID, "created_by", actor.ID)
	return admin, nil
}

// EnsureSuperAdmin creates the bootstrap superadmin when none exists under email.
func (s *accountService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	_, err := s.adminRepo.GetByEmail(ctx, s.dbExecutor, email)
	if err == nil {
		return nil
	}
	if !util.IsError(err, util.ErrNotFound) {
		return fmt.Errorf("ensure superadmin: %w", err)
	}

	username := strings.SplitN(email, "@", 2)[0] + "-" + uuid.NewString()[:8]
	admin, err := s.newAdmin(CreateAdminRequest{Username: username, Email: email, Password: password}, domain.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("ensure superadmin: %w", err)
	}
	if err := s.adminRepo.Create(ctx, s.dbExecutor, admin); err != nil {
		return fmt.Errorf("ensure superadmin: %w", err)
	}
	s.logger.Info("Bootstrap superadmin created", "admin_id", admin.ID)
	return nil
}

func (s *accountService) newAdmin(req CreateAdminRequest, role domain.Role) (*domain.AdminWallet, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", util.ErrInvalidInput)
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email", util.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", util.ErrInvalidInput, minPasswordLength)
	}
	passwordHash, err := auth.HashSecret(req.Password)
	if err != nil {
		return nil, err
	}
	return domain.NewAdminWallet(username, email, passwordHash, role), nil
}

// ListUsers pages through live customer accounts for an admin.
func (s *accountService) ListUsers(ctx context.Context, actor *domain.Principal, filter repository.AccountFilter, limit, offset int) ([]domain.Account, int64, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	limit, offset = clampPage(limit, offset)
	accounts, total, err := s.accountRepo.List(ctx, s.dbExecutor, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return accounts, total, nil
}

// ListAdmins pages through admins that are not deleted. Superadmin only.
func (s *accountService) ListAdmins(ctx context.Context, actor *domain.Principal, limit, offset int) ([]domain.AdminWallet, int64, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return nil, 0, err
	}
	limit, offset = clampPage(limit, offset)
	admins, total, err := s.adminRepo.List(ctx, s.dbExecutor, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list admins: %w", err)
	}
	return admins, total, nil
}

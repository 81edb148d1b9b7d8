// internal/service/lifecycle_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"valley-ledger/internal/auth"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
	"valley-ledger/pkg/db"
)

// LifecycleService drives the account and admin state machines:
// active, deactivated, soft-deleted and purged.
type LifecycleService interface {
	DeactivateUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error)
	ReactivateUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error)
	DeleteUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) error
	RestoreUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error)
	PurgeUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) error
	RecycleBin(ctx context.Context, actor *domain.Principal, limit, offset int) ([]domain.Account, error)

	DeactivateAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) (*domain.AdminWallet, error)
	ReactivateAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) (*domain.AdminWallet, error)
	DeleteAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) error
}

// lifecycleService implements the LifecycleService interface.
type lifecycleService struct {
	txRunner
	dbExecutor      repository.DBExecutor
	accountRepo     repository.AccountRepository
	adminRepo       repository.AdminRepository
	cardRepo        repository.CardRepository
	transactionRepo repository.TransactionRepository
	logger          *slog.Logger
	now             func() time.Time
}

// NewLifecycleService creates a new instance of LifecycleService.
func NewLifecycleService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	adminRepo repository.AdminRepository,
	cardRepo repository.CardRepository,
	transactionRepo repository.TransactionRepository,
	tx db.TxFuncs,
	logger *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		txRunner:        newTxRunner(dbBeginner, tx),
		dbExecutor:      dbExecutor,
		accountRepo:     accountRepo,
		adminRepo:       adminRepo,
		cardRepo:        cardRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// DeactivateUser moves an active account to deactivated, recording the
// actor and its role for the reactivation rule.
func (s *lifecycleService) DeactivateUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := auth.GuardSelfAction(actor, userID); err != nil {
		return nil, err
	}
	account, err := s.liveAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("deactivate user: %w", err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("deactivate user: %w: account already deactivated", util.ErrInvalidState)
	}

	if err := s.accountRepo.Deactivate(ctx, s.dbExecutor, userID, actor.ID, actor.Role, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("deactivate user: %w", err)
	}
	s.logger.Info("User deactivated", "user_id", userID, "actor_id", actor.ID, "actor_role", actor.Role)
	return s.refetch(ctx, userID, "deactivate user")
}

// ReactivateUser moves a deactivated account back to active, subject to
// the provenance rule.
func (s *lifecycleService) ReactivateUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	account, err := s.liveAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reactivate user: %w", err)
	}
	if account.IsActive {
		return nil, fmt.Errorf("reactivate user: %w: account is already active", util.ErrInvalidState)
	}
	if err := auth.AuthorizeReactivation(actor, account); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Reactivate(ctx, s.dbExecutor, userID, actor.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("reactivate user: %w", err)
	}
	s.logger.Info("User reactivated", "user_id", userID, "actor_id", actor.ID)
	return s.refetch(ctx, userID, "reactivate user")
}

// DeleteUser soft-deletes an account and every card it owns.
func (s *lifecycleService) DeleteUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) error {
	if err := auth.AuthorizeRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if err := auth.GuardSelfAction(actor, userID); err != nil {
		return err
	}
	if _, err := s.liveAccount(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	at := s.now().UTC()
	err := s.inTx(ctx, "delete user", func(q repository.DBExecutor) error {
		if err := s.accountRepo.SoftDelete(ctx, q, userID, actor.ID, actor.Role, at); err != nil {
			return err
		}
		return s.cardRepo.SoftDeleteByUser(ctx, q, userID, at)
	})
	if err != nil {
		return err
	}
	s.logger.Info("User moved to recycle bin", "user_id", userID, "actor_id", actor.ID)
	return nil
}

// RestoreUser brings a soft-deleted account and its cards back.
func (s *lifecycleService) RestoreUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if _, err := s.deletedAccount(ctx, userID); err != nil {
		return nil, fmt.Errorf("restore user: %w", err)
	}

	err := s.inTx(ctx, "restore user", func(q repository.DBExecutor) error {
		if err := s.accountRepo.Restore(ctx, q, userID); err != nil {
			return err
		}
		return s.cardRepo.RestoreByUser(ctx, q, userID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("User restored", "user_id", userID, "actor_id", actor.ID)
	return s.refetch(ctx, userID, "restore user")
}

// PurgeUser permanently removes a soft-deleted account with its cards and
// every transaction it owns.
func (s *lifecycleService) PurgeUser(ctx context.Context, actor *domain.Principal, userID uuid.UUID) error {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return err
	}
	if _, err := s.deletedAccount(ctx, userID); err != nil {
		return fmt.Errorf("purge user: %w", err)
	}

	var legs, cards int64
	err := s.inTx(ctx, "purge user", func(q repository.DBExecutor) error {
		var err error
		if legs, err = s.transactionRepo.DeleteByOwner(ctx, q, userID); err != nil {
			return err
		}
		if cards, err = s.cardRepo.DeleteByUser(ctx, q, userID); err != nil {
			return err
		}
		return s.accountRepo.Delete(ctx, q, userID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("User purged", "user_id", userID, "actor_id", actor.ID, "transactions", legs, "cards", cards)
	return nil
}

// RecycleBin lists soft-deleted accounts.
func (s *lifecycleService) RecycleBin(ctx context.Context, actor *domain.Principal, limit, offset int) ([]domain.Account, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListDeleted(ctx, s.dbExecutor, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("recycle bin: %w", err)
	}
	return accounts, nil
}

func (s *lifecycleService) liveAccount(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, err
	}
	if account.IsDeleted {
		return nil, util.ErrPartyNotFound
	}
	return account, nil
}

func (s *lifecycleService) deletedAccount(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, err
	}
	if !account.IsDeleted {
		return nil, fmt.Errorf("%w: account is not in the recycle bin", util.ErrInvalidState)
	}
	return account, nil
}

func (s *lifecycleService) refetch(ctx context.Context, userID uuid.UUID, op string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to re-fetch account: %w", op, err)
	}
	return account, nil
}

// DeactivateAdmin deactivates an ordinary admin.
func (s *lifecycleService) DeactivateAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) (*domain.AdminWallet, error) {
	if _, err := s.targetAdmin(ctx, actor, adminID); err != nil {
		return nil, fmt.Errorf("deactivate admin: %w", err)
	}
	if err := s.adminRepo.SetActive(ctx, s.dbExecutor, adminID, false, &actor.ID); err != nil {
		return nil, fmt.Errorf("deactivate admin: %w", err)
	}
	s.logger.Info("Admin deactivated", "admin_id", adminID, "actor_id", actor.ID)
	return s.adminRepo.GetByID(ctx, s.dbExecutor, adminID)
}

// ReactivateAdmin reactivates an ordinary admin.
func (s *lifecycleService) ReactivateAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) (*domain.AdminWallet, error) {
	if _, err := s.targetAdmin(ctx, actor, adminID); err != nil {
		return nil, fmt.Errorf("reactivate admin: %w", err)
	}
	if err := s.adminRepo.SetActive(ctx, s.dbExecutor, adminID, true, &actor.ID); err != nil {
		return nil, fmt.Errorf("reactivate admin: %w", err)
	}
	s.logger.Info("Admin reactivated", "admin_id", adminID, "actor_id", actor.ID)
	return s.adminRepo.GetByID(ctx, s.dbExecutor, adminID)
}

// DeleteAdmin soft-deletes an ordinary admin.
func (s *lifecycleService) DeleteAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) error {
	if _, err := s.targetAdmin(ctx, actor, adminID); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if err := s.adminRepo.SoftDelete(ctx, s.dbExecutor, adminID, actor.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	s.logger.Info("Admin deleted", "admin_id", adminID, "actor_id", actor.ID)
	return nil
}

// targetAdmin applies the admin-management guards: superadmin caller, not
// itself, target exists and is not a superadmin.
func (s *lifecycleService) targetAdmin(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) (*domain.AdminWallet, error) {
	if err := auth.AuthorizeRole(actor, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := auth.GuardSelfAction(actor, adminID); err != nil {
		return nil, err
	}
	target, err := s.adminRepo.GetByID(ctx, s.dbExecutor, adminID)
	if err != nil {
		return nil, err
	}
	if target.IsDeleted {
		return nil, util.ErrPartyNotFound
	}
	if target.Role == domain.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: superadmins cannot be managed", util.ErrForbidden)
	}
	return target, nil
}

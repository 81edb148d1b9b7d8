// internal/repository/postgres/admin_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const adminColumns = `id, username, email, password_hash, role, wallet, is_active, deactivated_by,
	is_deleted, deleted_by, deleted_at, created_at, updated_at`

// AdminRepository implements repository.AdminRepository for PostgreSQL.
type AdminRepository struct{}

// NewAdminRepository creates a new AdminRepository.
func NewAdminRepository() repository.AdminRepository {
	return &AdminRepository{}
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, q repository.DBExecutor, a *domain.AdminWallet) error {
	query := `INSERT INTO admins (id, username, email, password_hash, role, wallet, is_active, is_deleted, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.ExecContext(ctx, query, a.ID, a.Username, a.Email, a.PasswordHash, a.Role, a.Wallet,
		a.IsActive, a.IsDeleted, a.CreatedAt, a.UpdatedAt)
	return mapError(err, nil, "failed to create admin")
}

// GetByID retrieves an admin by ID.
func (r *AdminRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.AdminWallet, error) {
	var a domain.AdminWallet
	if err := q.GetContext(ctx, &a, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id); err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to get admin %s", id)
	}
	return &a, nil
}

// GetByIDForUpdate retrieves an admin and locks its row.
func (r *AdminRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.AdminWallet, error) {
	var a domain.AdminWallet
	if err := q.GetContext(ctx, &a, `SELECT `+adminColumns+` FROM admins WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to lock admin %s", id)
	}
	return &a, nil
}

// GetByEmail retrieves an admin by email, case-insensitively.
func (r *AdminRepository) GetByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.AdminWallet, error) {
	var a domain.AdminWallet
	if err := q.GetContext(ctx, &a, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = lower($1)`, email); err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to get admin by email")
	}
	return &a, nil
}

// List returns admins that are not deleted, superadmins first.
func (r *AdminRepository) List(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.AdminWallet, int64, error) {
	admins := []domain.AdminWallet{}
	query := `SELECT ` + adminColumns + ` FROM admins WHERE is_deleted = FALSE
              ORDER BY role DESC, created_at LIMIT $1 OFFSET $2`
	if err := q.SelectContext(ctx, &admins, query, limit, offset); err != nil {
		return nil, 0, mapError(err, nil, "failed to list admins")
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM admins WHERE is_deleted = FALSE`); err != nil {
		return nil, 0, mapError(err, nil, "failed to count admins")
	}
	return admins, total, nil
}

// DebitWallet subtracts amount, guarded so the wallet never goes negative.
func (r *AdminRepository) DebitWallet(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE admins SET wallet = wallet - $2, updated_at = $3 WHERE id = $1 AND wallet >= $2`
	result, err := q.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to debit wallet %s", id)
	}
	return expectOneRow(result, fmt.Errorf("debit wallet %s: %w", id, util.ErrInsufficientFunds))
}

// CreditWallet adds amount to the wallet.
func (r *AdminRepository) CreditWallet(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE admins SET wallet = wallet + $2, updated_at = $3 WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to credit wallet %s", id)
	}
	return expectOneRow(result, fmt.Errorf("credit wallet %s: %w", id, util.ErrPartyNotFound))
}

// SetActive toggles an admin and records who deactivated it.
func (r *AdminRepository) SetActive(ctx context.Context, q repository.DBExecutor, id uuid.UUID, active bool, actorID *uuid.UUID) error {
	query := `UPDATE admins SET is_active = $2, deactivated_by = $3, updated_at = $4
              WHERE id = $1 AND is_active <> $2 AND is_deleted = FALSE`
	var deactivatedBy *uuid.UUID
	if !active {
		deactivatedBy = actorID
	}
	result, err := q.ExecContext(ctx, query, id, active, deactivatedBy, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to update admin %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// SoftDelete flags an admin as deleted and deactivates it.
func (r *AdminRepository) SoftDelete(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	query := `UPDATE admins SET is_deleted = TRUE, is_active = FALSE, deleted_by = $2, deleted_at = $3, updated_at = $3
              WHERE id = $1 AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, actorID, at)
	if err != nil {
		return mapError(err, nil, "failed to delete admin %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

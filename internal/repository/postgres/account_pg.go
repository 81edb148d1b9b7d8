// internal/repository/postgres/account_pg.go
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

const accountColumns = `id, fullname, email, phone, password_hash, savings_account_number, current_account_number,
	savings, current, loan, inflow, outflow, transaction_pin_hash, is_active,
	deactivated_by, deactivated_by_role, deactivated_at, reactivated_by, reactivated_at,
	is_deleted, deleted_by, deleted_by_role, deleted_at, created_at, updated_at`

// accountBucketColumns whitelists the columns a bucket may touch.
var accountBucketColumns = map[domain.Bucket]string{
	domain.BucketSavings: "savings",
	domain.BucketCurrent: "current",
	domain.BucketLoan:    "loan",
}

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, q repository.DBExecutor, a *domain.Account) error {
	query := `INSERT INTO users (id, fullname, email, phone, password_hash, savings_account_number, current_account_number,
              savings, current, loan, inflow, outflow, is_active, is_deleted, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := q.ExecContext(ctx, query,
		a.ID, a.Fullname, a.Email, a.Phone, a.PasswordHash, a.SavingsAccountNumber, a.CurrentAccountNumber,
		a.Savings, a.Current, a.Loan, a.Inflow, a.Outflow, a.IsActive, a.IsDeleted, a.CreatedAt, a.UpdatedAt)
	return mapError(err, nil, "failed to create account")
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account
	err := q.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to get account %s", id)
	}
	return &a, nil
}

// GetByIDForUpdate retrieves an account and locks its row.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account
	err := q.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to lock account %s", id)
	}
	return &a, nil
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.Account, error) {
	var a domain.Account
	err := q.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to get account by email")
	}
	return &a, nil
}

// GetByAccountNumber resolves a savings or current account number.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, q repository.DBExecutor, number string) (*domain.Account, error) {
	var a domain.Account
	query := `SELECT ` + accountColumns + ` FROM users
              WHERE (savings_account_number = $1 OR current_account_number = $1) AND is_deleted = FALSE`
	if err := q.GetContext(ctx, &a, query, number); err != nil {
		return nil, mapError(err, util.ErrPartyNotFound, "failed to get account by number")
	}
	return &a, nil
}

// AccountNumberExists reports whether number is already assigned.
func (r *AccountRepository) AccountNumberExists(ctx context.Context, q repository.DBExecutor, number string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE savings_account_number = $1 OR current_account_number = $1)`
	if err := q.GetContext(ctx, &exists, query, number); err != nil {
		return false, mapError(err, nil, "failed to check account number")
	}
	return exists, nil
}

// List returns live accounts, newest first.
func (r *AccountRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.AccountFilter, limit, offset int) ([]domain.Account, int64, error) {
	c := &conditions{}
	c.fixed("is_deleted = FALSE")
	if filter.Active != nil {
		c.add("is_active = $%d", *filter.Active)
	}
	suffix, args := c.page(limit, offset)
	accounts := []domain.Account{}
	query := `SELECT ` + accountColumns + ` FROM users` + c.where() + ` ORDER BY created_at DESC` + suffix
	if err := q.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to list accounts")
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+c.where(), c.args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to count accounts")
	}
	return accounts, total, nil
}

// ListDeleted returns soft-deleted accounts, most recently deleted first.
func (r *AccountRepository) ListDeleted(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.Account, error) {
	accounts := []domain.Account{}
	query := `SELECT ` + accountColumns + ` FROM users WHERE is_deleted = TRUE
              ORDER BY deleted_at DESC LIMIT $1 OFFSET $2`
	if err := q.SelectContext(ctx, &accounts, query, limit, offset); err != nil {
		return nil, mapError(err, nil, "failed to list deleted accounts")
	}
	return accounts, nil
}

// Debit subtracts amount from bucket, guarded so the bucket never goes negative.
func (r *AccountRepository) Debit(ctx context.Context, q repository.DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	col, ok := accountBucketColumns[bucket]
	if !ok {
		return fmt.Errorf("debit %s: %w", bucket, util.ErrInvalidBucket)
	}
	query := fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s - $2, outflow = outflow + $2, updated_at = $3
              WHERE id = $1 AND %[1]s >= $2`, col)
	result, err := q.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to debit account %s", id)
	}
	if err := expectOneRow(result, util.ErrInsufficientFunds); err != nil {
		return r.explainMiss(ctx, q, id, err)
	}
	return nil
}

// Credit adds amount to bucket and to the lifetime inflow counter.
func (r *AccountRepository) Credit(ctx context.Context, q repository.DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	col, ok := accountBucketColumns[bucket]
	if !ok {
		return fmt.Errorf("credit %s: %w", bucket, util.ErrInvalidBucket)
	}
	query := fmt.Sprintf(`UPDATE users SET %[1]s = %[1]s + $2, inflow = inflow + $2, updated_at = $3
              WHERE id = $1`, col)
	result, err := q.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to credit account %s", id)
	}
	return expectOneRow(result, fmt.Errorf("credit account %s: %w", id, util.ErrPartyNotFound))
}

// explainMiss distinguishes a missing account from an insufficient balance
// after a guarded debit touched no rows.
func (r *AccountRepository) explainMiss(ctx context.Context, q repository.DBExecutor, id uuid.UUID, fallback error) error {
	var exists bool
	if err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return mapError(err, nil, "failed to check account %s", id)
	}
	if !exists {
		return fmt.Errorf("debit account %s: %w", id, util.ErrPartyNotFound)
	}
	return fmt.Errorf("debit account %s: %w", id, fallback)
}

// SetTransactionPin stores a new PIN digest.
func (r *AccountRepository) SetTransactionPin(ctx context.Context, q repository.DBExecutor, id uuid.UUID, pinHash string) error {
	result, err := q.ExecContext(ctx, `UPDATE users SET transaction_pin_hash = $2, updated_at = $3 WHERE id = $1`,
		id, pinHash, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to set pin for account %s", id)
	}
	return expectOneRow(result, util.ErrPartyNotFound)
}

// Deactivate records who deactivated the account and under which role.
func (r *AccountRepository) Deactivate(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error {
	query := `UPDATE users SET is_active = FALSE, deactivated_by = $2, deactivated_by_role = $3, deactivated_at = $4,
              reactivated_by = NULL, reactivated_at = NULL, updated_at = $4
              WHERE id = $1 AND is_active = TRUE AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, actorID, actorRole, at)
	if err != nil {
		return mapError(err, nil, "failed to deactivate account %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// Reactivate clears the deactivation provenance.
func (r *AccountRepository) Reactivate(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	query := `UPDATE users SET is_active = TRUE, deactivated_by = NULL, deactivated_by_role = NULL, deactivated_at = NULL,
              reactivated_by = $2, reactivated_at = $3, updated_at = $3
              WHERE id = $1 AND is_active = FALSE AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, actorID, at)
	if err != nil {
		return mapError(err, nil, "failed to reactivate account %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// SoftDelete flags the account as deleted; is_active is left untouched so a
// restore returns it to its prior state.
func (r *AccountRepository) SoftDelete(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error {
	query := `UPDATE users SET is_deleted = TRUE, deleted_by = $2, deleted_by_role = $3, deleted_at = $4, updated_at = $4
              WHERE id = $1 AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, actorID, actorRole, at)
	if err != nil {
		return mapError(err, nil, "failed to soft delete account %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// Restore clears the soft-delete flag and its provenance.
func (r *AccountRepository) Restore(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	query := `UPDATE users SET is_deleted = FALSE, deleted_by = NULL, deleted_by_role = NULL, deleted_at = NULL, updated_at = $2
              WHERE id = $1 AND is_deleted = TRUE`
	result, err := q.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to restore account %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// Delete removes a soft-deleted account row.
func (r *AccountRepository) Delete(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	result, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND is_deleted = TRUE`, id)
	if err != nil {
		return mapError(err, nil, "failed to delete account %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

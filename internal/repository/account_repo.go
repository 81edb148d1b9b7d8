// internal/repository/account_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
)

// AccountRepository defines the data operations on user accounts.
type AccountRepository interface {
	// Create inserts a new account.
	Create(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetByID returns the account, including soft-deleted ones.
	GetByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Account, error)
	// GetByIDForUpdate returns the account and locks its row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, q DBExecutor, email string) (*domain.Account, error)
	// GetByAccountNumber resolves either a savings or a current account number.
	GetByAccountNumber(ctx context.Context, q DBExecutor, number string) (*domain.Account, error)
	AccountNumberExists(ctx context.Context, q DBExecutor, number string) (bool, error)
	// List returns a page of live accounts, newest first, plus the total count.
	List(ctx context.Context, q DBExecutor, filter AccountFilter, limit, offset int) ([]domain.Account, int64, error)
	ListDeleted(ctx context.Context, q DBExecutor, limit, offset int) ([]domain.Account, error)

	// Debit subtracts amount from bucket and adds it to outflow. It fails with
	// util.ErrInsufficientFunds when the bucket holds less than amount.
	Debit(ctx context.Context, q DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error
	// Credit adds amount to bucket and to inflow.
	Credit(ctx context.Context, q DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error

	SetTransactionPin(ctx context.Context, q DBExecutor, id uuid.UUID, pinHash string) error
	Deactivate(ctx context.Context, q DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error
	Reactivate(ctx context.Context, q DBExecutor, id, actorID uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, q DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error
	Restore(ctx context.Context, q DBExecutor, id uuid.UUID) error
	// Delete removes the account row permanently.
	Delete(ctx context.Context, q DBExecutor, id uuid.UUID) error
}

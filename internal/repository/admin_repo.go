// internal/repository/admin_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
)

// AdminRepository defines the data operations on admins and their wallets.
type AdminRepository interface {
	Create(ctx context.Context, q DBExecutor, admin *domain.AdminWallet) error
	GetByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.AdminWallet, error)
	GetByIDForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.AdminWallet, error)
	GetByEmail(ctx context.Context, q DBExecutor, email string) (*domain.AdminWallet, error)
	// List returns a page of admins that are not deleted, plus the total count.
	List(ctx context.Context, q DBExecutor, limit, offset int) ([]domain.AdminWallet, int64, error)

	// DebitWallet fails with util.ErrInsufficientFunds when the wallet holds less than amount.
	DebitWallet(ctx context.Context, q DBExecutor, id uuid.UUID, amount decimal.Decimal) error
	CreditWallet(ctx context.Context, q DBExecutor, id uuid.UUID, amount decimal.Decimal) error

	SetActive(ctx context.Context, q DBExecutor, id uuid.UUID, active bool, actorID *uuid.UUID) error
	SoftDelete(ctx context.Context, q DBExecutor, id, actorID uuid.UUID, at time.Time) error
}

// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"valley-ledger/internal/domain"
)

// TransactionRepository defines the data operations on ledger legs.
type TransactionRepository interface {
	// Create appends a leg and fills its ID.
	Create(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	GetByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// ListByOwner returns a page of the owner's legs, newest first, plus the total count.
	ListByOwner(ctx context.Context, q DBExecutor, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error)
	// List returns a page of legs matching filter, newest first, plus the total count.
	List(ctx context.Context, q DBExecutor, filter TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error)
	Stats(ctx context.Context, q DBExecutor, filter TransactionFilter) (*domain.TransactionStats, error)
	ListByCorrelation(ctx context.Context, q DBExecutor, correlationID string) ([]domain.Transaction, error)
	// UpdateStatus changes the status tag only; amounts are immutable.
	UpdateStatus(ctx context.Context, q DBExecutor, id int64, status domain.TransactionStatus) error
	DeleteByOwner(ctx context.Context, q DBExecutor, ownerID uuid.UUID) (int64, error)
}

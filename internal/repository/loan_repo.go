// internal/repository/loan_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"valley-ledger/internal/domain"
)

// LoanRepository defines the data operations on loan applications.
type LoanRepository interface {
	Create(ctx context.Context, q DBExecutor, loan *domain.LoanApplication) error
	GetByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.LoanApplication, error)
	// List returns a page of applications, newest first, plus the total count.
	List(ctx context.Context, q DBExecutor, filter LoanFilter, limit, offset int) ([]domain.LoanApplication, int64, error)
	// Review closes a pending application; otherwise util.ErrInvalidState.
	Review(ctx context.Context, q DBExecutor, id uuid.UUID, status domain.LoanStatus, message string, reviewerID uuid.UUID, at time.Time) error
}

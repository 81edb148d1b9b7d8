// internal/repository/card_repo.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
)

// CardRepository defines the data operations on cards.
type CardRepository interface {
	Create(ctx context.Context, q DBExecutor, card *domain.Card) error
	GetByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Card, error)
	// GetCurrentByUser returns the user's newest non-deleted card that is not rejected.
	GetCurrentByUser(ctx context.Context, q DBExecutor, userID uuid.UUID) (*domain.Card, error)
	ListPending(ctx context.Context, q DBExecutor) ([]domain.Card, error)
	// List returns a page of cards, newest first, plus the total count.
	List(ctx context.Context, q DBExecutor, filter CardFilter, limit, offset int) ([]domain.Card, int64, error)
	CardNumberExists(ctx context.Context, q DBExecutor, number string) (bool, error)

	// DebitBalance fails with util.ErrInsufficientFunds when the card holds less
	// than amount and with util.ErrCardNotEligible when it is not approved and active.
	DebitBalance(ctx context.Context, q DBExecutor, id uuid.UUID, amount decimal.Decimal) error
	CreditBalance(ctx context.Context, q DBExecutor, id uuid.UUID, amount decimal.Decimal) error

	// Approve and Reject only move cards out of pending; otherwise util.ErrInvalidState.
	Approve(ctx context.Context, q DBExecutor, id, actorID uuid.UUID, at time.Time) error
	Reject(ctx context.Context, q DBExecutor, id, actorID uuid.UUID, reason string, at time.Time) error
	// SetActive toggles approved cards only; otherwise util.ErrInvalidState.
	SetActive(ctx context.Context, q DBExecutor, id uuid.UUID, active bool) error

	SoftDeleteByUser(ctx context.Context, q DBExecutor, userID uuid.UUID, at time.Time) error
	RestoreByUser(ctx context.Context, q DBExecutor, userID uuid.UUID) error
	DeleteByUser(ctx context.Context, q DBExecutor, userID uuid.UUID) (int64, error)
}

// internal/repository/postgres/card_pg.go
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

const cardColumns = `id, user_id, holder_name, card_type, card_number, expiry_date, pin_hash, balance, status,
	is_active, is_deleted, deleted_at, created_by, approved_by, approved_at, rejected_by, rejected_at,
	rejection_reason, created_at, updated_at`

// CardRepository implements repository.CardRepository for PostgreSQL.
type CardRepository struct{}

// NewCardRepository creates a new CardRepository.
func NewCardRepository() repository.CardRepository {
	return &CardRepository{}
}

// Create inserts a new card.
func (r *CardRepository) Create(ctx context.Context, q repository.DBExecutor, c *domain.Card) error {
	query := `INSERT INTO cards (id, user_id, holder_name, card_type, card_number, expiry_date, pin_hash, balance,
              status, is_active, is_deleted, created_by, approved_by, approved_at, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := q.ExecContext(ctx, query, c.ID, c.UserID, c.HolderName, c.CardType, c.CardNumber, c.ExpiryDate,
		c.PinHash, c.Balance, c.Status, c.IsActive, c.IsDeleted, c.CreatedBy, c.ApprovedBy, c.ApprovedAt,
		c.CreatedAt, c.UpdatedAt)
	return mapError(err, nil, "failed to create card")
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card
	if err := q.GetContext(ctx, &c, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id); err != nil {
		return nil, mapError(err, util.ErrCardNotFound, "failed to get card %s", id)
	}
	return &c, nil
}

// GetByIDForUpdate retrieves a card and locks its row.
func (r *CardRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Card, error) {
	var c domain.Card
	if err := q.GetContext(ctx, &c, `SELECT `+cardColumns+` FROM cards WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, mapError(err, util.ErrCardNotFound, "failed to lock card %s", id)
	}
	return &c, nil
}

// GetCurrentByUser returns the user's newest pending or approved card.
func (r *CardRepository) GetCurrentByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (*domain.Card, error) {
	var c domain.Card
	query := `SELECT ` + cardColumns + ` FROM cards
              WHERE user_id = $1 AND is_deleted = FALSE AND status <> 'rejected'
              ORDER BY created_at DESC LIMIT 1`
	if err := q.GetContext(ctx, &c, query, userID); err != nil {
		return nil, mapError(err, util.ErrCardNotFound, "failed to get card for user %s", userID)
	}
	return &c, nil
}

// ListPending returns pending applications, oldest first.
func (r *CardRepository) ListPending(ctx context.Context, q repository.DBExecutor) ([]domain.Card, error) {
	cards := []domain.Card{}
	query := `SELECT ` + cardColumns + ` FROM cards WHERE status = 'pending' AND is_deleted = FALSE ORDER BY created_at`
	if err := q.SelectContext(ctx, &cards, query); err != nil {
		return nil, mapError(err, nil, "failed to list pending cards")
	}
	return cards, nil
}

// List returns cards that are not deleted, newest first.
func (r *CardRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.CardFilter, limit, offset int) ([]domain.Card, int64, error) {
	c := &conditions{}
	c.fixed("is_deleted = FALSE")
	if filter.Status != "" {
		c.add("status = $%d", filter.Status)
	}
	if filter.Active != nil {
		c.add("is_active = $%d", *filter.Active)
	}
	if filter.CardType != "" {
		c.add("card_type = $%d", filter.CardType)
	}
	suffix, args := c.page(limit, offset)
	cards := []domain.Card{}
	query := `SELECT ` + cardColumns + ` FROM cards` + c.where() + ` ORDER BY created_at DESC` + suffix
	if err := q.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to list cards")
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM cards`+c.where(), c.args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to count cards")
	}
	return cards, total, nil
}

// CardNumberExists reports whether number is already issued.
func (r *CardRepository) CardNumberExists(ctx context.Context, q repository.DBExecutor, number string) (bool, error) {
	var exists bool
	if err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM cards WHERE card_number = $1)`, number); err != nil {
		return false, mapError(err, nil, "failed to check card number")
	}
	return exists, nil
}

// DebitBalance subtracts amount from an eligible card, never below zero.
func (r *CardRepository) DebitBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE cards SET balance = balance - $2, updated_at = $3
              WHERE id = $1 AND status = 'approved' AND is_active = TRUE AND is_deleted = FALSE AND balance >= $2`
	result, err := q.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to debit card %s", id)
	}
	if err := expectOneRow(result, util.ErrInsufficientFunds); err != nil {
		return r.explainMiss(ctx, q, id, err)
	}
	return nil
}

// CreditBalance adds amount to an eligible card.
func (r *CardRepository) CreditBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE cards SET balance = balance + $2, updated_at = $3
              WHERE id = $1 AND status = 'approved' AND is_active = TRUE AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to credit card %s", id)
	}
	if err := expectOneRow(result, util.ErrCardNotEligible); err != nil {
		return r.explainMiss(ctx, q, id, err)
	}
	return nil
}

// explainMiss classifies a guarded card update that touched no rows.
func (r *CardRepository) explainMiss(ctx context.Context, q repository.DBExecutor, id uuid.UUID, fallback error) error {
	c, err := r.GetByID(ctx, q, id)
	if err != nil {
		return err
	}
	if !c.Eligible() {
		return fmt.Errorf("card %s: %w", id, util.ErrCardNotEligible)
	}
	return fmt.Errorf("card %s: %w", id, fallback)
}

// Approve moves a pending card to approved.
func (r *CardRepository) Approve(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	query := `UPDATE cards SET status = 'approved', is_active = TRUE, approved_by = $2, approved_at = $3, updated_at = $3
              WHERE id = $1 AND status = 'pending' AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, actorID, at)
	if err != nil {
		return mapError(err, nil, "failed to approve card %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// Reject moves a pending card to rejected.
func (r *CardRepository) Reject(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, reason string, at time.Time) error {
	query := `UPDATE cards SET status = 'rejected', is_active = FALSE, rejected_by = $2, rejected_at = $3,
              rejection_reason = $4, updated_at = $3
              WHERE id = $1 AND status = 'pending' AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, actorID, at, reason)
	if err != nil {
		return mapError(err, nil, "failed to reject card %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// SetActive toggles an approved card.
func (r *CardRepository) SetActive(ctx context.Context, q repository.DBExecutor, id uuid.UUID, active bool) error {
	query := `UPDATE cards SET is_active = $2, updated_at = $3
              WHERE id = $1 AND status = 'approved' AND is_active <> $2 AND is_deleted = FALSE`
	result, err := q.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return mapError(err, nil, "failed to update card %s", id)
	}
	return expectOneRow(result, util.ErrInvalidState)
}

// SoftDeleteByUser flags every card of the user as deleted.
func (r *CardRepository) SoftDeleteByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, at time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE cards SET is_deleted = TRUE, deleted_at = $2, updated_at = $2
              WHERE user_id = $1 AND is_deleted = FALSE`, userID, at)
	return mapError(err, nil, "failed to soft delete cards of user %s", userID)
}

// RestoreByUser clears the deleted flag on every card of the user.
func (r *CardRepository) RestoreByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) error {
	_, err := q.ExecContext(ctx, `UPDATE cards SET is_deleted = FALSE, deleted_at = NULL, updated_at = $2
              WHERE user_id = $1 AND is_deleted = TRUE`, userID, time.Now().UTC())
	return mapError(err, nil, "failed to restore cards of user %s", userID)
}

// DeleteByUser removes every card of the user.
func (r *CardRepository) DeleteByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM cards WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapError(err, nil, "failed to delete cards of user %s", userID)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

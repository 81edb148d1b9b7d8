// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const transactionColumns = `id, owner_id, owner_kind, direction, amount, description, account_type,
	balance_after, correlation_id, status, created_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// Create inserts a leg and scans back its generated ID.
func (r *TransactionRepository) Create(ctx context.Context, q repository.DBExecutor, t *domain.Transaction) error {
	query := `INSERT INTO transactions (owner_id, owner_kind, direction, amount, description, account_type,
              balance_after, correlation_id, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		t.OwnerID,
		t.OwnerKind,
		t.Direction,
		t.Amount,
		t.Description,
		t.AccountType,
		t.BalanceAfter,
		t.CorrelationID,
		t.Status,
		t.CreatedAt,
	).Scan(&t.ID)
	return mapError(err, nil, "failed to create transaction")
}

// GetByID retrieves a single leg.
func (r *TransactionRepository) GetByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := q.GetContext(ctx, &t, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id); err != nil {
		return nil, mapError(err, util.ErrTransactionNotFound, "failed to get transaction %d", id)
	}
	return &t, nil
}

// ListByOwner retrieves a page of legs plus the owner's total leg count.
func (r *TransactionRepository) ListByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE owner_id = $1
              ORDER BY created_at DESC, id DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &transactions, query, ownerID, limit, offset); err != nil {
		return nil, 0, mapError(err, nil, "failed to fetch transactions for %s", ownerID)
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions WHERE owner_id = $1`, ownerID); err != nil {
		return nil, 0, mapError(err, nil, "failed to count transactions for %s", ownerID)
	}
	return transactions, total, nil
}

func transactionConditions(filter repository.TransactionFilter) *conditions {
	c := &conditions{}
	if filter.OwnerID != nil {
		c.add("owner_id = $%d", *filter.OwnerID)
	}
	if filter.Status != "" {
		c.add("status = $%d", filter.Status)
	}
	if filter.Direction != "" {
		c.add("direction = $%d", filter.Direction)
	}
	if filter.AccountType != "" {
		c.add("account_type = $%d", filter.AccountType)
	}
	return c
}

// List retrieves a page of legs matching filter plus the matching count.
func (r *TransactionRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error) {
	c := transactionConditions(filter)
	suffix, args := c.page(limit, offset)
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + c.where() +
		` ORDER BY created_at DESC, id DESC` + suffix
	if err := q.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to list transactions")
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions`+c.where(), c.args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to count transactions")
	}
	return transactions, total, nil
}

type statsGroup struct {
	Status    domain.TransactionStatus `db:"status"`
	Direction domain.Direction         `db:"direction"`
	Count     int64                    `db:"count"`
	Amount    decimal.Decimal          `db:"amount"`
}

// Stats aggregates the legs matching filter by status and direction.
func (r *TransactionRepository) Stats(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter) (*domain.TransactionStats, error) {
	c := transactionConditions(filter)
	groups := []statsGroup{}
	query := `SELECT status, direction, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount
              FROM transactions` + c.where() + ` GROUP BY status, direction`
	if err := q.SelectContext(ctx, &groups, query, c.args...); err != nil {
		return nil, mapError(err, nil, "failed to aggregate transactions")
	}
	stats := domain.NewTransactionStats()
	for _, g := range groups {
		stats.Add(g.Status, g.Direction, g.Count, g.Amount)
	}
	return stats, nil
}

// ListByCorrelation returns every leg sharing correlationID.
func (r *TransactionRepository) ListByCorrelation(ctx context.Context, q repository.DBExecutor, correlationID string) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE correlation_id = $1 ORDER BY id`
	if err := q.SelectContext(ctx, &transactions, query, correlationID); err != nil {
		return nil, mapError(err, nil, "failed to fetch transactions for correlation %s", correlationID)
	}
	return transactions, nil
}

// UpdateStatus changes the status of one leg.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus) error {
	result, err := q.ExecContext(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return mapError(err, nil, "failed to update transaction %d", id)
	}
	return expectOneRow(result, util.ErrTransactionNotFound)
}

// DeleteByOwner purges every leg owned by ownerID.
func (r *TransactionRepository) DeleteByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, mapError(err, nil, "failed to delete transactions of %s", ownerID)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

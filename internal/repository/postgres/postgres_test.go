// internal/repository/postgres/postgres_test.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound error
		want     error
	}{
		{"no rows with not found", sql.ErrNoRows, util.ErrPartyNotFound, util.ErrPartyNotFound},
		{"no rows without not found", sql.ErrNoRows, nil, util.ErrStorage},
		{"unique violation", &pq.Error{Code: pqUniqueViolation, Constraint: "users_email_key"}, nil, util.ErrAlreadyExists},
		{"serialization failure", &pq.Error{Code: pqSerializationFailure}, nil, util.ErrConflict},
		{"deadlock", &pq.Error{Code: pqDeadlockDetected}, nil, util.ErrConflict},
		{"negative balance check", &pq.Error{Code: pqCheckViolation, Constraint: "users_savings_check"}, nil, util.ErrInsufficientFunds},
		{"amount check", &pq.Error{Code: pqCheckViolation, Constraint: "transactions_amount_check"}, nil, util.ErrInvalidAmount},
		{"numeric overflow", &pq.Error{Code: pqNumericOutOfRange}, nil, util.ErrInvalidAmount},
		{"anything else", errors.New("connection reset by peer"), nil, util.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, tt.notFound, "op %d", 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "op 1")
		})
	}

	assert.NoError(t, mapError(nil, util.ErrNotFound, "op"))
}

func TestAccountRepository_Debit(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	id := uuid.New()
	amount := decimal.RequireFromString("30.00")

	t.Run("guarded update applies", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE users SET savings = savings - \$2, outflow = outflow \+ \$2, updated_at = \$3\s+WHERE id = \$1 AND savings >= \$2`).
			WithArgs(id.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Debit(ctx, db, id, domain.BucketSavings, amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows on an existing account is insufficient funds", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE users SET current = current - \$2`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.Debit(ctx, db, id, domain.BucketCurrent, amount)
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows on a missing account is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE users SET loan = loan - \$2`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.Debit(ctx, db, id, domain.BucketLoan, amount)
		assert.ErrorIs(t, err, util.ErrPartyNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-account bucket never reaches the database", func(t *testing.T) {
		db, mock := newMockDB(t)
		err := repo.Debit(ctx, db, id, domain.BucketWallet, amount)
		assert.ErrorIs(t, err, util.ErrInvalidBucket)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_CreditBumpsInflow(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET current = current \+ \$2, inflow = inflow \+ \$2`).
		WithArgs(id.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewAccountRepository().Credit(context.Background(), db, id, domain.BucketCurrent, decimal.NewFromInt(5)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_LoanBucketMovesCounters(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE users SET loan = loan \+ \$2, inflow = inflow \+ \$2`).
		WithArgs(id.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET loan = loan - \$2, outflow = outflow \+ \$2`).
		WithArgs(id.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepository()
	require.NoError(t, repo.Credit(context.Background(), db, id, domain.BucketLoan, decimal.NewFromInt(5)))
	require.NoError(t, repo.Debit(context.Background(), db, id, domain.BucketLoan, decimal.NewFromInt(5)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows([]string{"id", "fullname", "savings", "current", "is_active", "deactivated_by_role"}).
			AddRow(id.String(), "Ada", "100.50", "0", false, "admin")
		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).WithArgs(id.String()).WillReturnRows(rows)

		account, err := repo.GetByID(ctx, db, id)
		require.NoError(t, err)
		assert.Equal(t, id, account.ID)
		assert.True(t, account.Savings.Equal(decimal.RequireFromString("100.50")))
		assert.False(t, account.IsActive)
		require.NotNil(t, account.DeactivatedByRole)
		assert.Equal(t, domain.RoleAdmin, *account.DeactivatedByRole)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, db, id)
		assert.ErrorIs(t, err, util.ErrPartyNotFound)
	})
}

func TestAccountRepository_LifecycleGuards(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	id, actor := uuid.New(), uuid.New()

	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE users SET is_active = FALSE, deactivated_by = \$2, deactivated_by_role = \$3`).
		WithArgs(id.String(), actor.String(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE users SET is_active = TRUE, deactivated_by = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.ErrorIs(t, repo.Deactivate(ctx, db, id, actor, domain.RoleAdmin, time.Now().UTC()), util.ErrInvalidState)
	assert.NoError(t, repo.Reactivate(ctx, db, id, actor, time.Now().UTC()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_DebitWalletGuard(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	mock.ExpectExec(`UPDATE admins SET wallet = wallet - \$2, updated_at = \$3 WHERE id = \$1 AND wallet >= \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAdminRepository().DebitWallet(context.Background(), db, id, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, util.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_DebitExplainsMiss(t *testing.T) {
	ctx := context.Background()
	repo := NewCardRepository()
	id := uuid.New()

	tests := []struct {
		name   string
		status string
		active bool
		want   error
	}{
		{"pending card", "pending", false, util.ErrCardNotEligible},
		{"frozen card", "approved", false, util.ErrCardNotEligible},
		{"eligible card with low balance", "approved", true, util.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(`UPDATE cards SET balance = balance - \$2`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT .+ FROM cards WHERE id = \$1`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "status", "is_active", "is_deleted", "balance"}).
					AddRow(id.String(), tt.status, tt.active, false, "1.00"))

			err := repo.DebitBalance(ctx, db, id, decimal.NewFromInt(5))
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactionRepository_CreateScansID(t *testing.T) {
	db, mock := newMockDB(t)
	leg := &domain.Transaction{
		OwnerID:       uuid.New(),
		OwnerKind:     domain.PartyUser,
		Direction:     domain.DirectionOutflow,
		Amount:        decimal.RequireFromString("30.00"),
		AccountType:   domain.BucketSavings,
		BalanceAfter:  decimal.RequireFromString("70.00"),
		CorrelationID: "corr-1",
		Status:        domain.TransactionStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
	mock.ExpectQuery(`INSERT INTO transactions .+ RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, NewTransactionRepository().Create(context.Background(), db, leg))
	assert.EqualValues(t, 42, leg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	owner := uuid.New()
	mock.ExpectQuery(`SELECT .+ FROM transactions\s+WHERE owner_id = \$1\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(owner.String(), int64(2), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "amount", "status"}).
			AddRow(int64(2), owner.String(), "2.00", "completed").
			AddRow(int64(1), owner.String(), "1.00", "pending_review"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE owner_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))

	legs, total, err := NewTransactionRepository().ListByOwner(context.Background(), db, owner, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, legs, 2)
	assert.EqualValues(t, 2, legs[0].ID)
	assert.Equal(t, domain.TransactionStatusPendingReview, legs[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_ListFiltered(t *testing.T) {
	db, mock := newMockDB(t)
	owner := uuid.New()
	filter := repository.TransactionFilter{OwnerID: &owner, Status: domain.TransactionStatusCompleted, AccountType: domain.BucketCurrent}

	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE owner_id = \$1 AND status = \$2 AND account_type = \$3 ORDER BY created_at DESC, id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(owner.String(), "completed", "current", int64(10), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "amount", "status"}).
			AddRow(int64(9), owner.String(), "3.00", "completed"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transactions WHERE owner_id = \$1 AND status = \$2 AND account_type = \$3$`).
		WithArgs(owner.String(), "completed", "current").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	legs, total, err := NewTransactionRepository().List(context.Background(), db, filter, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, legs, 1)
	assert.EqualValues(t, 9, legs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_Stats(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT status, direction, COUNT\(\*\) AS count, COALESCE\(SUM\(amount\), 0\) AS amount\s+FROM transactions GROUP BY status, direction`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "direction", "count", "amount"}).
			AddRow("completed", "inflow", int64(2), "80.00").
			AddRow("completed", "outflow", int64(2), "80.00").
			AddRow("pending_review", "outflow", int64(1), "5.50"))

	stats, err := NewTransactionRepository().Stats(context.Background(), db, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.Total)
	assert.EqualValues(t, 4, stats.ByStatus[domain.TransactionStatusCompleted])
	assert.EqualValues(t, 3, stats.ByDirection[domain.DirectionOutflow])
	assert.True(t, stats.TotalAmount.Equal(decimal.RequireFromString("165.50")))
	assert.True(t, stats.CompletedAmount.Equal(decimal.RequireFromString("160.00")))
	assert.True(t, stats.PendingAmount.Equal(decimal.RequireFromString("5.50")))
	assert.True(t, stats.Inflow.Equal(decimal.RequireFromString("80.00")))
	assert.True(t, stats.Outflow.Equal(decimal.RequireFromString("85.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ListActiveFilter(t *testing.T) {
	db, mock := newMockDB(t)
	active := false
	mock.ExpectQuery(`SELECT .+ FROM users WHERE is_deleted = FALSE AND is_active = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(false, int64(20), int64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fullname", "is_active"}).AddRow(uuid.NewString(), "Dora Dormant", false))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE is_deleted = FALSE AND is_active = \$1`).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(41)))

	accounts, total, err := NewAccountRepository().List(context.Background(), db, repository.AccountFilter{Active: &active}, 20, 40)
	require.NoError(t, err)
	assert.EqualValues(t, 41, total)
	require.Len(t, accounts, 1)
	assert.False(t, accounts[0].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_ListUnfiltered(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT .+ FROM cards WHERE is_deleted = FALSE ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(int64(20), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(uuid.NewString(), "approved"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cards WHERE is_deleted = FALSE$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	cards, total, err := NewCardRepository().List(context.Background(), db, repository.CardFilter{}, 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, cards, 1)
	assert.Equal(t, domain.CardApproved, cards[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_Review(t *testing.T) {
	ctx := context.Background()
	reviewer := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("PendingIsUpdated", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectExec(`UPDATE loan_applications SET status = \$2, .+ WHERE id = \$1 AND status = 'pending'`).
			WithArgs(id.String(), "approved", "ok", reviewer.String(), at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewLoanRepository().Review(ctx, db, id, domain.LoanApproved, "ok", reviewer, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyReviewed", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectExec(`UPDATE loan_applications`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .+ FROM loan_applications WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(id.String(), "rejected"))

		err := NewLoanRepository().Review(ctx, db, id, domain.LoanApproved, "ok", reviewer, at)
		assert.ErrorIs(t, err, util.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectExec(`UPDATE loan_applications`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .+ FROM loan_applications WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

		err := NewLoanRepository().Review(ctx, db, id, domain.LoanRejected, "no", reviewer, at)
		assert.ErrorIs(t, err, util.ErrLoanNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// internal/repository/mocks/repositories.go
package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockTxController is a mock implementation of db.TxController.
// It also satisfies repository.DBExecutor by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

var _ repository.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) Create(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	return m.Called(ctx, q, account).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, q, id)
	return accountOrNil(args)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, q, id)
	return accountOrNil(args)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.Account, error) {
	args := m.Called(ctx, q, email)
	return accountOrNil(args)
}

func (m *MockAccountRepository) GetByAccountNumber(ctx context.Context, q repository.DBExecutor, number string) (*domain.Account, error) {
	args := m.Called(ctx, q, number)
	return accountOrNil(args)
}

func (m *MockAccountRepository) AccountNumberExists(ctx context.Context, q repository.DBExecutor, number string) (bool, error) {
	args := m.Called(ctx, q, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.AccountFilter, limit, offset int) ([]domain.Account, int64, error) {
	args := m.Called(ctx, q, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) ListDeleted(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, q repository.DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	return m.Called(ctx, q, id, bucket, amount).Error(0)
}

func (m *MockAccountRepository) Credit(ctx context.Context, q repository.DBExecutor, id uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	return m.Called(ctx, q, id, bucket, amount).Error(0)
}

func (m *MockAccountRepository) SetTransactionPin(ctx context.Context, q repository.DBExecutor, id uuid.UUID, pinHash string) error {
	return m.Called(ctx, q, id, pinHash).Error(0)
}

func (m *MockAccountRepository) Deactivate(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error {
	return m.Called(ctx, q, id, actorID, actorRole, at).Error(0)
}

func (m *MockAccountRepository) Reactivate(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	return m.Called(ctx, q, id, actorID, at).Error(0)
}

func (m *MockAccountRepository) SoftDelete(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, actorRole domain.Role, at time.Time) error {
	return m.Called(ctx, q, id, actorID, actorRole, at).Error(0)
}

func (m *MockAccountRepository) Restore(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	return m.Called(ctx, q, id).Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, q repository.DBExecutor, id uuid.UUID) error {
	return m.Called(ctx, q, id).Error(0)
}

func accountOrNil(args mock.Arguments) (*domain.Account, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// MockAdminRepository is a mock implementation of repository.AdminRepository.
type MockAdminRepository struct {
	mock.Mock
}

var _ repository.AdminRepository = (*MockAdminRepository)(nil)

func (m *MockAdminRepository) Create(ctx context.Context, q repository.DBExecutor, admin *domain.AdminWallet) error {
	return m.Called(ctx, q, admin).Error(0)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.AdminWallet, error) {
	args := m.Called(ctx, q, id)
	return adminOrNil(args)
}

func (m *MockAdminRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.AdminWallet, error) {
	args := m.Called(ctx, q, id)
	return adminOrNil(args)
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, q repository.DBExecutor, email string) (*domain.AdminWallet, error) {
	args := m.Called(ctx, q, email)
	return adminOrNil(args)
}

func (m *MockAdminRepository) List(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.AdminWallet, int64, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.AdminWallet), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdminRepository) DebitWallet(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, q, id, amount).Error(0)
}

func (m *MockAdminRepository) CreditWallet(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, q, id, amount).Error(0)
}

func (m *MockAdminRepository) SetActive(ctx context.Context, q repository.DBExecutor, id uuid.UUID, active bool, actorID *uuid.UUID) error {
	return m.Called(ctx, q, id, active, actorID).Error(0)
}

func (m *MockAdminRepository) SoftDelete(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	return m.Called(ctx, q, id, actorID, at).Error(0)
}

func adminOrNil(args mock.Arguments) (*domain.AdminWallet, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminWallet), args.Error(1)
}

// MockCardRepository is a mock implementation of repository.CardRepository.
type MockCardRepository struct {
	mock.Mock
}

var _ repository.CardRepository = (*MockCardRepository)(nil)

func (m *MockCardRepository) Create(ctx context.Context, q repository.DBExecutor, card *domain.Card) error {
	return m.Called(ctx, q, card).Error(0)
}

func (m *MockCardRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, q, id)
	return cardOrNil(args)
}

func (m *MockCardRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, q, id)
	return cardOrNil(args)
}

func (m *MockCardRepository) GetCurrentByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, q, userID)
	return cardOrNil(args)
}

func (m *MockCardRepository) ListPending(ctx context.Context, q repository.DBExecutor) ([]domain.Card, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

func (m *MockCardRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.CardFilter, limit, offset int) ([]domain.Card, int64, error) {
	args := m.Called(ctx, q, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Card), args.Get(1).(int64), args.Error(2)
}

func (m *MockCardRepository) CardNumberExists(ctx context.Context, q repository.DBExecutor, number string) (bool, error) {
	args := m.Called(ctx, q, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) DebitBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, q, id, amount).Error(0)
}

func (m *MockCardRepository) CreditBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, q, id, amount).Error(0)
}

func (m *MockCardRepository) Approve(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, at time.Time) error {
	return m.Called(ctx, q, id, actorID, at).Error(0)
}

func (m *MockCardRepository) Reject(ctx context.Context, q repository.DBExecutor, id, actorID uuid.UUID, reason string, at time.Time) error {
	return m.Called(ctx, q, id, actorID, reason, at).Error(0)
}

func (m *MockCardRepository) SetActive(ctx context.Context, q repository.DBExecutor, id uuid.UUID, active bool) error {
	return m.Called(ctx, q, id, active).Error(0)
}

func (m *MockCardRepository) SoftDeleteByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, at time.Time) error {
	return m.Called(ctx, q, userID, at).Error(0)
}

func (m *MockCardRepository) RestoreByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) error {
	return m.Called(ctx, q, userID).Error(0)
}

func (m *MockCardRepository) DeleteByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(int64), args.Error(1)
}

func cardOrNil(args mock.Arguments) (*domain.Card, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

var _ repository.TransactionRepository = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) Create(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	return m.Called(ctx, q, transaction).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) Stats(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter) (*domain.TransactionStats, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionStats), args.Error(1)
}

func (m *MockTransactionRepository) ListByCorrelation(ctx context.Context, q repository.DBExecutor, correlationID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus) error {
	return m.Called(ctx, q, id, status).Error(0)
}

func (m *MockTransactionRepository) DeleteByOwner(ctx context.Context, q repository.DBExecutor, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, q, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockLoanRepository is a mock implementation of repository.LoanRepository.
type MockLoanRepository struct {
	mock.Mock
}

var _ repository.LoanRepository = (*MockLoanRepository)(nil)

func (m *MockLoanRepository) Create(ctx context.Context, q repository.DBExecutor, loan *domain.LoanApplication) error {
	return m.Called(ctx, q, loan).Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.LoanApplication, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.LoanFilter, limit, offset int) ([]domain.LoanApplication, int64, error) {
	args := m.Called(ctx, q, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LoanApplication), args.Get(1).(int64), args.Error(2)
}

func (m *MockLoanRepository) Review(ctx context.Context, q repository.DBExecutor, id uuid.UUID, status domain.LoanStatus, message string, reviewerID uuid.UUID, at time.Time) error {
	return m.Called(ctx, q, id, status, message, reviewerID, at).Error(0)
}

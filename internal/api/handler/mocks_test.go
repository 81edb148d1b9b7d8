// internal/api/handler/mocks_test.go
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withURLParams attaches chi route parameters to r.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asPrincipal(r *http.Request, p *domain.Principal) *http.Request {
	return r.WithContext(WithPrincipal(r.Context(), p))
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	args := m.Called(ctx, token)
	p, _ := args.Get(0).(*domain.Principal)
	return p, args.Error(1)
}

func (m *mockAuthenticator) Login(ctx context.Context, kind domain.PartyKind, email, password string) (string, time.Time, *domain.Principal, error) {
	args := m.Called(ctx, kind, email, password)
	p, _ := args.Get(2).(*domain.Principal)
	return args.String(0), args.Get(1).(time.Time), p, args.Error(3)
}

// mockLedgerService overrides the methods under test; the embedded
// interface panics on anything else.
type mockLedgerService struct {
	service.LedgerService
	mock.Mock
}

func (m *mockLedgerService) UserTransfer(ctx context.Context, actor *domain.Principal, req service.UserTransferRequest) (*domain.CommitResult, error) {
	args := m.Called(ctx, actor, req)
	res, _ := args.Get(0).(*domain.CommitResult)
	return res, args.Error(1)
}

func (m *mockLedgerService) History(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

func (m *mockLedgerService) Transactions(ctx context.Context, actor *domain.Principal, filter repository.TransactionFilter, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, actor, filter, limit, offset)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

type mockCardService struct {
	service.CardService
	mock.Mock
}

func (m *mockCardService) CardPurchase(ctx context.Context, actor *domain.Principal, cardID uuid.UUID, pin string, amount decimal.Decimal, memo string) (*service.CardMovement, error) {
	args := m.Called(ctx, actor, cardID, pin, amount, memo)
	mv, _ := args.Get(0).(*service.CardMovement)
	return mv, args.Error(1)
}

func (m *mockCardService) Approve(ctx context.Context, actor *domain.Principal, cardID uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, actor, cardID)
	c, _ := args.Get(0).(*domain.Card)
	return c, args.Error(1)
}

type mockLoanService struct {
	service.LoanService
	mock.Mock
}

func (m *mockLoanService) Review(ctx context.Context, actor *domain.Principal, loanID uuid.UUID, decision domain.LoanDecision, message string) (*domain.LoanApplication, error) {
	args := m.Called(ctx, actor, loanID, decision, message)
	loan, _ := args.Get(0).(*domain.LoanApplication)
	return loan, args.Error(1)
}

// internal/api/handler/ledger.go
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/api/types"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/service"
	"valley-ledger/internal/util"
)

// LedgerHandler handles HTTP requests that move money between accounts and wallets.
type LedgerHandler struct {
	responder
	service service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{responder: responder{logger: logger}, service: svc}
}

// transferResponse is the body returned for every two-party movement.
type transferResponse struct {
	Message        string          `json:"message"`
	CorrelationID  string          `json:"correlation_id"`
	TransactionIDs []int64         `json:"transaction_ids"`
	FromBalance    decimal.Decimal `json:"from_balance"`
	ToBalance      decimal.Decimal `json:"to_balance"`
}

func newTransferResponse(message string, result *domain.CommitResult) transferResponse {
	ids := make([]int64, 0, len(result.Legs))
	for _, leg := range result.Legs {
		ids = append(ids, leg.ID)
	}
	return transferResponse{
		Message:        message,
		CorrelationID:  result.CorrelationID,
		TransactionIDs: ids,
		FromBalance:    result.DebitBalance,
		ToBalance:      result.CreditBalance,
	}
}

// UserTransferRequest represents the request body for a customer transfer.
type UserTransferRequest struct {
	AccountNumber string          `json:"account_number" validate:"required,numeric"`
	FromAccount   domain.Bucket   `json:"from_account_type" validate:"omitempty,oneof=savings current"`
	ToAccount     domain.Bucket   `json:"to_account_type" validate:"omitempty,oneof=savings current"`
	Amount        decimal.Decimal `json:"amount"`
	Pin           string          `json:"pin"`
	Bank          string          `json:"bank"`
	Country       string          `json:"country"`
}

// UserTransfer handles a customer transfer to another account number.
// POST /transfers
func (h *LedgerHandler) UserTransfer(w http.ResponseWriter, r *http.Request) {
	var req UserTransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.service.UserTransfer(r.Context(), PrincipalFrom(r.Context()), service.UserTransferRequest{
		Pin:             req.Pin,
		ToAccountNumber: req.AccountNumber,
		FromBucket:      req.FromAccount,
		ToBucket:        req.ToAccount,
		Amount:          req.Amount,
		Bank:            req.Bank,
		Country:         req.Country,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, newTransferResponse("Transfer submitted for review", result))
}

// History returns the caller's own transactions, newest first.
// GET /transactions
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFrom(r.Context())
	if principal == nil {
		h.respondWithError(w, util.ErrUnauthenticated)
		return
	}
	h.history(w, r, principal.ID)
}

// UserHistory returns a customer's transactions for an admin.
// GET /admin/users/{userID}/transactions
func (h *LedgerHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.history(w, r, userID)
}

func (h *LedgerHandler) history(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID) {
	limit, offset := pagination(r)
	transactions, total, err := h.service.History(r.Context(), ownerID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// FundUserRequest represents the request body for funding a customer from a wallet.
type FundUserRequest struct {
	AccountType domain.Bucket   `json:"account_type" validate:"required,oneof=savings current loan"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// FundUser pays from the calling admin's wallet into a customer bucket.
// POST /admin/users/{userID}/fund
func (h *LedgerHandler) FundUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req FundUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.service.FundFromWallet(r.Context(), PrincipalFrom(r.Context()), userID, req.AccountType, req.Amount, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, newTransferResponse("Account funded", result))
}

// AdminTransferRequest represents the request body for an admin-initiated transfer.
type AdminTransferRequest struct {
	FromUserID  uuid.UUID       `json:"from_user_id" validate:"required"`
	FromAccount domain.Bucket   `json:"from_account_type" validate:"required,oneof=savings current loan"`
	ToUserID    uuid.UUID       `json:"to_user_id" validate:"required"`
	ToAccount   domain.Bucket   `json:"to_account_type" validate:"required,oneof=savings current loan"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// AdminTransfer moves money between two customers.
// POST /admin/transfers
func (h *LedgerHandler) AdminTransfer(w http.ResponseWriter, r *http.Request) {
	var req AdminTransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.service.AdminTransfer(r.Context(), PrincipalFrom(r.Context()), service.AdminTransferRequest{
		FromUserID:  req.FromUserID,
		FromBucket:  req.FromAccount,
		ToUserID:    req.ToUserID,
		ToBucket:    req.ToAccount,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, newTransferResponse("Transfer successful", result))
}

// Wallet returns the calling admin's wallet.
// GET /admin/wallet
func (h *LedgerHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	admin, err := h.service.Wallet(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"admin_id": admin.ID,
		"wallet":   admin.Wallet,
	})
}

// AmountRequest represents a request body carrying only an amount.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// FundWallet credits an ordinary admin's wallet.
// POST /admin/admins/{adminID}/wallet/fund
func (h *LedgerHandler) FundWallet(w http.ResponseWriter, r *http.Request) {
	adminID, err := uuidParam(r, "adminID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req AmountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	admin, err := h.service.FundWallet(r.Context(), PrincipalFrom(r.Context()), adminID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Wallet funded",
		"admin_id": admin.ID,
		"wallet":   admin.Wallet,
	})
}

// UpdateStatusRequest represents the request body for re-tagging a transaction.
type UpdateStatusRequest struct {
	Status domain.TransactionStatus `json:"status" validate:"required"`
}

// UpdateTransactionStatus handles PATCH /admin/transactions/{txID}/status
func (h *LedgerHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	txID, err := txIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	transaction, err := h.service.UpdateTransactionStatus(r.Context(), PrincipalFrom(r.Context()), txID, req.Status)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

func txIDParam(r *http.Request) (int64, error) {
	txID, err := strconv.ParseInt(chi.URLParam(r, "txID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: txID must be an integer", util.ErrInvalidInput)
	}
	return txID, nil
}

// transactionFilter reads user_id, status, direction and account_type.
func transactionFilter(r *http.Request) (repository.TransactionFilter, error) {
	ownerID, err := uuidQuery(r, "user_id")
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	q := r.URL.Query()
	return repository.TransactionFilter{
		OwnerID:     ownerID,
		Status:      domain.TransactionStatus(q.Get("status")),
		Direction:   domain.Direction(q.Get("direction")),
		AccountType: domain.Bucket(q.Get("account_type")),
	}, nil
}

// Transactions lists legs across every owner.
// GET /admin/transactions
func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	limit, offset := pagination(r)
	transactions, total, err := h.service.Transactions(r.Context(), PrincipalFrom(r.Context()), filter, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// Transaction handles GET /admin/transactions/{txID}
func (h *LedgerHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	txID, err := txIDParam(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	transaction, err := h.service.Transaction(r.Context(), PrincipalFrom(r.Context()), txID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

// TransactionStats handles GET /admin/transactions/stats
func (h *LedgerHandler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	stats, err := h.service.TransactionStats(r.Context(), PrincipalFrom(r.Context()), filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, stats)
}

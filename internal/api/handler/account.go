// internal/api/handler/account.go
package handler

import (
	"log/slog"
	"net/http"

	"valley-ledger/internal/api/types"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/service"
)

// AccountHandler handles account opening, profile and PIN requests.
type AccountHandler struct {
	responder
	service service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{responder: responder{logger: logger}, service: svc}
}

// OpenAccountRequest represents the request body for opening an account.
type OpenAccountRequest struct {
	Fullname string `json:"fullname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// OpenAccount handles customer registration.
// POST /accounts
func (h *AccountHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	account, err := h.service.OpenAccount(r.Context(), service.OpenAccountRequest{
		Fullname: req.Fullname,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, account)
}

// Profile returns the caller's account.
// GET /me
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Profile(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, account)
}

// SetPinRequest represents the request body for setting a transaction PIN.
// CurrentPin is required once a PIN exists.
type SetPinRequest struct {
	CurrentPin string `json:"current_pin"`
	Pin        string `json:"pin" validate:"required"`
	ConfirmPin string `json:"confirm_pin" validate:"required"`
}

// SetPin stores the caller's transaction PIN.
// POST /me/pin
func (h *AccountHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	var req SetPinRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.service.SetTransactionPin(r.Context(), PrincipalFrom(r.Context()), req.CurrentPin, req.Pin, req.ConfirmPin); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Transaction PIN set"})
}

// PinStatus reports whether the caller has a transaction PIN.
// GET /me/pin
func (h *AccountHandler) PinStatus(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.PinStatus(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"has_pin": set})
}

// CreateAdminRequest represents the request body for registering an admin.
type CreateAdminRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateAdmin registers an ordinary admin.
// POST /admin/admins
func (h *AccountHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	admin, err := h.service.CreateAdmin(r.Context(), PrincipalFrom(r.Context()), service.CreateAdminRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, admin)
}

// ListUsers pages through live customers, optionally by ?active=.
// GET /admin/users
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	active, err := boolQuery(r, "active")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	limit, offset := pagination(r)
	users, total, err := h.service.ListUsers(r.Context(), PrincipalFrom(r.Context()), repository.AccountFilter{Active: active}, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Account]{
		Data:       users,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// ListAdmins handles GET /admin/admins
func (h *AccountHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	admins, total, err := h.service.ListAdmins(r.Context(), PrincipalFrom(r.Context()), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.AdminWallet]{
		Data:       admins,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

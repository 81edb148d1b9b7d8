// internal/api/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"valley-ledger/internal/domain"
)

// AuthHandler issues bearer tokens.
type AuthHandler struct {
	responder
	authn Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authn Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{logger: logger}, authn: authn}
}

// LoginRequest represents the request body for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserLogin handles customer login.
// POST /auth/login
func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.PartyUser)
}

// AdminLogin handles admin and superadmin login.
// POST /admin/auth/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.PartyAdmin)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, kind domain.PartyKind) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	token, expires, principal, err := h.authn.Login(r.Context(), kind, req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
		"id":         principal.ID,
		"role":       principal.Role,
	})
}

// internal/api/handler/lifecycle.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"valley-ledger/internal/api/types"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/service"
)

// LifecycleHandler handles deactivation, deletion and restore of users and admins.
type LifecycleHandler struct {
	responder
	service service.LifecycleService
}

// NewLifecycleHandler creates a new LifecycleHandler.
func NewLifecycleHandler(svc service.LifecycleService, logger *slog.Logger) *LifecycleHandler {
	return &LifecycleHandler{responder: responder{logger: logger}, service: svc}
}

// DeactivateUser handles POST /admin/users/{userID}/deactivate
func (h *LifecycleHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, h.service.DeactivateUser)
}

// ReactivateUser handles POST /admin/users/{userID}/reactivate
func (h *LifecycleHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, h.service.ReactivateUser)
}

// RestoreUser handles POST /admin/recycle-bin/{userID}/restore
func (h *LifecycleHandler) RestoreUser(w http.ResponseWriter, r *http.Request) {
	h.accountAction(w, r, h.service.RestoreUser)
}

// DeleteUser handles DELETE /admin/users/{userID}
func (h *LifecycleHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), PrincipalFrom(r.Context()), userID); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "User moved to recycle bin"})
}

// PurgeUser handles DELETE /admin/recycle-bin/{userID}
func (h *LifecycleHandler) PurgeUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.service.PurgeUser(r.Context(), PrincipalFrom(r.Context()), userID); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "User permanently deleted"})
}

// RecycleBin handles GET /admin/recycle-bin
func (h *LifecycleHandler) RecycleBin(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	accounts, err := h.service.RecycleBin(r.Context(), PrincipalFrom(r.Context()), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Account]{
		Data:       accounts,
		Limit:      limit,
		Offset:     offset,
		TotalCount: int64(len(accounts)),
	})
}

// DeactivateAdmin handles POST /admin/admins/{adminID}/deactivate
func (h *LifecycleHandler) DeactivateAdmin(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.service.DeactivateAdmin)
}

// ReactivateAdmin handles POST /admin/admins/{adminID}/reactivate
func (h *LifecycleHandler) ReactivateAdmin(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.service.ReactivateAdmin)
}

// DeleteAdmin handles DELETE /admin/admins/{adminID}
func (h *LifecycleHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, err := uuidParam(r, "adminID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	if err := h.service.DeleteAdmin(r.Context(), PrincipalFrom(r.Context()), adminID); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Admin deleted"})
}

type accountActionFunc func(ctx context.Context, actor *domain.Principal, userID uuid.UUID) (*domain.Account, error)

type adminActionFunc func(ctx context.Context, actor *domain.Principal, adminID uuid.UUID) (*domain.AdminWallet, error)

func (h *LifecycleHandler) accountAction(w http.ResponseWriter, r *http.Request, action accountActionFunc) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	account, err := action(r.Context(), PrincipalFrom(r.Context()), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, account)
}

func (h *LifecycleHandler) adminAction(w http.ResponseWriter, r *http.Request, action adminActionFunc) {
	adminID, err := uuidParam(r, "adminID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	admin, err := action(r.Context(), PrincipalFrom(r.Context()), adminID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, admin)
}

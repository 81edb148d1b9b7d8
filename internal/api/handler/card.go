// internal/api/handler/card.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/api/types"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/service"
)

// CardHandler handles card applications, approvals and card money movements.
type CardHandler struct {
	responder
	service service.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{responder: responder{logger: logger}, service: svc}
}

// CardApplicationRequest represents the request body for a new card.
type CardApplicationRequest struct {
	HolderName string          `json:"holder_name" validate:"required"`
	CardType   domain.CardType `json:"card_type" validate:"required"`
	Pin        string          `json:"pin" validate:"required"`
}

// Apply files a card application for the caller.
// POST /cards
func (h *CardHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req CardApplicationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	card, err := h.service.Apply(r.Context(), PrincipalFrom(r.Context()), service.CardApplication{
		HolderName: req.HolderName, CardType: req.CardType, Pin: req.Pin,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, card)
}

// MyCard returns the caller's current card.
// GET /cards/me
func (h *CardHandler) MyCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.MyCard(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, card)
}

// CardFundRequest represents the request body for moving account money onto a card.
type CardFundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Source domain.Bucket   `json:"source"`
	Pin    string          `json:"pin"`
}

// Fund handles POST /cards/{cardID}/fund
func (h *CardHandler) Fund(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuidParam(r, "cardID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req CardFundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	mv, err := h.service.CardFund(r.Context(), PrincipalFrom(r.Context()), cardID, req.Amount, req.Source, req.Pin)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, mv)
}

// CardPurchaseRequest represents the request body for a card purchase.
type CardPurchaseRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Pin    string          `json:"pin"`
	Memo   string          `json:"memo"`
}

// Purchase handles POST /cards/{cardID}/purchase
func (h *CardHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuidParam(r, "cardID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req CardPurchaseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	mv, err := h.service.CardPurchase(r.Context(), PrincipalFrom(r.Context()), cardID, req.Pin, req.Amount, req.Memo)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, mv)
}

// CardToAccountRequest represents the request body for moving card money back.
type CardToAccountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	AccountType domain.Bucket   `json:"account_type" validate:"required"`
	Pin         string          `json:"pin"`
}

// ToAccount handles POST /cards/{cardID}/to-account
func (h *CardHandler) ToAccount(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuidParam(r, "cardID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req CardToAccountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	mv, err := h.service.CardToAccount(r.Context(), PrincipalFrom(r.Context()), cardID, req.AccountType, req.Amount, req.Pin)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, mv)
}

// AdminCreateRequest represents the request body for an admin-issued card.
type AdminCreateRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	CardApplicationRequest
}

// AdminCreate handles POST /admin/cards
func (h *CardHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	card, err := h.service.AdminCreate(r.Context(), PrincipalFrom(r.Context()), req.UserID, service.CardApplication{
		HolderName: req.HolderName, CardType: req.CardType, Pin: req.Pin,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, card)
}

// Pending handles GET /admin/cards/pending
func (h *CardHandler) Pending(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.Pending(r.Context(), PrincipalFrom(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": cards})
}

// Approve handles POST /admin/cards/{cardID}/approve
func (h *CardHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, func(cardID uuid.UUID) (*domain.Card, error) {
		return h.service.Approve(r.Context(), PrincipalFrom(r.Context()), cardID)
	})
}

// RejectRequest represents the request body for rejecting an application.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /admin/cards/{cardID}/reject
func (h *CardHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			h.respondWithError(w, err)
			return
		}
	}
	h.cardAction(w, r, func(cardID uuid.UUID) (*domain.Card, error) {
		return h.service.Reject(r.Context(), PrincipalFrom(r.Context()), cardID, req.Reason)
	})
}

// Deactivate handles POST /admin/cards/{cardID}/deactivate
func (h *CardHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, func(cardID uuid.UUID) (*domain.Card, error) {
		return h.service.Deactivate(r.Context(), PrincipalFrom(r.Context()), cardID)
	})
}

// Reactivate handles POST /admin/cards/{cardID}/reactivate
func (h *CardHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.cardAction(w, r, func(cardID uuid.UUID) (*domain.Card, error) {
		return h.service.Reactivate(r.Context(), PrincipalFrom(r.Context()), cardID)
	})
}

// AdminFund handles POST /admin/users/{userID}/card/fund
func (h *CardHandler) AdminFund(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req AmountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	mv, err := h.service.AdminFundCard(r.Context(), PrincipalFrom(r.Context()), userID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, mv)
}

func (h *CardHandler) cardAction(w http.ResponseWriter, r *http.Request, action func(cardID uuid.UUID) (*domain.Card, error)) {
	cardID, err := uuidParam(r, "cardID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	card, err := action(cardID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, card)
}

// List pages through cards by ?status=, ?active= and ?card_type=.
// GET /admin/cards
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := boolQuery(r, "active")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	filter := repository.CardFilter{
		Status:   domain.CardStatus(r.URL.Query().Get("status")),
		Active:   active,
		CardType: domain.CardType(r.URL.Query().Get("card_type")),
	}
	limit, offset := pagination(r)
	cards, total, err := h.service.List(r.Context(), PrincipalFrom(r.Context()), filter, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Card]{
		Data:       cards,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

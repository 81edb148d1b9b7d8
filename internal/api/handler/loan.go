// internal/api/handler/loan.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"valley-ledger/internal/api/types"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/service"
)

// LoanHandler handles loan applications and their review.
type LoanHandler struct {
	responder
	service service.LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(svc service.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{responder: responder{logger: logger}, service: svc}
}

// LoanApplicationRequest represents the request body for a loan application.
type LoanApplicationRequest struct {
	LoanType       string          `json:"loan_type" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	ApplicantName  string          `json:"applicant_name"`
	ApplicantEmail string          `json:"applicant_email"`
	ApplicantPhone string          `json:"applicant_phone"`
	AnnualIncome   decimal.Decimal `json:"annual_income"`
	Purpose        string          `json:"purpose" validate:"required"`
}

// Apply handles POST /loans
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req LoanApplicationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	loan, err := h.service.Apply(r.Context(), PrincipalFrom(r.Context()), service.LoanRequest{
		LoanType:       req.LoanType,
		Amount:         req.Amount,
		ApplicantName:  req.ApplicantName,
		ApplicantEmail: req.ApplicantEmail,
		ApplicantPhone: req.ApplicantPhone,
		AnnualIncome:   req.AnnualIncome,
		Purpose:        req.Purpose,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, loan)
}

// Mine handles GET /loans/me
func (h *LoanHandler) Mine(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	loans, total, err := h.service.MyLoans(r.Context(), PrincipalFrom(r.Context()), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.LoanApplication]{
		Data:       loans,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// List handles GET /admin/loans?status=
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	status := domain.LoanStatus(r.URL.Query().Get("status"))
	loans, total, err := h.service.List(r.Context(), PrincipalFrom(r.Context()), status, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.LoanApplication]{
		Data:       loans,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// Get handles GET /admin/loans/{loanID}
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidParam(r, "loanID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	loan, err := h.service.Get(r.Context(), PrincipalFrom(r.Context()), loanID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, loan)
}

// LoanReviewRequest represents the request body for an admin verdict.
type LoanReviewRequest struct {
	Action       domain.LoanDecision `json:"action" validate:"required,oneof=approve reject"`
	AdminMessage string              `json:"admin_message"`
}

// Review handles POST /admin/loans/{loanID}/review
func (h *LoanHandler) Review(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuidParam(r, "loanID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	var req LoanReviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	loan, err := h.service.Review(r.Context(), PrincipalFrom(r.Context()), loanID, req.Action, req.AdminMessage)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, loan)
}

// internal/api/handler/handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"valley-ledger/internal/util"
)

// DefaultTimeout bounds every request, including the ledger commit it triggers.
const DefaultTimeout = 30 * time.Second

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var validate = validator.New()

// responder carries the JSON helpers shared by every handler.
type responder struct {
	logger *slog.Logger
}

// respondWithJSON sends payload as a JSON response.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps err onto a status code and a client-safe message.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := StatusFor(err)
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
	}
	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// StatusFor returns the HTTP status and message presented for err.
// Authentication failures share one message so callers cannot tell a wrong
// identity from a wrong secret.
func StatusFor(err error) (int, string) {
	switch util.KindOf(err) {
	case util.KindValidation:
		return http.StatusBadRequest, err.Error()
	case util.KindUnauthenticated:
		return http.StatusUnauthorized, util.ErrUnauthenticated.Error()
	case util.KindForbidden:
		return http.StatusForbidden, "Forbidden"
	case util.KindNotFound:
		return http.StatusNotFound, "Resource not found"
	case util.KindInsufficientFunds:
		return http.StatusPaymentRequired, "Insufficient funds"
	case util.KindCardNotEligible:
		return http.StatusUnprocessableEntity, util.ErrCardNotEligible.Error()
	case util.KindConflict:
		if util.IsError(err, util.ErrAlreadyExists) {
			return http.StatusConflict, "Resource already exists"
		}
		return http.StatusConflict, util.ErrConflict.Error()
	case util.KindTooManyAttempts:
		return http.StatusTooManyRequests, util.ErrTooManyAttempts.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", util.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", util.ErrInvalidInput, err.Error())
	}
	return nil
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", util.ErrInvalidInput, name)
	}
	return id, nil
}

// pagination parses limit and offset query parameters.
func pagination(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// boolQuery parses an optional boolean query parameter.
func boolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", util.ErrInvalidInput, name)
	}
	return &v, nil
}

// uuidQuery parses an optional UUID query parameter.
func uuidQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a UUID", util.ErrInvalidInput, name)
	}
	return &id, nil
}

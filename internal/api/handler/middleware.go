// internal/api/handler/middleware.go
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"valley-ledger/internal/auth"
	"valley-ledger/internal/domain"
	"valley-ledger/internal/util"
)

// Authenticator resolves credentials into a principal. *auth.Gate implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
	Login(ctx context.Context, kind domain.PartyKind, email, password string) (string, time.Time, *domain.Principal, error)
}

var _ Authenticator = (*auth.Gate)(nil)

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller, or nil.
func PrincipalFrom(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalKey{}).(*domain.Principal)
	return p
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved principal in the request context.
func RequireAuth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				h.respondWithError(w, util.ErrUnauthenticated)
				return
			}
			principal, err := authn.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				h.respondWithError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects principals below role.
func RequireRole(role domain.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	h := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.AuthorizeRole(PrincipalFrom(r.Context()), role); err != nil {
				h.respondWithError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

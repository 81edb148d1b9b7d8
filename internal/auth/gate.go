// internal/auth/gate.go
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

// Gate admits or rejects callers before any balance is touched.
type Gate struct {
	db       repository.DBExecutor
	tokens   *TokenManager
	accounts repository.AccountRepository
	admins   repository.AdminRepository
	limiter  AttemptLimiter
	logger   *slog.Logger
}

// NewGate creates a Gate. A nil limiter disables PIN lockout.
func NewGate(
	db repository.DBExecutor,
	tokens *TokenManager,
	accounts repository.AccountRepository,
	admins repository.AdminRepository,
	limiter AttemptLimiter,
	logger *slog.Logger,
) *Gate {
	if limiter == nil {
		limiter = NoopAttemptLimiter{}
	}
	return &Gate{
		db:       db,
		tokens:   tokens,
		accounts: accounts,
		admins:   admins,
		limiter:  limiter,
		logger:   logger,
	}
}

// Authenticate resolves a bearer token to a live principal. Every failure,
// including an inactive or deleted principal, is util.ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := g.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, util.ErrUnauthenticated
	}

	principal, err := g.lookup(ctx, claims.Kind, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrUnauthenticated
		}
		return nil, err
	}
	if !principal.Active || principal.Deleted {
		return nil, util.ErrUnauthenticated
	}
	return principal, nil
}

func (g *Gate) lookup(ctx context.Context, kind domain.PartyKind, id uuid.UUID) (*domain.Principal, error) {
	switch kind {
	case domain.PartyUser:
		account, err := g.accounts.GetByID(ctx, g.db, id)
		if err != nil {
			return nil, err
		}
		return &domain.Principal{
			ID:      account.ID,
			Kind:    domain.PartyUser,
			Role:    domain.RoleUser,
			Email:   account.Email,
			Active:  account.IsActive,
			Deleted: account.IsDeleted,
		}, nil
	case domain.PartyAdmin:
		admin, err := g.admins.GetByID(ctx, g.db, id)
		if err != nil {
			return nil, err
		}
		return &domain.Principal{
			ID:      admin.ID,
			Kind:    domain.PartyAdmin,
			Role:    admin.Role,
			Email:   admin.Email,
			Active:  admin.IsActive,
			Deleted: admin.IsDeleted,
		}, nil
	default:
		return nil, util.ErrUnauthenticated
	}
}

// Login checks an email/password pair for the given principal kind and
// issues a token. Unknown email and wrong password are indistinguishable.
func (g *Gate) Login(ctx context.Context, kind domain.PartyKind, email, password string) (string, time.Time, *domain.Principal, error) {
	var (
		principal *domain.Principal
		digest    string
	)
	switch kind {
	case domain.PartyUser:
		account, err := g.accounts.GetByEmail(ctx, g.db, strings.TrimSpace(email))
		if err != nil {
			return "", time.Time{}, nil, uniformAuthError(err)
		}
		digest = account.PasswordHash
		principal = &domain.Principal{ID: account.ID, Kind: kind, Role: domain.RoleUser, Email: account.Email,
			Active: account.IsActive, Deleted: account.IsDeleted}
	case domain.PartyAdmin:
		admin, err := g.admins.GetByEmail(ctx, g.db, strings.TrimSpace(email))
		if err != nil {
			return "", time.Time{}, nil, uniformAuthError(err)
		}
		digest = admin.PasswordHash
		principal = &domain.Principal{ID: admin.ID, Kind: kind, Role: admin.Role, Email: admin.Email,
			Active: admin.IsActive, Deleted: admin.IsDeleted}
	default:
		return "", time.Time{}, nil, util.ErrUnauthenticated
	}

	if !VerifySecret(password, digest) || !principal.Active || principal.Deleted {
		return "", time.Time{}, nil, util.ErrUnauthenticated
	}

	token, expires, err := g.tokens.Issue(principal.ID, principal.Kind, principal.Role)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, expires, principal, nil
}

func uniformAuthError(err error) error {
	if util.IsError(err, util.ErrNotFound) {
		return util.ErrUnauthenticated
	}
	return err
}

// CheckPIN verifies a transaction PIN against digest, subject to the
// attempt limiter. subject identifies the secret being guessed.
func (g *Gate) CheckPIN(ctx context.Context, subject, supplied string, digest *string) error {
	if supplied == "" {
		return util.ErrPinRequired
	}
	if digest == nil || *digest == "" {
		return util.ErrPinNotSet
	}

	allowed, err := g.limiter.Acquire(ctx, subject)
	if err != nil {
		g.logger.Warn("PIN limiter unavailable, continuing without lockout", "error", err)
		allowed = true
	}
	if !allowed {
		return util.ErrTooManyAttempts
	}

	if !VerifySecret(supplied, *digest) {
		return util.ErrInvalidPin
	}

	if err := g.limiter.Reset(ctx, subject); err != nil {
		g.logger.Warn("Failed to reset PIN attempts", "error", err)
	}
	return nil
}

// AuthorizeRole enforces the role hierarchy user < admin < superadmin.
func AuthorizeRole(p *domain.Principal, required domain.Role) error {
	if p == nil {
		return util.ErrUnauthenticated
	}
	if !p.Role.AtLeast(required) {
		return fmt.Errorf("%w: requires role %s", util.ErrForbidden, required)
	}
	return nil
}

// GuardSelfAction rejects an actor targeting itself.
func GuardSelfAction(actor *domain.Principal, targetID uuid.UUID) error {
	if actor != nil && actor.ID == targetID {
		return util.ErrSelfAction
	}
	return nil
}

// CanReactivate applies the deactivation provenance rule: a superadmin may
// reactivate anyone; an admin only users it deactivated itself while acting
// as an ordinary admin.
func CanReactivate(actor *domain.Principal, target *domain.Account) bool {
	if actor == nil || target == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleAdmin:
		if target.DeactivatedByRole == nil || *target.DeactivatedByRole != domain.RoleAdmin {
			return false
		}
		return target.DeactivatedBy != nil && *target.DeactivatedBy == actor.ID
	default:
		return false
	}
}

// AuthorizeReactivation is CanReactivate as an error.
func AuthorizeReactivation(actor *domain.Principal, target *domain.Account) error {
	if !CanReactivate(actor, target) {
		return fmt.Errorf("%w: only the deactivating admin or a superadmin may reactivate this account", util.ErrForbidden)
	}
	return nil
}

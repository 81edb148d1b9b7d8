// internal/domain/admin.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdminWallet is an administrative actor with a single wallet balance.
type AdminWallet struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Username      string          `db:"username" json:"username"`
	Email         string          `db:"email" json:"email"`
	PasswordHash  string          `db:"password_hash" json:"-"`
	Role          Role            `db:"role" json:"role"`
	Wallet        decimal.Decimal `db:"wallet" json:"wallet"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	DeactivatedBy *uuid.UUID      `db:"deactivated_by" json:"deactivated_by,omitempty"`
	IsDeleted     bool            `db:"is_deleted" json:"is_deleted"`
	DeletedBy     *uuid.UUID      `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletedAt     *time.Time      `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// NewAdminWallet creates an active admin with a zero wallet.
func NewAdminWallet(username, email, passwordHash string, role Role) *AdminWallet {
	now := time.Now().UTC()
	return &AdminWallet{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Wallet:       decimal.Zero,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

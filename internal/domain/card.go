// internal/domain/card.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the approval state of a card application.
type CardStatus string

const (
	CardPending  CardStatus = "pending"
	CardApproved CardStatus = "approved"
	CardRejected CardStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s CardStatus) Valid() bool {
	return s == CardPending || s == CardApproved || s == CardRejected
}

// CardType is the card network.
type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
)

// Card is a user's card with its own balance, separate from account buckets.
type Card struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	HolderName      string          `db:"holder_name" json:"holder_name"`
	CardType        CardType        `db:"card_type" json:"card_type"`
	CardNumber      string          `db:"card_number" json:"card_number"`
	ExpiryDate      string          `db:"expiry_date" json:"expiry_date"`
	PinHash         string          `db:"pin_hash" json:"-"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`
	Status          CardStatus      `db:"status" json:"status"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	IsDeleted       bool            `db:"is_deleted" json:"-"`
	DeletedAt       *time.Time      `db:"deleted_at" json:"-"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
	ApprovedBy      *uuid.UUID      `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Eligible reports whether the card may send or receive funds.
func (c *Card) Eligible() bool {
	return c.Status == CardApproved && c.IsActive && !c.IsDeleted
}

// Blocks reports whether this card prevents its owner from applying again.
// Only rejected applications leave room for a fresh one.
func (c *Card) Blocks() bool {
	return c.Status != CardRejected && !c.IsDeleted
}

// MaskedNumber shows only the last four digits.
func (c *Card) MaskedNumber() string {
	if len(c.CardNumber) <= 4 {
		return c.CardNumber
	}
	masked := make([]byte, len(c.CardNumber))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(masked)-4:], c.CardNumber[len(c.CardNumber)-4:])
	return string(masked)
}

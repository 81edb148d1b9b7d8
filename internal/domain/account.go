// internal/domain/account.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyKind identifies which store a balance lives in.
type PartyKind string

const (
	PartyUser  PartyKind = "user"
	PartyAdmin PartyKind = "admin"
	PartyCard  PartyKind = "card"
)

// Bucket is a named balance. Accounts hold savings/current/loan, admin
// wallets hold wallet and cards hold card.
type Bucket string

const (
	BucketSavings Bucket = "savings"
	BucketCurrent Bucket = "current"
	BucketLoan    Bucket = "loan"
	BucketWallet  Bucket = "wallet"
	BucketCard    Bucket = "card"
)

// AllowsBucket reports whether bucket exists for parties of kind k.
func (k PartyKind) AllowsBucket(b Bucket) bool {
	switch k {
	case PartyUser:
		return b == BucketSavings || b == BucketCurrent || b == BucketLoan
	case PartyAdmin:
		return b == BucketWallet
	case PartyCard:
		return b == BucketCard
	default:
		return false
	}
}

// IsTransferBucket reports whether users may move money in or out of b
// directly (peer transfers and card-to-account).
func IsTransferBucket(b Bucket) bool {
	return b == BucketSavings || b == BucketCurrent
}

// IsCardFundSource reports whether b may fund a card.
func IsCardFundSource(b Bucket) bool {
	return b == BucketSavings || b == BucketCurrent || b == BucketLoan
}

// Account is a user's identity plus balance buckets and lifecycle state.
type Account struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	Fullname             string          `db:"fullname" json:"fullname"`
	Email                string          `db:"email" json:"email"`
	Phone                string          `db:"phone" json:"phone"`
	PasswordHash         string          `db:"password_hash" json:"-"`
	SavingsAccountNumber string          `db:"savings_account_number" json:"savings_account_number"`
	CurrentAccountNumber string          `db:"current_account_number" json:"current_account_number"`
	Savings              decimal.Decimal `db:"savings" json:"savings"`
	Current              decimal.Decimal `db:"current" json:"current"`
	Loan                 decimal.Decimal `db:"loan" json:"loan"`
	Inflow               decimal.Decimal `db:"inflow" json:"inflow"`
	Outflow              decimal.Decimal `db:"outflow" json:"outflow"`
	TransactionPinHash   *string         `db:"transaction_pin_hash" json:"-"`

	IsActive          bool       `db:"is_active" json:"is_active"`
	DeactivatedBy     *uuid.UUID `db:"deactivated_by" json:"deactivated_by,omitempty"`
	DeactivatedByRole *Role      `db:"deactivated_by_role" json:"deactivated_by_role,omitempty"`
	DeactivatedAt     *time.Time `db:"deactivated_at" json:"deactivated_at,omitempty"`
	ReactivatedBy     *uuid.UUID `db:"reactivated_by" json:"reactivated_by,omitempty"`
	ReactivatedAt     *time.Time `db:"reactivated_at" json:"reactivated_at,omitempty"`
	IsDeleted         bool       `db:"is_deleted" json:"is_deleted"`
	DeletedBy         *uuid.UUID `db:"deleted_by" json:"deleted_by,omitempty"`
	DeletedByRole     *Role      `db:"deleted_by_role" json:"deleted_by_role,omitempty"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewAccount creates an active account with zero balances.
func NewAccount(fullname, email, phone, passwordHash, savingsNumber, currentNumber string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:                   uuid.New(),
		Fullname:             fullname,
		Email:                email,
		Phone:                phone,
		PasswordHash:         passwordHash,
		SavingsAccountNumber: savingsNumber,
		CurrentAccountNumber: currentNumber,
		Savings:              decimal.Zero,
		Current:              decimal.Zero,
		Loan:                 decimal.Zero,
		Inflow:               decimal.Zero,
		Outflow:              decimal.Zero,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Balance returns the amount held in bucket b.
func (a *Account) Balance(b Bucket) (decimal.Decimal, bool) {
	switch b {
	case BucketSavings:
		return a.Savings, true
	case BucketCurrent:
		return a.Current, true
	case BucketLoan:
		return a.Loan, true
	default:
		return decimal.Zero, false
	}
}

// HasPin reports whether a transaction PIN digest is stored.
func (a *Account) HasPin() bool {
	return a.TransactionPinHash != nil && *a.TransactionPinHash != ""
}

// AccountState is the lifecycle position of an account.
type AccountState string

const (
	StateActive      AccountState = "active"
	StateDeactivated AccountState = "deactivated"
	StateDeleted     AccountState = "deleted"
)

// State derives the lifecycle state from the stored flags.
func (a *Account) State() AccountState {
	switch {
	case a.IsDeleted:
		return StateDeleted
	case !a.IsActive:
		return StateDeactivated
	default:
		return StateActive
	}
}

// BucketOwnedBy resolves which bucket an account number refers to.
func (a *Account) BucketOwnedBy(accountNumber string) (Bucket, bool) {
	switch accountNumber {
	case a.SavingsAccountNumber:
		return BucketSavings, true
	case a.CurrentAccountNumber:
		return BucketCurrent, true
	default:
		return "", false
	}
}

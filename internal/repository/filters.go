// internal/repository/filters.go
package repository

import (
	"github.com/google/uuid"

	"valley-ledger/internal/domain"
)

// Zero-valued fields in a filter match everything.

// TransactionFilter narrows the admin transaction listing and stats.
type TransactionFilter struct {
	OwnerID     *uuid.UUID
	Status      domain.TransactionStatus
	Direction   domain.Direction
	AccountType domain.Bucket
}

// AccountFilter narrows the admin user listing. Soft-deleted accounts are
// never listed.
type AccountFilter struct {
	Active *bool
}

// CardFilter narrows the admin card listing. Soft-deleted cards are never
// listed.
type CardFilter struct {
	Status   domain.CardStatus
	Active   *bool
	CardType domain.CardType
}

// LoanFilter narrows loan application listings.
type LoanFilter struct {
	UserID *uuid.UUID
	Status domain.LoanStatus
}

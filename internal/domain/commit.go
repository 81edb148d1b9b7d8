// internal/domain/commit.go
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Posting is one side of a money movement against a single bucket.
type Posting struct {
	Party       PartyKind
	PartyID     uuid.UUID // account, admin or card id
	OwnerID     uuid.UUID // party the leg is recorded against; the card owner for cards
	Bucket      Bucket
	Description string
}

// OwnerKind is the owner kind recorded on the leg. Card legs belong to the user.
func (p *Posting) OwnerKind() PartyKind {
	if p.Party == PartyAdmin {
		return PartyAdmin
	}
	return PartyUser
}

// SameParty reports whether p and o name the same balance holder.
func (p *Posting) SameParty(o *Posting) bool {
	return p != nil && o != nil && p.Party == o.Party && p.PartyID == o.PartyID
}

// CommitUnit groups every write of one money movement: the debit, the
// credit and one leg per posting, all sharing CorrelationID. Either side
// may be nil for one-legged movements (external funding, card purchase).
type CommitUnit struct {
	CorrelationID string
	Amount        decimal.Decimal
	Debit         *Posting
	Credit        *Posting
	Status        TransactionStatus
}

// CommitResult is what a committed unit produced.
type CommitResult struct {
	CorrelationID string
	Legs          []*Transaction
	DebitBalance  decimal.Decimal // debit bucket after the commit
	CreditBalance decimal.Decimal // credit bucket after the commit
}

// Leg returns the leg with direction d, or nil.
func (r *CommitResult) Leg(d Direction) *Transaction {
	for _, leg := range r.Legs {
		if leg.Direction == d {
			return leg
		}
	}
	return nil
}

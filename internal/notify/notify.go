// internal/notify/notify.go
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"valley-ledger/internal/domain"
)

// Kind tells the recipient whether money arrived or left, or which way a
// loan review went.
type Kind string

const (
	KindCredit       Kind = "credit"
	KindDebit        Kind = "debit"
	KindLoanApproved Kind = "loan_approved"
	KindLoanRejected Kind = "loan_rejected"
)

// Event is one balance alert for one recipient.
type Event struct {
	RecipientID      uuid.UUID        `json:"recipient_id"`
	RecipientKind    domain.PartyKind `json:"recipient_kind"`
	Kind             Kind             `json:"kind"`
	Amount           decimal.Decimal  `json:"amount"`
	ResultingBalance decimal.Decimal  `json:"resulting_balance"`
	Bucket           domain.Bucket    `json:"bucket"`
	Description      string           `json:"description"`
	CorrelationID    string           `json:"correlation_id"`
	OccurredAt       time.Time        `json:"occurred_at"`
}

// Sink delivers events somewhere outside the ledger.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// FromLegs turns committed legs into one event per leg.
func FromLegs(legs []*domain.Transaction) []Event {
	events := make([]Event, 0, len(legs))
	for _, leg := range legs {
		kind := KindCredit
		if leg.Direction == domain.DirectionOutflow {
			kind = KindDebit
		}
		events = append(events, Event{
			RecipientID:      leg.OwnerID,
			RecipientKind:    leg.OwnerKind,
			Kind:             kind,
			Amount:           leg.Amount,
			ResultingBalance: leg.BalanceAfter,
			Bucket:           leg.AccountType,
			Description:      leg.Description,
			CorrelationID:    leg.CorrelationID,
			OccurredAt:       leg.CreatedAt,
		})
	}
	return events
}

// FromLoanReview turns a reviewed application into an event for its
// applicant. No balance moved, so ResultingBalance stays zero.
func FromLoanReview(loan *domain.LoanApplication) Event {
	kind := KindLoanRejected
	if loan.Status == domain.LoanApproved {
		kind = KindLoanApproved
	}
	event := Event{
		RecipientID:   loan.UserID,
		RecipientKind: domain.PartyUser,
		Kind:          kind,
		Amount:        loan.Amount,
		Bucket:        domain.BucketLoan,
		CorrelationID: "loan:" + loan.ID.String(),
		OccurredAt:    loan.UpdatedAt,
	}
	if loan.AdminMessage != nil {
		event.Description = *loan.AdminMessage
	}
	return event
}

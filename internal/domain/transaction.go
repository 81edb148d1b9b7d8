// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a leg.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// TransactionStatus tags a leg for later reconciliation.
type TransactionStatus string

const (
	TransactionStatusCompleted     TransactionStatus = "completed"
	TransactionStatusPendingReview TransactionStatus = "pending_review"
	TransactionStatusFailed        TransactionStatus = "failed"
	TransactionStatusCancelled     TransactionStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusPendingReview,
		TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// Transaction is one immutable leg of a money movement.
type Transaction struct {
	ID            int64             `db:"id" json:"id"` // BIGSERIAL
	OwnerID       uuid.UUID         `db:"owner_id" json:"owner_id"`
	OwnerKind     PartyKind         `db:"owner_kind" json:"owner_kind"`
	Direction     Direction         `db:"direction" json:"direction"`
	Amount        decimal.Decimal   `db:"amount" json:"amount"`
	Description   string            `db:"description" json:"description"`
	AccountType   Bucket            `db:"account_type" json:"account_type"`
	BalanceAfter  decimal.Decimal   `db:"balance_after" json:"balance_after"`
	CorrelationID string            `db:"correlation_id" json:"correlation_id"`
	Status        TransactionStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
}

// TransactionStats aggregates legs for the admin dashboard.
type TransactionStats struct {
	Total           int64                       `json:"total"`
	ByStatus        map[TransactionStatus]int64 `json:"by_status"`
	ByDirection     map[Direction]int64         `json:"by_direction"`
	TotalAmount     decimal.Decimal             `json:"total_amount"`
	CompletedAmount decimal.Decimal             `json:"completed_amount"`
	PendingAmount   decimal.Decimal             `json:"pending_amount"`
	Inflow          decimal.Decimal             `json:"inflow"`
	Outflow         decimal.Decimal             `json:"outflow"`
}

// NewTransactionStats returns empty stats.
func NewTransactionStats() *TransactionStats {
	return &TransactionStats{
		ByStatus:    map[TransactionStatus]int64{},
		ByDirection: map[Direction]int64{},
	}
}

// Add folds count legs with the given status and direction, summing to amount.
func (s *TransactionStats) Add(status TransactionStatus, direction Direction, count int64, amount decimal.Decimal) {
	s.Total += count
	s.ByStatus[status] += count
	s.ByDirection[direction] += count
	s.TotalAmount = s.TotalAmount.Add(amount)
	switch status {
	case TransactionStatusCompleted:
		s.CompletedAmount = s.CompletedAmount.Add(amount)
	case TransactionStatusPendingReview:
		s.PendingAmount = s.PendingAmount.Add(amount)
	}
	if direction == DirectionInflow {
		s.Inflow = s.Inflow.Add(amount)
	} else {
		s.Outflow = s.Outflow.Add(amount)
	}
}

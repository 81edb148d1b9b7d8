// internal/domain/loan.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the review state of a loan application.
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s LoanStatus) Valid() bool {
	return s == LoanPending || s == LoanApproved || s == LoanRejected
}

// LoanDecision is an admin's verdict on a pending application.
type LoanDecision string

const (
	LoanApprove LoanDecision = "approve"
	LoanReject  LoanDecision = "reject"
)

// Status returns the application status the decision leads to, and false for
// an unknown decision.
func (d LoanDecision) Status() (LoanStatus, bool) {
	switch d {
	case LoanApprove:
		return LoanApproved, true
	case LoanReject:
		return LoanRejected, true
	}
	return "", false
}

// LoanApplication is a customer's request for a loan. Reviewing it moves no
// money; disbursement is a separate wallet funding into the loan bucket.
type LoanApplication struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	LoanType       string          `db:"loan_type" json:"loan_type"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	ApplicantName  string          `db:"applicant_name" json:"applicant_name"`
	ApplicantEmail string          `db:"applicant_email" json:"applicant_email"`
	ApplicantPhone string          `db:"applicant_phone" json:"applicant_phone"`
	AnnualIncome   decimal.Decimal `db:"annual_income" json:"annual_income"`
	Purpose        string          `db:"purpose" json:"purpose"`
	Status         LoanStatus      `db:"status" json:"status"`
	AdminMessage   *string         `db:"admin_message" json:"admin_message,omitempty"`
	ReviewedBy     *uuid.UUID      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewLoanApplication creates a pending application for userID.
func NewLoanApplication(userID uuid.UUID, loanType string, amount decimal.Decimal) *LoanApplication {
	now := time.Now().UTC()
	return &LoanApplication{
		ID:        uuid.New(),
		UserID:    userID,
		LoanType:  loanType,
		Amount:    NormalizeAmount(amount),
		Status:    LoanPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

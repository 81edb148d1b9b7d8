// internal/repository/postgres/loan_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"valley-ledger/internal/domain"
	"valley-ledger/internal/repository"
	"valley-ledger/internal/util"
)

const loanColumns = `id, user_id, loan_type, amount, applicant_name, applicant_email, applicant_phone,
	annual_income, purpose, status, admin_message, reviewed_by, reviewed_at, created_at, updated_at`

// LoanRepository implements repository.LoanRepository for PostgreSQL.
type LoanRepository struct{}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository() repository.LoanRepository {
	return &LoanRepository{}
}

// Create inserts a new application.
func (r *LoanRepository) Create(ctx context.Context, q repository.DBExecutor, l *domain.LoanApplication) error {
	query := `INSERT INTO loan_applications (id, user_id, loan_type, amount, applicant_name, applicant_email,
              applicant_phone, annual_income, purpose, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := q.ExecContext(ctx, query, l.ID, l.UserID, l.LoanType, l.Amount, l.ApplicantName, l.ApplicantEmail,
		l.ApplicantPhone, l.AnnualIncome, l.Purpose, l.Status, l.CreatedAt, l.UpdatedAt)
	return mapError(err, nil, "failed to create loan application")
}

// GetByID retrieves an application by ID.
func (r *LoanRepository) GetByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.LoanApplication, error) {
	var l domain.LoanApplication
	if err := q.GetContext(ctx, &l, `SELECT `+loanColumns+` FROM loan_applications WHERE id = $1`, id); err != nil {
		return nil, mapError(err, util.ErrLoanNotFound, "failed to get loan application %s", id)
	}
	return &l, nil
}

// List returns applications matching filter, newest first.
func (r *LoanRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.LoanFilter, limit, offset int) ([]domain.LoanApplication, int64, error) {
	c := &conditions{}
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != "" {
		c.add("status = $%d", filter.Status)
	}
	suffix, args := c.page(limit, offset)
	loans := []domain.LoanApplication{}
	query := `SELECT ` + loanColumns + ` FROM loan_applications` + c.where() + ` ORDER BY created_at DESC` + suffix
	if err := q.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to list loan applications")
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM loan_applications`+c.where(), c.args...); err != nil {
		return nil, 0, mapError(err, nil, "failed to count loan applications")
	}
	return loans, total, nil
}

// Review records the verdict on a pending application.
func (r *LoanRepository) Review(ctx context.Context, q repository.DBExecutor, id uuid.UUID, status domain.LoanStatus, message string, reviewerID uuid.UUID, at time.Time) error {
	query := `UPDATE loan_applications SET status = $2, admin_message = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5
              WHERE id = $1 AND status = 'pending'`
	result, err := q.ExecContext(ctx, query, id, status, message, reviewerID, at)
	if err != nil {
		return mapError(err, nil, "failed to review loan application %s", id)
	}
	if err := expectOneRow(result, util.ErrInvalidState); err != nil {
		if _, gerr := r.GetByID(ctx, q, id); gerr != nil {
			return gerr
		}
		return fmt.Errorf("review loan application %s: %w", id, err)
	}
	return nil
}

// internal/repository/postgres/errors.go
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"valley-ledger/internal/util"
)

const (
	pqNumericOutOfRange    = "22003"
	pqUniqueViolation      = "23505"
	pqCheckViolation       = "23514"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// mapError translates driver errors into the application taxonomy.
// sql.ErrNoRows becomes notFound when one is given.
func mapError(err error, notFound error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)

	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return fmt.Errorf("%s: %w", msg, notFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", msg, util.ErrAlreadyExists, pqErr.Constraint)
		case pqNumericOutOfRange:
			return fmt.Errorf("%s: %w", msg, util.ErrInvalidAmount)
		case pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%s: %w", msg, util.ErrConflict)
		case pqCheckViolation:
			if strings.Contains(pqErr.Constraint, "amount") {
				return fmt.Errorf("%s: %w", msg, util.ErrInvalidAmount)
			}
			return fmt.Errorf("%s: %w", msg, util.ErrInsufficientFunds)
		}
	}

	return fmt.Errorf("%s: %w: %w", msg, util.ErrStorage, err)
}

// expectOneRow turns a zero-row update into err.
func expectOneRow(result sql.Result, err error) error {
	affected, rerr := result.RowsAffected()
	if rerr != nil {
		return fmt.Errorf("%w: %w", util.ErrStorage, rerr)
	}
	if affected == 0 {
		return err
	}
	return nil
}

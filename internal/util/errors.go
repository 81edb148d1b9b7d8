// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors. Refinements wrap their parent so
// errors.Is matches both the specific and the general sentinel.
var (
	ErrInvalidInput    = errors.New("invalid input provided")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("concurrent modification, retry the operation")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrStorage         = errors.New("storage failure")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCardNotEligible   = errors.New("card is not approved and active")
	ErrTooManyAttempts   = errors.New("too many failed attempts, try again later")

	ErrInvalidAmount    = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	ErrInvalidBucket    = fmt.Errorf("%w: unknown balance bucket", ErrInvalidInput)
	ErrPinRequired      = fmt.Errorf("%w: transaction pin is required", ErrInvalidInput)
	ErrPinNotSet        = fmt.Errorf("%w: transaction pin has not been set", ErrInvalidInput)
	ErrInvalidPinFormat = fmt.Errorf("%w: pin must be exactly 4 digits", ErrInvalidInput)
	ErrSuperAdminWallet = fmt.Errorf("%w: cannot fund superadmin wallet", ErrInvalidInput)
	ErrSelfTransfer     = fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidInput)
	ErrInvalidState     = fmt.Errorf("%w: operation not allowed in current state", ErrInvalidInput)

	ErrInvalidPin = fmt.Errorf("%w: pin mismatch", ErrUnauthenticated)
	ErrSelfAction = fmt.Errorf("%w: cannot perform this action on yourself", ErrForbidden)

	ErrPartyNotFound       = fmt.Errorf("%w: account not found", ErrNotFound)
	ErrCardNotFound        = fmt.Errorf("%w: card not found", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", ErrNotFound)
	ErrLoanNotFound        = fmt.Errorf("%w: loan application not found", ErrNotFound)
)

// Kind is the coarse error class callers use to decide presentation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInsufficientFunds
	KindCardNotEligible
	KindConflict
	KindTooManyAttempts
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindCardNotEligible:
		return "card_not_eligible"
	case KindConflict:
		return "conflict"
	case KindTooManyAttempts:
		return "too_many_attempts"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrCardNotEligible):
		return KindCardNotEligible
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrTooManyAttempts):
		return KindTooManyAttempts
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}

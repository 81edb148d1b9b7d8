// internal/domain/money.go
package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept for every amount.
const MoneyPlaces = 2

// MaxAmount is the largest value a NUMERIC(20, 2) balance column can hold.
var MaxAmount = decimal.RequireFromString("999999999999999999.99")

// NormalizeAmount rounds a client-supplied amount to cents, half away from zero.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// ValidAmount reports whether amount is strictly positive after normalization
// and fits a balance column.
func ValidAmount(amount decimal.Decimal) bool {
	n := NormalizeAmount(amount)
	return n.IsPositive() && n.LessThanOrEqual(MaxAmount)
}

// internal/domain/money_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0.01", true},
		{"30.00", true},
		{"0.004", false},
		{"0.005", true},
		{"0", false},
		{"-1.00", false},
		{"999999999999999999.99", true},
		{"1000000000000000000.00", false},
		{"99999999999999999999999", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

// internal/idgen/idgen.go
package idgen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// AccountNumberLength is the fixed length of generated account numbers.
const AccountNumberLength = 10

// CardNumberLength is the fixed length of generated card numbers.
const CardNumberLength = 16

const defaultMaxAttempts = 10

// ErrExhausted means every candidate collided with an existing value.
var ErrExhausted = errors.New("could not generate a unique number")

// CorrelationID returns a time-ordered UUIDv7 string.
func CorrelationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ExistsFunc reports whether a candidate is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// NumberGenerator produces fixed-length numeric strings checked against
// existing values before use.
type NumberGenerator struct {
	length      int
	prefix      string
	maxAttempts int
	source      io.Reader
}

// NewNumberGenerator creates a generator. prefix counts toward length.
func NewNumberGenerator(length int, prefix string) *NumberGenerator {
	return &NumberGenerator{length: length, prefix: prefix, maxAttempts: defaultMaxAttempts, source: rand.Reader}
}

// NewAccountNumberGenerator returns the 10-digit account number generator.
func NewAccountNumberGenerator() *NumberGenerator {
	return NewNumberGenerator(AccountNumberLength, "")
}

// NewCardNumberGenerator returns the 16-digit card number generator.
func NewCardNumberGenerator() *NumberGenerator {
	return NewNumberGenerator(CardNumberLength, "4")
}

// Next returns a candidate that exists reports as free and that is not in
// reserved. reserved covers numbers handed out but not yet persisted.
func (g *NumberGenerator) Next(ctx context.Context, exists ExistsFunc, reserved ...string) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := g.digits(g.length - len(g.prefix))
		if err != nil {
			return "", err
		}
		candidate = g.prefix + candidate
		if contains(reserved, candidate) {
			continue
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check number uniqueness: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// digits draws n uniformly distributed decimal digits. Bytes >= 250 are
// discarded so every digit is equally likely.
func (g *NumberGenerator) digits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// internal/auth/secret.go
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a password or PIN with bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret compares supplied against a bcrypt digest. A mismatch, an
// empty digest and a malformed digest all return false.
func VerifySecret(supplied, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(supplied)) == nil
}

// ValidPinFormat reports whether pin is exactly four ASCII digits.
func ValidPinFormat(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

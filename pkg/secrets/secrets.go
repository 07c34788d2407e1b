// Package secrets generates random secrets and hashes passwords with bcrypt.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "estatehub/pkg/domain-errors"
)

// MinPasswordLength is the shortest password Hash accepts.
const MinPasswordLength = 8

// Generate creates a cryptographically secure random secret, base64url encoded.
// Used for token signing keys.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of password at the default cost.
func Hash(password string) (string, error) {
	return HashWithCost(password, bcrypt.DefaultCost)
}

// HashWithCost is Hash with an explicit bcrypt cost. Tests use bcrypt.MinCost.
func HashWithCost(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", dErrors.Validation("invalid password", map[string]string{
			"password": "must be at least 8 characters",
		})
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.Validation("invalid password", map[string]string{
				"password": "must be at most 72 bytes",
			})
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a bcrypt hash.
func Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify password")
	}
	return nil
}

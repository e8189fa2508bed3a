// Package password hashes and validates user passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a salted bcrypt hash of password at the default cost.
func HashPassword(password string) ([]byte, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

// HashPasswordWithCost hashes password with a custom bcrypt cost.
func HashPasswordWithCost(password string, cost int) ([]byte, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d, must be between %d and %d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt hash failed: %w", err)
	}
	return hashed, nil
}

// IsValid reports whether password matches hashed.
func IsValid(hashed []byte, password string) bool {
	return Compare(hashed, password) == nil
}

// Compare is like IsValid but reports why a comparison failed. A wrong password yields ErrMismatch.
func Compare(hashed []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hashed, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// ErrMismatch is returned by Compare when the password does not match the hash.
var ErrMismatch = errors.New("password does not match hash")

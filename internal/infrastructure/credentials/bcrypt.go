// Package credentials verifies account secrets against bcrypt hashes.
package credentials

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks secrets against bcrypt hashes and flags hashes created
// with a lower cost than the configured one.
type Verifier struct {
	cost int
}

// NewVerifier returns a Verifier hashing with cost. Costs outside bcrypt's
// range fall back to bcrypt.DefaultCost.
func NewVerifier(cost int) *Verifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Verifier{cost: cost}
}

func (v *Verifier) Verify(storedHash, candidate string) (bool, bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate))
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, false, nil
	case err != nil:
		return false, false, fmt.Errorf("verify secret: %w", err)
	}

	cost, err := bcrypt.Cost([]byte(storedHash))
	if err != nil {
		return true, false, nil
	}
	return true, cost < v.cost, nil
}

func (v *Verifier) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

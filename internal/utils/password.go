// Package utils holds small helpers shared by the service layer.
package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and checks passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.  It also
// prepares a throwaway hash so that checking an unknown account costs as
// much as checking a real one.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("placenote-dummy-password"), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

// Hash returns the bcrypt hash of plain.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches hash.  Malformed hashes never match.
func (h *PasswordHasher) Verify(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// Burn performs a comparison against the dummy hash and discards the result.
func (h *PasswordHasher) Burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}

// IsTooLong reports whether plain exceeds bcrypt's 72 byte input limit.
func IsTooLong(plain string) bool {
	_, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	return errors.Is(err, bcrypt.ErrPasswordTooLong)
}

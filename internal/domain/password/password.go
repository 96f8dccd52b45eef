// Package password wraps the one-way password hashing used for credentials.
// Clear text never leaves this package: the rest of the application only sees
// Hashed values.
package password

import (
	"errors"

	"github.com/mdobak/go-xerrors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword = xerrors.Message("password must not be empty")
	ErrMalformedHash = xerrors.Message("malformed password hash")
)

const defaultCost = 12

var cost = defaultCost

// SetCost tunes the bcrypt work factor. Intended to be called once at
// startup; values outside the bcrypt range fall back to the default.
func SetCost(c int) {
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		c = defaultCost
	}
	cost = c
}

// Hashed is a bcrypt hash of a clear-text password.
type Hashed []byte

// Hash derives a one-way hash from clearText.
func Hash(clearText string) (Hashed, error) {
	if clearText == "" {
		return nil, xerrors.New(ErrEmptyPassword)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(clearText), cost)
	if err != nil {
		return nil, xerrors.New(err)
	}

	return hashed, nil
}

// FromHash wraps an already-stored hash, e.g. one read back from the users
// table.
func FromHash(hash []byte) Hashed {
	return Hashed(hash)
}

// Verify reports whether candidate matches the stored hash. A mismatch is a
// plain false, not an error; a hash that bcrypt cannot parse yields
// ErrMalformedHash.
func (h Hashed) Verify(candidate string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(h, []byte(candidate))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, xerrors.New(ErrMalformedHash)
	}

	return true, nil
}

func (h Hashed) String() string {
	return string(h)
}

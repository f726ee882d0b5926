package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt at a fixed cost
type Hasher struct {
	cost int
	// dummy is compared against when the user does not exist so that unknown and
	// known usernames take the same time to reject
	dummy []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, bcrypt.InvalidCostError(cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("qcportal-dummy-password"), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. Any bcrypt failure other than a
// mismatch is returned as an error.
func (h *Hasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

func (h *Hasher) burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}

package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt is a bcrypt [Encoder]. Hashes written by Spring-style
// BCryptPasswordEncoder ($2a$) are accepted.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns an encoder at cost; zero selects bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: bcrypt cost %d out of range", cost)
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Encode(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b *Bcrypt) Matches(plain, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// Recognizes reports whether encoded carries a bcrypt version prefix.
func (b *Bcrypt) Recognizes(encoded string) bool {
	return hasPrefix(encoded, "$2a$", "$2b$", "$2y$")
}

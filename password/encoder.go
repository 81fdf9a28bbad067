package password

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyPassword is returned when asked to encode an empty password.
	ErrEmptyPassword = errors.New("password: empty password")
	// ErrUnsupportedEncoding is returned for an encoded hash no registered
	// algorithm recognises.
	ErrUnsupportedEncoding = errors.New("password: unsupported encoding")
)

// Encoder is a one-way password encoder.
type Encoder interface {
	Encode(plain string) (string, error)
	Matches(plain, encoded string) (bool, error)
}

// algorithm is an Encoder that can recognise its own output.
type algorithm interface {
	Encoder
	Recognizes(encoded string) bool
}

// Chain encodes with its primary algorithm and matches against whichever
// algorithm recognises the stored encoding.
type Chain struct {
	primary algorithm
	others  []algorithm
}

// NewChain returns an encoder writing primary and accepting primary or any of legacy.
func NewChain(primary *Argon2, legacy ...*Bcrypt) *Chain {
	c := &Chain{primary: primary}
	for _, b := range legacy {
		if b != nil {
			c.others = append(c.others, b)
		}
	}
	return c
}

func (c *Chain) Encode(plain string) (string, error) {
	return c.primary.Encode(plain)
}

func (c *Chain) Matches(plain, encoded string) (bool, error) {
	if c.primary.Recognizes(encoded) {
		return c.primary.Matches(plain, encoded)
	}
	for _, a := range c.others {
		if a.Recognizes(encoded) {
			return a.Matches(plain, encoded)
		}
	}
	return false, ErrUnsupportedEncoding
}

// NeedsUpgrade reports whether encoded was produced by a legacy algorithm or
// with weaker primary parameters.
func (c *Chain) NeedsUpgrade(encoded string) bool {
	if !c.primary.Recognizes(encoded) {
		return true
	}
	if a, ok := c.primary.(*Argon2); ok {
		upgrade, err := a.NeedsUpgrade(encoded)
		return err != nil || upgrade
	}
	return false
}

func hasPrefix(encoded string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}

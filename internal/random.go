package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// OTPDigits is the length of a password-reset one-time code.
const OTPDigits = 6

// NewOTP returns a uniformly random decimal code of the given length.
func NewOTP(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Fingerprint returns the hex SHA-256 of v. Stores keep fingerprints of
// bearer values rather than the values themselves.
func Fingerprint(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// FingerprintMatches compares a stored fingerprint against a presented value
// in constant time.
func FingerprintMatches(stored, presented string) bool {
	want := Fingerprint(presented)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(want)) == 1
}

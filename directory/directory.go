// Package directory defines the user directory the credential workflows read
// identity facts from, plus the user record they exchange with it.
package directory

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("directory: user not found")
	// ErrConflict is returned by Save when the email or username is taken.
	ErrConflict = errors.New("directory: email or username already taken")
	// ErrStale is returned by SetPasswordHash when the stored hash no longer
	// equals the expected one.
	ErrStale = errors.New("directory: password hash changed since read")
)

// DefaultRole is assigned to newly registered users.
const DefaultRole = "USER"

// User is the directory record. PasswordHash is an encoded hash, never a
// plaintext password.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	Role          string
	EmailVerified bool
	BirthYear     int
	CreatedAt     time.Time
}

// Directory is the external user store. Lookups by email and username expect
// already normalized input.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Save inserts u when u.ID is empty, assigning a fresh ID, and replaces
	// the stored record otherwise.
	Save(ctx context.Context, u User) (User, error)
	// MarkVerified sets the email-verified flag on id and returns the
	// stored record.
	MarkVerified(ctx context.Context, id string) (User, error)
	// SetPasswordHash replaces the password hash of id. A non-empty expected
	// makes the write conditional on the stored hash still being expected;
	// a mismatch returns ErrStale and changes nothing.
	SetPasswordHash(ctx context.Context, id, expected, hash string) (User, error)
}

var (
	idOnce    sync.Once
	idMu      sync.Mutex
	idEntropy *ulid.MonotonicEntropy
)

// NewID returns a lexicographically sortable ULID for t.
func NewID(t time.Time) string {
	idOnce.Do(func() {
		idEntropy = ulid.Monotonic(rand.Reader, 0)
	})
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), idEntropy).String()
}

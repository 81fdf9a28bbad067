package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key is absent or expired.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable wraps any backend failure or deadline overrun.
	ErrUnavailable = errors.New("kv: store unavailable")
)

// Store is the subset of key-value operations the credential workflows need.
// Implementations must be safe for concurrent use.
type Store interface {
	// Set writes value under key with the given time-to-live.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX writes value under key only when key is absent and reports
	// whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the value under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// CompareAndDelete removes key in one step when it holds value and
	// returns the lifetime the key had left. ok is false, and nothing
	// changes, when key is absent or holds anything else. Of several
	// concurrent callers presenting the same value at most one sees ok.
	CompareAndDelete(ctx context.Context, key, value string) (remaining time.Duration, ok bool, err error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Incr atomically increments the integer at key, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets a time-to-live on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of key, or zero when the key is
	// absent or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

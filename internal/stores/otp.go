package stores

import (
	"context"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
)

// OTPStore binds the current password-reset code per email.
type OTPStore struct {
	b binding
}

// NewOTPStore creates a store under prefix (default "forgot:password:otp:").
func NewOTPStore(store kv.Store, prefix string) *OTPStore {
	if prefix == "" {
		prefix = "forgot:password:otp:"
	}
	return &OTPStore{b: binding{store: store, prefix: prefix}}
}

// Save replaces any outstanding code for email.
func (s *OTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.b.put(ctx, email, code, ttl)
}

// Matches compares code with the outstanding one. An absent or expired code
// never matches.
func (s *OTPStore) Matches(ctx context.Context, email, code string) (bool, error) {
	return s.b.matches(ctx, email, code)
}

// Consume claims the outstanding code when it equals code and returns its
// remaining lifetime. A code is claimed at most once.
func (s *OTPStore) Consume(ctx context.Context, email, code string) (time.Duration, bool, error) {
	return s.b.consume(ctx, email, code)
}

// Restore re-binds a consumed code for remaining unless a newer code has
// been issued since.
func (s *OTPStore) Restore(ctx context.Context, email, code string, remaining time.Duration) error {
	return s.b.restore(ctx, email, code, remaining)
}

// Delete drops the outstanding code.
func (s *OTPStore) Delete(ctx context.Context, email string) error {
	return s.b.remove(ctx, email)
}

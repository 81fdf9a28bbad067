package stores

import (
	"context"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
)

const (
	// VerifyEmailPrefix keys verify-email bindings by subject.
	VerifyEmailPrefix = "verify:email:"
	// ResetPasswordPrefix keys reset-password bindings by email.
	ResetPasswordPrefix = "forgot:password:reset:"
)

// OneTimeTokenStore binds at most one outstanding single-use token per key.
// Issuing a new token supersedes the previous one. Callers claim the binding
// with Consume before applying the guarded side effect and Restore it when
// the side effect fails.
type OneTimeTokenStore struct {
	b binding
}

// NewOneTimeTokenStore creates a store under prefix.
func NewOneTimeTokenStore(store kv.Store, prefix string) *OneTimeTokenStore {
	return &OneTimeTokenStore{b: binding{store: store, prefix: prefix}}
}

// NewVerifyTokenStore returns the verify-email binding store.
func NewVerifyTokenStore(store kv.Store) *OneTimeTokenStore {
	return NewOneTimeTokenStore(store, VerifyEmailPrefix)
}

// NewResetTokenStore returns the reset-password binding store.
func NewResetTokenStore(store kv.Store) *OneTimeTokenStore {
	return NewOneTimeTokenStore(store, ResetPasswordPrefix)
}

// Bind makes token the outstanding token for id.
func (s *OneTimeTokenStore) Bind(ctx context.Context, id, token string, ttl time.Duration) error {
	return s.b.put(ctx, id, token, ttl)
}

// Matches reports whether token is the outstanding token for id.
func (s *OneTimeTokenStore) Matches(ctx context.Context, id, token string) (bool, error) {
	return s.b.matches(ctx, id, token)
}

// Consume claims the binding for id when token is the outstanding token and
// returns its remaining lifetime. A token is claimed at most once.
func (s *OneTimeTokenStore) Consume(ctx context.Context, id, token string) (time.Duration, bool, error) {
	return s.b.consume(ctx, id, token)
}

// Restore re-binds a consumed token for remaining unless a newer token has
// been bound for id since.
func (s *OneTimeTokenStore) Restore(ctx context.Context, id, token string, remaining time.Duration) error {
	return s.b.restore(ctx, id, token, remaining)
}

// Outstanding reports whether a token is currently bound for id.
func (s *OneTimeTokenStore) Outstanding(ctx context.Context, id string) (bool, error) {
	return s.b.present(ctx, id)
}

// Delete drops the binding for id.
func (s *OneTimeTokenStore) Delete(ctx context.Context, id string) error {
	return s.b.remove(ctx, id)
}

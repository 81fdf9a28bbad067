package stores

import (
	"context"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
)

// RefreshSessionStore keeps the single current refresh token per subject.
// Writing a new token replaces the previous one, which is how rotation
// invalidates superseded tokens.
type RefreshSessionStore struct {
	b binding
}

// NewRefreshSessionStore creates a store under prefix (default "refresh:").
func NewRefreshSessionStore(store kv.Store, prefix string) *RefreshSessionStore {
	if prefix == "" {
		prefix = "refresh:"
	}
	return &RefreshSessionStore{b: binding{store: store, prefix: prefix}}
}

// Bind makes token the current refresh token for subject.
func (s *RefreshSessionStore) Bind(ctx context.Context, subject, token string, ttl time.Duration) error {
	return s.b.put(ctx, subject, token, ttl)
}

// Matches reports whether token is the subject's current refresh token.
func (s *RefreshSessionStore) Matches(ctx context.Context, subject, token string) (bool, error) {
	return s.b.matches(ctx, subject, token)
}

// Active reports whether subject has any refresh session.
func (s *RefreshSessionStore) Active(ctx context.Context, subject string) (bool, error) {
	return s.b.present(ctx, subject)
}

// Delete drops the subject's refresh session.
func (s *RefreshSessionStore) Delete(ctx context.Context, subject string) error {
	return s.b.remove(ctx, subject)
}

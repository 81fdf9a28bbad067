package stores

import (
	"context"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
)

// RevocationRegistry records revoked access token identifiers until the
// tokens would have expired on their own.
type RevocationRegistry struct {
	store  kv.Store
	prefix string
}

// NewRevocationRegistry creates a registry under prefix (default "blacklist:access:").
func NewRevocationRegistry(store kv.Store, prefix string) *RevocationRegistry {
	if prefix == "" {
		prefix = "blacklist:access:"
	}
	return &RevocationRegistry{store: store, prefix: prefix}
}

// Revoke marks tokenID revoked for remaining. A token with no remaining
// lifetime is already unusable and nothing is written.
func (r *RevocationRegistry) Revoke(ctx context.Context, tokenID string, remaining time.Duration) error {
	if tokenID == "" || remaining <= 0 {
		return nil
	}
	if err := r.store.Set(ctx, r.prefix+tokenID, "1", remaining); err != nil {
		return unavailable(err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	ok, err := r.store.Exists(ctx, r.prefix+tokenID)
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

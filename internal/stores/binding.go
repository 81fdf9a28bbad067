package stores

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/credflow/internal"
	"github.com/MrEthical07/credflow/internal/kv"
)

// binding is a single fingerprinted value per key.
type binding struct {
	store  kv.Store
	prefix string
}

func (b binding) key(id string) string {
	return b.prefix + id
}

func (b binding) put(ctx context.Context, id, value string, ttl time.Duration) error {
	if err := b.store.Set(ctx, b.key(id), internal.Fingerprint(value), ttl); err != nil {
		return unavailable(err)
	}
	return nil
}

func (b binding) matches(ctx context.Context, id, presented string) (bool, error) {
	if id == "" || presented == "" {
		return false, nil
	}

	stored, err := b.store.Get(ctx, b.key(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, unavailable(err)
	}
	return internal.FingerprintMatches(stored, presented), nil
}

// consume deletes the binding for id when presented is the bound value. Of
// several concurrent callers presenting it, exactly one sees ok.
func (b binding) consume(ctx context.Context, id, presented string) (time.Duration, bool, error) {
	if id == "" || presented == "" {
		return 0, false, nil
	}
	remaining, ok, err := b.store.CompareAndDelete(ctx, b.key(id), internal.Fingerprint(presented))
	if err != nil {
		return 0, false, unavailable(err)
	}
	return remaining, ok, nil
}

// restore re-binds a consumed value for its remaining lifetime unless a
// newer value has been bound meanwhile.
func (b binding) restore(ctx context.Context, id, value string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	if _, err := b.store.SetNX(ctx, b.key(id), internal.Fingerprint(value), remaining); err != nil {
		return unavailable(err)
	}
	return nil
}

func (b binding) present(ctx context.Context, id string) (bool, error) {
	ok, err := b.store.Exists(ctx, b.key(id))
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (b binding) remove(ctx context.Context, id string) error {
	if err := b.store.Delete(ctx, b.key(id)); err != nil {
		return unavailable(err)
	}
	return nil
}

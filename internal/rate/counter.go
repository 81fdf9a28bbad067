package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("rate: store unavailable")

// Counter is a fixed-window event counter over a [kv.Store].
type Counter struct {
	store kv.Store
}

// NewCounter returns a Counter backed by store.
func NewCounter(store kv.Store) *Counter {
	return &Counter{store: store}
}

// Hit records one event under key and returns the count in the current
// window. The window opens on the first hit and lasts window.
func (c *Counter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.store.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if count == 1 {
		if err := c.store.Expire(ctx, key, window); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return count, nil
}

// Reset drops the counter under key.
func (c *Counter) Reset(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

package stores

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the key-value backend failed or timed out.
var ErrStoreUnavailable = errors.New("store unavailable")

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

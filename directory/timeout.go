package directory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a bounded directory call exceeds its deadline.
var ErrTimeout = errors.New("directory: call timed out")

type bounded struct {
	next    Directory
	timeout time.Duration
}

// WithTimeout bounds every call on d to timeout. A call that runs past the
// deadline returns an error wrapping ErrTimeout, so it can never be read as
// ErrNotFound.
func WithTimeout(d Directory, timeout time.Duration) Directory {
	if d == nil || timeout <= 0 {
		return d
	}
	return &bounded{next: d, timeout: timeout}
}

func (b *bounded) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (b *bounded) FindByEmail(ctx context.Context, email string) (u User, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		u, err = b.next.FindByEmail(ctx, email)
		return err
	})
	return u, err
}

func (b *bounded) FindByID(ctx context.Context, id string) (u User, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		u, err = b.next.FindByID(ctx, id)
		return err
	})
	return u, err
}

func (b *bounded) ExistsByEmail(ctx context.Context, email string) (ok bool, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		ok, err = b.next.ExistsByEmail(ctx, email)
		return err
	})
	return ok, err
}

func (b *bounded) ExistsByUsername(ctx context.Context, username string) (ok bool, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		ok, err = b.next.ExistsByUsername(ctx, username)
		return err
	})
	return ok, err
}

func (b *bounded) Save(ctx context.Context, u User) (saved User, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		saved, err = b.next.Save(ctx, u)
		return err
	})
	return saved, err
}

func (b *bounded) MarkVerified(ctx context.Context, id string) (u User, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		u, err = b.next.MarkVerified(ctx, id)
		return err
	})
	return u, err
}

func (b *bounded) SetPasswordHash(ctx context.Context, id, expected, hash string) (u User, err error) {
	err = b.call(ctx, func(ctx context.Context) error {
		u, err = b.next.SetPasswordHash(ctx, id, expected, hash)
		return err
	})
	return u, err
}

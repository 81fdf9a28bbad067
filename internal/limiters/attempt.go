package limiters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/credflow/internal/kv"
	"github.com/MrEthical07/credflow/internal/rate"
)

// ErrLimiterUnavailable indicates the limiter backend is unreachable.
var ErrLimiterUnavailable = errors.New("limiter backend unavailable")

// Config parameterizes an [AttemptLimiter].
type Config struct {
	// AttemptPrefix and BlockPrefix namespace the counter and lockout keys.
	AttemptPrefix string
	BlockPrefix   string
	MaxAttempts   int
	Window        time.Duration
	Lockout       time.Duration
}

// LoginConfig returns the login limiter policy.
func LoginConfig() Config {
	return Config{
		AttemptPrefix: "login:attempt:",
		BlockPrefix:   "login:block:",
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		Lockout:       15 * time.Minute,
	}
}

// OTPConfig returns the OTP verification limiter policy.
func OTPConfig() Config {
	return Config{
		AttemptPrefix: "otp:attempt:",
		BlockPrefix:   "otp:block:",
		MaxAttempts:   5,
		Window:        5 * time.Minute,
		Lockout:       15 * time.Minute,
	}
}

// Validate checks that the policy is usable.
func (c Config) Validate() error {
	if c.AttemptPrefix == "" || c.BlockPrefix == "" || c.AttemptPrefix == c.BlockPrefix {
		return errors.New("limiter: attempt and block prefixes must be distinct and non-empty")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("limiter: MaxAttempts must be > 0")
	}
	if c.Window <= 0 || c.Lockout <= 0 {
		return errors.New("limiter: Window and Lockout must be > 0")
	}
	return nil
}

// AttemptLimiter counts failures per identifier and flips to a lockout once
// the ceiling is reached.
type AttemptLimiter struct {
	store   kv.Store
	counter *rate.Counter
	config  Config
}

// NewAttemptLimiter creates a limiter over store with policy cfg.
func NewAttemptLimiter(store kv.Store, cfg Config) *AttemptLimiter {
	return &AttemptLimiter{
		store:   store,
		counter: rate.NewCounter(store),
		config:  cfg,
	}
}

// Config returns the limiter policy.
func (l *AttemptLimiter) Config() Config {
	if l == nil {
		return Config{}
	}
	return l.config
}

func (l *AttemptLimiter) attemptKey(id string) string { return l.config.AttemptPrefix + id }
func (l *AttemptLimiter) blockKey(id string) string   { return l.config.BlockPrefix + id }

// IsBlocked reports whether id is currently locked out.
func (l *AttemptLimiter) IsBlocked(ctx context.Context, id string) (bool, error) {
	if l == nil || id == "" {
		return false, nil
	}

	blocked, err := l.store.Exists(ctx, l.blockKey(id))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return blocked, nil
}

// RecordFailure counts one failure for id. It returns true when this failure
// reached the ceiling and the lockout flag was set.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, id string) (bool, error) {
	if l == nil || id == "" {
		return false, nil
	}

	count, err := l.counter.Hit(ctx, l.attemptKey(id), l.config.Window)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count < int64(l.config.MaxAttempts) {
		return false, nil
	}

	if err := l.store.Set(ctx, l.blockKey(id), "1", l.config.Lockout); err != nil {
		return false, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	// Counter and flag are not updated atomically together.
	if err := l.counter.Reset(ctx, l.attemptKey(id)); err != nil {
		return true, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return true, nil
}

// Clear drops the failure counter for id. The lockout flag is left alone.
func (l *AttemptLimiter) Clear(ctx context.Context, id string) error {
	if l == nil || id == "" {
		return nil
	}

	if err := l.counter.Reset(ctx, l.attemptKey(id)); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return nil
}

// BlockRemaining returns how long the lockout for id still lasts, or zero.
func (l *AttemptLimiter) BlockRemaining(ctx context.Context, id string) (time.Duration, error) {
	if l == nil || id == "" {
		return 0, nil
	}

	d, err := l.store.TTL(ctx, l.blockKey(id))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	return d, nil
}

// Failures returns the failure count in the current window.
func (l *AttemptLimiter) Failures(ctx context.Context, id string) (int, error) {
	if l == nil || id == "" {
		return 0, nil
	}

	raw, err := l.store.Get(ctx, l.attemptKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limiter: corrupt counter %q", raw)
	}
	return n, nil
}

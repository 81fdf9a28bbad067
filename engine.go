package credflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/internal/audit"
	"github.com/MrEthical07/credflow/internal/flows"
	"github.com/MrEthical07/credflow/internal/kv"
	"github.com/MrEthical07/credflow/internal/limiters"
	"github.com/MrEthical07/credflow/internal/stores"
	"github.com/MrEthical07/credflow/internal/workers"
	"github.com/MrEthical07/credflow/jwt"
	"github.com/MrEthical07/credflow/notify"
	"github.com/MrEthical07/credflow/password"
)

// Engine runs the credential workflows. Build one with [Builder]; all
// methods are safe for concurrent use.
type Engine struct {
	config Config
	logger *slog.Logger

	codec     *jwt.Manager
	store     kv.Store
	directory directory.Directory
	passwords flows.PasswordEncoder
	upgrader  *password.Chain
	newOTP    func(digits int) (string, error)

	sessions     *stores.RefreshSessionStore
	revocations  *stores.RevocationRegistry
	verifyTokens *stores.OneTimeTokenStore
	resetTokens  *stores.OneTimeTokenStore
	otps         *stores.OTPStore
	loginLimiter *limiters.AttemptLimiter
	otpLimiter   *limiters.AttemptLimiter

	sender  notify.Sender
	pool    *workers.Pool
	audit   *audit.Dispatcher
	metrics *Metrics

	closers   []func() error
	closeOnce sync.Once
}

// Close drains pending notifications and audit events, then releases any
// backend the Builder opened itself.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.pool != nil {
			e.pool.Close()
		}
		if e.audit != nil {
			e.audit.Close()
		}
		for i := len(e.closers) - 1; i >= 0; i-- {
			if err := e.closers[i](); err != nil {
				e.logger.Warn("credflow: close backend", "error", err)
			}
		}
	})
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// NotifyStats reports notification pool activity.
func (e *Engine) NotifyStats() workers.Stats {
	if e == nil || e.pool == nil {
		return workers.Stats{}
	}
	return e.pool.Stats()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.store != nil && e.directory != nil && e.passwords != nil
}

/*
====================================
FLOW WIRING
====================================
*/

func (e *Engine) policy() flows.TokenPolicy {
	t := e.config.Tokens
	return flows.TokenPolicy{
		AccessTTL:  t.AccessTTL,
		RefreshTTL: t.RefreshTTL,
		VerifyTTL:  t.VerifyTTL,
		ResetTTL:   t.ResetTTL,
		OTPTTL:     t.OTPTTL,
		OTPDigits:  t.OTPDigits,
		RolePrefix: t.RolePrefix,
	}
}

func (e *Engine) sessionDeps() flows.SessionDeps {
	return flows.SessionDeps{Codec: e.codec, Policy: e.policy(), Sessions: e.sessions}
}

func (e *Engine) verificationDeps() flows.VerificationDeps {
	return flows.VerificationDeps{
		Directory:    e.directory,
		Codec:        e.codec,
		Policy:       e.policy(),
		VerifyTokens: e.verifyTokens,
		Dispatch:     e.dispatch,
	}
}

func (e *Engine) registerDeps() flows.RegisterDeps {
	return flows.RegisterDeps{
		Verification: e.verificationDeps(),
		Passwords:    e.passwords,
		MinAge:       e.config.Registration.MinAge,
	}
}

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		Session:   e.sessionDeps(),
		Directory: e.directory,
		Passwords: e.passwords,
		Limiter:   e.loginLimiter,
	}
}

func (e *Engine) refreshDeps() flows.RefreshDeps {
	return flows.RefreshDeps{Session: e.sessionDeps(), Directory: e.directory}
}

func (e *Engine) logoutDeps() flows.LogoutDeps {
	return flows.LogoutDeps{Codec: e.codec, Revocations: e.revocations, Sessions: e.sessions}
}

func (e *Engine) validateDeps() flows.ValidateDeps {
	return flows.ValidateDeps{Codec: e.codec, Revocations: e.revocations}
}

func (e *Engine) passwordResetDeps() flows.PasswordResetDeps {
	return flows.PasswordResetDeps{
		Directory:   e.directory,
		Codec:       e.codec,
		Policy:      e.policy(),
		OTPs:        e.otps,
		ResetTokens: e.resetTokens,
		Limiter:     e.otpLimiter,
		Passwords:   e.passwords,
		NewOTP:      e.newOTP,
		Dispatch:    e.dispatch,
	}
}

/*
====================================
FAILURE MAPPING
====================================
*/

var failureErrors = map[flows.FailureKind]error{
	flows.FailureNotReady:             ErrEngineNotReady,
	flows.FailureInvalidCredential:    ErrInvalidCredential,
	flows.FailureInvalidRefreshToken:  ErrInvalidRefreshToken,
	flows.FailureRefreshTokenNotFound: ErrRefreshTokenNotFound,
	flows.FailureInvalidOTP:           ErrInvalidOTP,
	flows.FailureInvalidResetToken:    ErrInvalidResetToken,
	flows.FailureInvalidVerifyToken:   ErrInvalidVerifyToken,
	flows.FailureEmailExists:          ErrEmailExists,
	flows.FailureUsernameExists:       ErrUsernameExists,
	flows.FailureUnderAge:             ErrUnderAge,
	flows.FailureInvalidCredentials:   ErrInvalidCredentials,
	flows.FailureEmailNotVerified:     ErrEmailNotVerified,
	flows.FailureTooManyLoginAttempts: ErrTooManyLoginAttempts,
	flows.FailureTooManyOTPAttempts:   ErrTooManyOTPAttempts,
	flows.FailureUserNotFound:         ErrUserNotFound,
	flows.FailureTokenRevoked:         ErrTokenRevoked,
	flows.FailureInvalidInput:         ErrInvalidInput,
}

// outcomeErr maps a flow outcome to the public error. Underlying causes
// are only attached for dependency failures.
func (e *Engine) outcomeErr(out flows.Outcome) error {
	switch out.Failure {
	case flows.FailureNone:
		return nil
	case flows.FailureDependency:
		e.metricInc(MetricDependencyFailure)
		if out.Err == nil {
			return ErrDependencyUnavailable
		}
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, out.Err)
	case flows.FailureTooManyLoginAttempts, flows.FailureTooManyOTPAttempts:
		return &RetryAfterError{Err: failureErrors[out.Failure], RetryAfter: out.RetryAfter}
	}
	if err, ok := failureErrors[out.Failure]; ok {
		return err
	}
	return fmt.Errorf("credflow: unmapped failure %s", out.Failure)
}

/*
====================================
NOTIFICATIONS
====================================
*/

// dispatch hands n to the notification pool. Delivery failures are logged
// by the pool and counted here; they never reach the workflow.
func (e *Engine) dispatch(_ context.Context, n notify.Notification) {
	if e.sender == nil || e.pool == nil {
		return
	}
	task := workers.Task{
		Name: "notify:" + string(n.Kind),
		Run: func(ctx context.Context) error {
			if err := e.sender.Send(ctx, n); err != nil {
				e.metricInc(MetricNotifyFailed)
				return fmt.Errorf("send %s to %s: %w", n.Kind, n.To, err)
			}
			e.metricInc(MetricNotifySent)
			return nil
		},
	}
	if e.pool.Submit(task) == workers.CallerRan {
		e.metricInc(MetricNotifyCallerRan)
	}
}

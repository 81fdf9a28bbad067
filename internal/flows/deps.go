package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/jwt"
	"github.com/MrEthical07/credflow/notify"
)

// FailureKind classifies flow failures for root-level mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNotReady
	FailureDependency
	FailureInvalidCredential
	FailureInvalidRefreshToken
	FailureRefreshTokenNotFound
	FailureInvalidOTP
	FailureInvalidResetToken
	FailureInvalidVerifyToken
	FailureEmailExists
	FailureUsernameExists
	FailureUnderAge
	FailureInvalidCredentials
	FailureEmailNotVerified
	FailureTooManyLoginAttempts
	FailureTooManyOTPAttempts
	FailureUserNotFound
	FailureTokenRevoked
	FailureInvalidInput
)

var failureNames = map[FailureKind]string{
	FailureNone:                 "none",
	FailureNotReady:             "not_ready",
	FailureDependency:           "dependency_unavailable",
	FailureInvalidCredential:    "invalid_credential",
	FailureInvalidRefreshToken:  "invalid_refresh_token",
	FailureRefreshTokenNotFound: "refresh_token_not_found",
	FailureInvalidOTP:           "invalid_otp",
	FailureInvalidResetToken:    "invalid_reset_token",
	FailureInvalidVerifyToken:   "invalid_verify_token",
	FailureEmailExists:          "email_exists",
	FailureUsernameExists:       "username_exists",
	FailureUnderAge:             "under_age",
	FailureInvalidCredentials:   "invalid_credentials",
	FailureEmailNotVerified:     "email_not_verified",
	FailureTooManyLoginAttempts: "too_many_login_attempts",
	FailureTooManyOTPAttempts:   "too_many_otp_attempts",
	FailureUserNotFound:         "user_not_found",
	FailureTokenRevoked:         "token_revoked",
	FailureInvalidInput:         "invalid_input",
}

func (k FailureKind) String() string {
	if s, ok := failureNames[k]; ok {
		return s
	}
	return "unknown"
}

// Outcome is embedded in every flow result. Err carries the underlying cause
// for FailureDependency and is informational otherwise.
type Outcome struct {
	Failure    FailureKind
	Err        error
	RetryAfter time.Duration
}

// OK reports whether the flow succeeded.
func (o Outcome) OK() bool { return o.Failure == FailureNone }

func fail(kind FailureKind, err error) Outcome {
	return Outcome{Failure: kind, Err: err}
}

func dependency(err error) Outcome {
	return Outcome{Failure: FailureDependency, Err: err}
}

type restoreFunc func(ctx context.Context, id, value string, remaining time.Duration) error

// release hands a claimed binding back after the side effect it guarded
// failed, so the same token or code can be presented again.
func release(ctx context.Context, restore restoreFunc, id, value string, remaining time.Duration, out Outcome) Outcome {
	if err := restore(ctx, id, value, remaining); err != nil {
		out.Err = errors.Join(out.Err, err)
	}
	return out
}

// Codec mints and parses purpose-tagged credentials. *jwt.Manager satisfies it.
type Codec interface {
	Issue(subject string, purpose jwt.Purpose, roles []string, ttl time.Duration) (string, error)
	ParseFor(token string, purpose jwt.Purpose) (*jwt.Credential, error)
	Now() time.Time
}

// Limiter is a failure-counting lockout limiter.
type Limiter interface {
	IsBlocked(ctx context.Context, id string) (bool, error)
	RecordFailure(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context, id string) error
	BlockRemaining(ctx context.Context, id string) (time.Duration, error)
}

// BindingStore holds a single current bearer value per key.
type BindingStore interface {
	Bind(ctx context.Context, id, token string, ttl time.Duration) error
	Matches(ctx context.Context, id, token string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// OneTimeStore holds single-use bindings. Consume claims a binding at most
// once across concurrent callers; Restore puts a claimed binding back after a
// failed side effect unless a newer one has been bound since.
type OneTimeStore interface {
	Bind(ctx context.Context, id, token string, ttl time.Duration) error
	Consume(ctx context.Context, id, token string) (time.Duration, bool, error)
	Restore(ctx context.Context, id, token string, remaining time.Duration) error
	Outstanding(ctx context.Context, id string) (bool, error)
}

// RevocationStore records revoked access token identifiers.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, remaining time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// OTPStore binds one-time codes per email with the same claim semantics as
// OneTimeStore.
type OTPStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	Consume(ctx context.Context, email, code string) (time.Duration, bool, error)
	Restore(ctx context.Context, email, code string, remaining time.Duration) error
}

// PasswordEncoder is the one-way password capability.
type PasswordEncoder interface {
	Encode(plain string) (string, error)
	Matches(plain, encoded string) (bool, error)
}

// Dispatch hands a notification to background delivery. It must not block on
// delivery and never reports delivery failures.
type Dispatch func(ctx context.Context, n notify.Notification)

// TokenPolicy holds lifetimes and role claim shaping.
type TokenPolicy struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
	OTPTTL     time.Duration
	OTPDigits  int
	RolePrefix string
}

// Roles returns the access token role claims for u.
func (p TokenPolicy) Roles(u directory.User) []string {
	role := u.Role
	if role == "" {
		role = directory.DefaultRole
	}
	return []string{p.RolePrefix + role}
}

// Session is an issued access and refresh token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         directory.User
}

// SessionDeps is shared by flows that issue a token pair.
type SessionDeps struct {
	Codec    Codec
	Policy   TokenPolicy
	Sessions BindingStore
}

// issueSession mints an access and refresh pair for u and makes the refresh
// token the subject's current refresh session, replacing any prior one.
func issueSession(ctx context.Context, u directory.User, deps SessionDeps) (Session, Outcome) {
	access, err := deps.Codec.Issue(u.ID, jwt.PurposeAccess, deps.Policy.Roles(u), deps.Policy.AccessTTL)
	if err != nil {
		return Session{}, fail(FailureNotReady, err)
	}
	refresh, err := deps.Codec.Issue(u.ID, jwt.PurposeRefresh, nil, deps.Policy.RefreshTTL)
	if err != nil {
		return Session{}, fail(FailureNotReady, err)
	}
	if err := deps.Sessions.Bind(ctx, u.ID, refresh, deps.Policy.RefreshTTL); err != nil {
		return Session{}, dependency(err)
	}
	return Session{AccessToken: access, RefreshToken: refresh, User: u}, Outcome{}
}

package credflow

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredential is returned for a malformed, expired or wrongly
	// signed access token.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrTokenRevoked is returned for an access token on the revocation list.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidRefreshToken is returned when a refresh token fails to parse.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrRefreshTokenNotFound is returned when a valid refresh token is not
	// the subject's current one, after rotation or logout.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrInvalidOTP           = errors.New("invalid otp")
	ErrInvalidResetToken    = errors.New("invalid reset token")
	ErrInvalidVerifyToken   = errors.New("invalid verify token")
	ErrEmailExists          = errors.New("email already registered")
	ErrUsernameExists       = errors.New("username already taken")
	ErrUnderAge             = errors.New("user under minimum age")
	// ErrInvalidCredentials is returned by Login for both an unknown email
	// and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	// ErrTooManyLoginAttempts and ErrTooManyOTPAttempts are wrapped in a
	// *RetryAfterError.
	ErrTooManyLoginAttempts = errors.New("too many login attempts")
	ErrTooManyOTPAttempts   = errors.New("too many otp attempts")
	ErrUserNotFound         = errors.New("user not found")
	// ErrInvalidInput is returned for empty or unusable request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDependencyUnavailable is returned when the state store or the user
	// directory fails or times out.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrEngineNotReady is returned by a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RetryAfterError carries the remaining lockout for a rate-limited call.
type RetryAfterError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v: retry after %s", e.Err, e.RetryAfter.Round(time.Second))
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// RetryAfter returns the lockout remaining in err, if err is rate limited.
func RetryAfter(err error) (time.Duration, bool) {
	var ra *RetryAfterError
	if errors.As(err, &ra) {
		return ra.RetryAfter, true
	}
	return 0, false
}

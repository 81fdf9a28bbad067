package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/jwt"
	"github.com/MrEthical07/credflow/notify"
)

// PasswordResetDeps captures forgot-password, OTP and reset dependencies.
type PasswordResetDeps struct {
	Directory   directory.Directory
	Codec       Codec
	Policy      TokenPolicy
	OTPs        OTPStore
	ResetTokens OneTimeStore
	Limiter     Limiter
	Passwords   PasswordEncoder
	NewOTP      func(digits int) (string, error)
	Dispatch    Dispatch
}

func (d PasswordResetDeps) ready() bool {
	return d.Directory != nil && d.Codec != nil && d.OTPs != nil && d.ResetTokens != nil &&
		d.Limiter != nil && d.Passwords != nil && d.NewOTP != nil
}

// ForgotPasswordResult reports the forgot-password outcome.
type ForgotPasswordResult struct {
	Outcome
	User directory.User
}

// VerifyOTPResult carries the minted reset token on success.
type VerifyOTPResult struct {
	Outcome
	ResetToken string
}

// ResetPasswordResult carries the updated user on success.
type ResetPasswordResult struct {
	Outcome
	User directory.User
}

// RunForgotPassword binds a fresh OTP for a known email, replacing any
// outstanding one, and dispatches it.
func RunForgotPassword(ctx context.Context, email string, deps PasswordResetDeps) ForgotPasswordResult {
	if !deps.ready() {
		return ForgotPasswordResult{Outcome: fail(FailureNotReady, nil)}
	}

	email = NormalizeEmail(email)
	u, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ForgotPasswordResult{Outcome: fail(FailureUserNotFound, err)}
		}
		return ForgotPasswordResult{Outcome: dependency(err)}
	}

	code, err := deps.NewOTP(deps.Policy.OTPDigits)
	if err != nil {
		return ForgotPasswordResult{Outcome: fail(FailureNotReady, err)}
	}
	if err := deps.OTPs.Save(ctx, email, code, deps.Policy.OTPTTL); err != nil {
		return ForgotPasswordResult{Outcome: dependency(err)}
	}

	if deps.Dispatch != nil {
		deps.Dispatch(ctx, notify.Notification{
			Kind:      notify.KindPasswordResetOTP,
			To:        email,
			Username:  u.Username,
			Code:      code,
			ExpiresIn: deps.Policy.OTPTTL,
		})
	}
	return ForgotPasswordResult{User: u}
}

// RunVerifyResetOTP exchanges a correct OTP for a short-lived reset token.
// While the OTP limiter is locked out even the correct code is rejected.
func RunVerifyResetOTP(ctx context.Context, email, code string, deps PasswordResetDeps) VerifyOTPResult {
	if !deps.ready() {
		return VerifyOTPResult{Outcome: fail(FailureNotReady, nil)}
	}

	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	blocked, err := deps.Limiter.IsBlocked(ctx, email)
	if err != nil {
		return VerifyOTPResult{Outcome: dependency(err)}
	}
	if blocked {
		return VerifyOTPResult{Outcome: lockedOut(ctx, deps.Limiter, email, FailureTooManyOTPAttempts)}
	}

	remaining, ok, err := deps.OTPs.Consume(ctx, email, code)
	if err != nil {
		return VerifyOTPResult{Outcome: dependency(err)}
	}
	if !ok {
		return VerifyOTPResult{Outcome: recordFailure(ctx, deps.Limiter, email, FailureInvalidOTP, FailureTooManyOTPAttempts)}
	}

	if err := deps.Limiter.Clear(ctx, email); err != nil {
		return VerifyOTPResult{Outcome: release(ctx, deps.OTPs.Restore, email, code, remaining, dependency(err))}
	}

	token, err := deps.Codec.Issue(email, jwt.PurposePasswordReset, nil, deps.Policy.ResetTTL)
	if err != nil {
		return VerifyOTPResult{Outcome: release(ctx, deps.OTPs.Restore, email, code, remaining, fail(FailureNotReady, err))}
	}
	if err := deps.ResetTokens.Bind(ctx, email, token, deps.Policy.ResetTTL); err != nil {
		return VerifyOTPResult{Outcome: release(ctx, deps.OTPs.Restore, email, code, remaining, dependency(err))}
	}
	return VerifyOTPResult{ResetToken: token}
}

// RunResetPassword consumes a reset token and stores the new password. Only
// the most recently minted reset token for the email is accepted, and it is
// claimed before the password changes; a failed update hands it back.
func RunResetPassword(ctx context.Context, token, newPassword string, deps PasswordResetDeps) ResetPasswordResult {
	if !deps.ready() {
		return ResetPasswordResult{Outcome: fail(FailureNotReady, nil)}
	}

	cred, err := deps.Codec.ParseFor(token, jwt.PurposePasswordReset)
	if err != nil {
		return ResetPasswordResult{Outcome: fail(FailureInvalidResetToken, err)}
	}
	email := cred.Subject

	remaining, ok, err := deps.ResetTokens.Consume(ctx, email, token)
	if err != nil {
		return ResetPasswordResult{Outcome: dependency(err)}
	}
	if !ok {
		return ResetPasswordResult{Outcome: fail(FailureInvalidResetToken, nil)}
	}

	u, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ResetPasswordResult{Outcome: fail(FailureUserNotFound, err)}
		}
		return ResetPasswordResult{Outcome: release(ctx, deps.ResetTokens.Restore, email, token, remaining, dependency(err))}
	}

	hash, err := deps.Passwords.Encode(newPassword)
	if err != nil {
		return ResetPasswordResult{Outcome: release(ctx, deps.ResetTokens.Restore, email, token, remaining, fail(FailureInvalidInput, err))}
	}
	if u, err = deps.Directory.SetPasswordHash(ctx, u.ID, "", hash); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ResetPasswordResult{Outcome: fail(FailureUserNotFound, err)}
		}
		return ResetPasswordResult{Outcome: release(ctx, deps.ResetTokens.Restore, email, token, remaining, dependency(err))}
	}
	return ResetPasswordResult{User: u}
}

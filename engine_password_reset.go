package credflow

import (
	"context"
	"errors"

	"github.com/MrEthical07/credflow/internal/flows"
)

// ForgotPassword binds a fresh numeric OTP to email, replacing any
// outstanding one, and dispatches it. An unknown email returns
// [ErrUserNotFound].
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	identifier := flows.NormalizeEmail(email)
	res := flows.RunForgotPassword(ctx, email, e.passwordResetDeps())
	err := e.outcomeErr(res.Outcome)
	if err == nil {
		e.metricInc(MetricPasswordResetRequest)
	}
	e.emitAudit(ctx, auditEventPasswordForgot, err == nil, res.User.ID, identifier, err, nil)
	return err
}

// VerifyResetOTP exchanges a correct OTP for a short-lived password reset
// token. Wrong codes count toward the OTP lockout; the failure that reaches
// the ceiling and every attempt during the lockout, correct code included,
// return a *RetryAfterError wrapping [ErrTooManyOTPAttempts].
func (e *Engine) VerifyResetOTP(ctx context.Context, email, otp string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	identifier := flows.NormalizeEmail(email)
	res := flows.RunVerifyResetOTP(ctx, email, otp, e.passwordResetDeps())
	if err := e.outcomeErr(res.Outcome); err != nil {
		if errors.Is(err, ErrTooManyOTPAttempts) {
			e.metricInc(MetricOTPLocked)
			e.logger.InfoContext(ctx, "credflow: otp verification locked out", "identifier", identifier, "retry_after", res.RetryAfter)
			e.emitAudit(ctx, auditEventOTPLocked, false, "", identifier, err, nil)
		} else {
			e.metricInc(MetricOTPVerifyFailure)
			e.emitAudit(ctx, auditEventOTPVerify, false, "", identifier, err, nil)
		}
		return "", err
	}

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerify, true, "", identifier, nil, nil)
	return res.ResetToken, nil
}

// ResetPassword consumes a reset token and stores newPassword. Only the
// most recently issued reset token for the email is accepted, and only
// once.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if newPassword == "" {
		return ErrInvalidInput
	}

	res := flows.RunResetPassword(ctx, resetToken, newPassword, e.passwordResetDeps())
	err := e.outcomeErr(res.Outcome)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
	} else {
		e.metricInc(MetricPasswordResetSuccess)
	}
	e.emitAudit(ctx, auditEventPasswordReset, err == nil, res.User.ID, res.User.Email, err, nil)
	return err
}

package credflow

import (
	"context"

	"github.com/MrEthical07/credflow/internal/flows"
)

// ResendVerification sends a fresh verification token for email. It is a
// successful no-op when the account is already verified or a token is still
// outstanding, so repeated calls never produce two valid tokens.
func (e *Engine) ResendVerification(ctx context.Context, email string) (Profile, error) {
	if !e.ready() {
		return Profile{}, ErrEngineNotReady
	}

	res := flows.RunResendVerification(ctx, email, e.verificationDeps())
	err := e.outcomeErr(res.Outcome)
	switch {
	case err != nil:
	case res.Sent:
		e.metricInc(MetricVerificationSent)
	default:
		e.metricInc(MetricVerificationResendSkipped)
	}

	e.emitAudit(ctx, auditEventVerificationResend, err == nil, res.User.ID, flows.NormalizeEmail(email), err, func() map[string]string {
		if res.Sent {
			return map[string]string{"sent": "true"}
		}
		return map[string]string{"sent": "false"}
	})
	if err != nil {
		return Profile{}, err
	}
	return profileOf(res.User), nil
}

// VerifyEmail consumes an email-verify token and marks the account
// verified. A token succeeds once; replaying it returns
// [ErrInvalidVerifyToken].
func (e *Engine) VerifyEmail(ctx context.Context, token string) (Profile, error) {
	if !e.ready() {
		return Profile{}, ErrEngineNotReady
	}

	res := flows.RunVerifyEmail(ctx, token, e.verificationDeps())
	err := e.outcomeErr(res.Outcome)
	if err != nil {
		e.metricInc(MetricEmailVerifyFailure)
	} else {
		e.metricInc(MetricEmailVerifySuccess)
	}

	e.emitAudit(ctx, auditEventEmailVerify, err == nil, res.User.ID, "", err, nil)
	if err != nil {
		return Profile{}, err
	}
	return profileOf(res.User), nil
}

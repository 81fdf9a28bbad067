package credflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/internal/flows"
)

// Login authenticates email and password and returns an access and refresh
// token pair. The refresh token becomes the account's only current one.
//
// An unknown email and a wrong password both return [ErrInvalidCredentials]
// and both count toward the login lockout. The failure that reaches the
// ceiling, and every attempt during the lockout, return a *RetryAfterError
// wrapping [ErrTooManyLoginAttempts]. A correct password on an unverified
// account returns [ErrEmailNotVerified].
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	identifier := flows.NormalizeEmail(email)
	res := flows.RunLogin(ctx, email, password, e.loginDeps())
	if err := e.outcomeErr(res.Outcome); err != nil {
		if errors.Is(err, ErrTooManyLoginAttempts) {
			e.metricInc(MetricLoginLocked)
			e.logger.InfoContext(ctx, "credflow: login locked out", "identifier", identifier, "retry_after", res.RetryAfter)
			e.emitAudit(ctx, auditEventLoginLocked, false, "", identifier, err, nil)
		} else {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLogin, false, "", identifier, err, nil)
		}
		return nil, err
	}

	user := res.Session.User
	e.upgradePassword(ctx, user, password)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, true, user.ID, identifier, nil, nil)
	return &LoginResult{
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		User:         profileOf(user),
	}, nil
}

// upgradePassword re-encodes a legacy or under-cost hash after a successful
// login. The write only applies while the stored hash is still the one the
// login matched, so a concurrent reset always wins. Failure leaves the old
// hash in place and is only logged.
func (e *Engine) upgradePassword(ctx context.Context, u directory.User, plain string) {
	if e.upgrader == nil || !e.config.Password.UpgradeOnLogin || !e.upgrader.NeedsUpgrade(u.PasswordHash) {
		return
	}
	hash, err := e.upgrader.Encode(plain)
	if err != nil {
		e.logger.WarnContext(ctx, "credflow: password upgrade encode failed", "subject", u.ID, "error", err)
		return
	}
	if _, err := e.directory.SetPasswordHash(ctx, u.ID, u.PasswordHash, hash); err != nil {
		if errors.Is(err, directory.ErrStale) {
			e.logger.DebugContext(ctx, "credflow: password changed during login, upgrade skipped", "subject", u.ID)
			return
		}
		e.logger.WarnContext(ctx, "credflow: password upgrade save failed", "subject", u.ID, "error", err)
		return
	}
	e.metricInc(MetricPasswordUpgraded)
	e.emitAudit(ctx, auditEventPasswordUpgraded, true, u.ID, "", nil, nil)
}

// Refresh rotates a refresh token into a new token pair. The presented
// token can never be used again; presenting it after rotation or logout
// returns [ErrRefreshTokenNotFound].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.refreshDeps())
	if err := e.outcomeErr(res.Outcome); err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			e.metricInc(MetricRefreshNotCurrent)
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefresh, false, "", "", err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, true, res.Session.User.ID, "", nil, nil)
	return &LoginResult{
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		User:         profileOf(res.Session.User),
	}, nil
}

// Logout revokes accessToken for the rest of its lifetime and drops the
// account's refresh session. A malformed or expired token is treated as
// already logged out. Both steps are attempted; when only one of them fails
// the failure is logged and Logout still returns nil. When both fail it
// returns [ErrDependencyUnavailable].
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, accessToken, e.logoutDeps())
	if res.Skipped {
		e.metricInc(MetricLogoutSkipped)
		return nil
	}

	if res.RevokeErr != nil {
		e.logger.WarnContext(ctx, "credflow: logout revocation failed", "subject", res.Subject, "error", res.RevokeErr)
	}
	if res.SessionErr != nil {
		e.logger.WarnContext(ctx, "credflow: logout session delete failed", "subject", res.Subject, "error", res.SessionErr)
	}
	tokenMeta := func() map[string]string {
		return map[string]string{"token_id": res.TokenID}
	}

	if err := e.outcomeErr(res.Outcome); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, res.Subject, "", err, tokenMeta)
		return err
	}
	if res.RevokeErr != nil || res.SessionErr != nil {
		e.metricInc(MetricLogoutPartial)
	}

	var auditErr error
	if res.RevokeErr != nil {
		auditErr = fmt.Errorf("%w: %v", ErrDependencyUnavailable, res.RevokeErr)
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, auditErr == nil, res.Subject, "", auditErr, tokenMeta)
	return nil
}

package credflow

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/credflow/internal/flows"
)

// ValidateAccess checks an access token's signature, expiry and purpose,
// then the revocation list. A revocation lookup that fails returns
// [ErrDependencyUnavailable], never a pass.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*Principal, error) {
	if e == nil || e.codec == nil || e.revocations == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := flows.RunValidate(ctx, accessToken, e.validateDeps())
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}

	if err := e.outcomeErr(res.Outcome); err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			e.metricInc(MetricValidateRevoked)
		}
		e.metricInc(MetricValidateFailure)
		return nil, err
	}

	e.metricInc(MetricValidateSuccess)
	cred := res.Credential
	return &Principal{
		Subject:   cred.Subject,
		Roles:     append([]string(nil), cred.Roles...),
		TokenID:   cred.TokenID,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

// RolePrefix is the prefix applied to role claims, "ROLE_" by default.
func (e *Engine) RolePrefix() string {
	if e == nil {
		return ""
	}
	return e.config.Tokens.RolePrefix
}

package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credflow/jwt"
)

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Codec       Codec
	Revocations RevocationStore
	Sessions    BindingStore
}

// LogoutResult reports what logout touched. Logout always succeeds; the
// per-step errors are for logging.
type LogoutResult struct {
	Outcome
	// Skipped is set when the token did not parse as a live access token.
	Skipped    bool
	Subject    string
	TokenID    string
	RevokeErr  error
	SessionErr error
}

// RunLogout revokes the access token for its remaining lifetime and drops the
// subject's refresh session. Both steps are attempted even if one fails; only
// when neither sticks is the outcome a dependency failure.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) LogoutResult {
	if deps.Codec == nil || deps.Revocations == nil || deps.Sessions == nil {
		return LogoutResult{Outcome: fail(FailureNotReady, nil)}
	}

	cred, err := deps.Codec.ParseFor(token, jwt.PurposeAccess)
	if err != nil {
		return LogoutResult{Skipped: true}
	}

	res := LogoutResult{Subject: cred.Subject, TokenID: cred.TokenID}
	res.RevokeErr = deps.Revocations.Revoke(ctx, cred.TokenID, cred.Remaining(deps.Codec.Now()))
	res.SessionErr = deps.Sessions.Delete(ctx, cred.Subject)
	if res.RevokeErr != nil && res.SessionErr != nil {
		res.Outcome = dependency(errors.Join(res.RevokeErr, res.SessionErr))
	}
	return res
}

package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/jwt"
)

// RefreshDeps captures refresh rotation dependencies.
type RefreshDeps struct {
	Session   SessionDeps
	Directory directory.Directory
}

// RunRefresh rotates a refresh token. Only the subject's current refresh
// token is accepted; a successful rotation moves the binding so the presented
// token can never be used again. Concurrent rotations of the same token race
// and the last writer's pair stays current.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) LoginResult {
	if deps.Directory == nil || deps.Session.Codec == nil || deps.Session.Sessions == nil {
		return LoginResult{Outcome: fail(FailureNotReady, nil)}
	}

	cred, err := deps.Session.Codec.ParseFor(token, jwt.PurposeRefresh)
	if err != nil {
		return LoginResult{Outcome: fail(FailureInvalidRefreshToken, err)}
	}

	current, err := deps.Session.Sessions.Matches(ctx, cred.Subject, token)
	if err != nil {
		return LoginResult{Outcome: dependency(err)}
	}
	if !current {
		return LoginResult{Outcome: fail(FailureRefreshTokenNotFound, nil)}
	}

	u, err := deps.Directory.FindByID(ctx, cred.Subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return LoginResult{Outcome: fail(FailureUserNotFound, err)}
		}
		return LoginResult{Outcome: dependency(err)}
	}

	session, out := issueSession(ctx, u, deps.Session)
	return LoginResult{Outcome: out, Session: session}
}

package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credflow/directory"
)

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Session   SessionDeps
	Directory directory.Directory
	Passwords PasswordEncoder
	Limiter   Limiter
}

// LoginResult carries the issued session on success.
type LoginResult struct {
	Outcome
	Session Session
}

// RunLogin authenticates email and password. Unknown email and wrong password
// are indistinguishable to the caller and both count against the limiter.
// The verified check runs only after a password match.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	if deps.Directory == nil || deps.Passwords == nil || deps.Limiter == nil ||
		deps.Session.Codec == nil || deps.Session.Sessions == nil {
		return LoginResult{Outcome: fail(FailureNotReady, nil)}
	}

	email = NormalizeEmail(email)

	blocked, err := deps.Limiter.IsBlocked(ctx, email)
	if err != nil {
		return LoginResult{Outcome: dependency(err)}
	}
	if blocked {
		return LoginResult{Outcome: lockedOut(ctx, deps.Limiter, email, FailureTooManyLoginAttempts)}
	}

	u, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return LoginResult{Outcome: recordFailure(ctx, deps.Limiter, email, FailureInvalidCredentials, FailureTooManyLoginAttempts)}
		}
		return LoginResult{Outcome: dependency(err)}
	}

	ok, err := deps.Passwords.Matches(password, u.PasswordHash)
	if err != nil || !ok {
		out := recordFailure(ctx, deps.Limiter, email, FailureInvalidCredentials, FailureTooManyLoginAttempts)
		if out.Err == nil {
			out.Err = err
		}
		return LoginResult{Outcome: out}
	}

	if !u.EmailVerified {
		return LoginResult{Outcome: fail(FailureEmailNotVerified, nil)}
	}

	if err := deps.Limiter.Clear(ctx, email); err != nil {
		return LoginResult{Outcome: dependency(err)}
	}

	session, out := issueSession(ctx, u, deps.Session)
	return LoginResult{Outcome: out, Session: session}
}

// recordFailure counts a failure and reports either plain (below the
// ceiling) or locked (the failure that reached it).
func recordFailure(ctx context.Context, l Limiter, id string, plain, locked FailureKind) Outcome {
	blocked, err := l.RecordFailure(ctx, id)
	if err != nil {
		return dependency(err)
	}
	if blocked {
		return lockedOut(ctx, l, id, locked)
	}
	return fail(plain, nil)
}

func lockedOut(ctx context.Context, l Limiter, id string, kind FailureKind) Outcome {
	remaining, err := l.BlockRemaining(ctx, id)
	if err != nil {
		return dependency(err)
	}
	return Outcome{Failure: kind, RetryAfter: remaining}
}

package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credflow/directory"
	"github.com/MrEthical07/credflow/jwt"
	"github.com/MrEthical07/credflow/notify"
)

// VerificationDeps captures dependencies for issuing and consuming
// email-verify tokens.
type VerificationDeps struct {
	Directory    directory.Directory
	Codec        Codec
	Policy       TokenPolicy
	VerifyTokens OneTimeStore
	Dispatch     Dispatch
}

// ResendResult reports the resend outcome. Sent is false for the no-op cases.
type ResendResult struct {
	Outcome
	User directory.User
	Sent bool
}

// VerifyEmailResult carries the verified user.
type VerifyEmailResult struct {
	Outcome
	User directory.User
}

// sendVerification mints an email-verify token for u, binds it as the only
// outstanding one and dispatches it.
func sendVerification(ctx context.Context, u directory.User, deps VerificationDeps) Outcome {
	token, err := deps.Codec.Issue(u.ID, jwt.PurposeEmailVerify, nil, deps.Policy.VerifyTTL)
	if err != nil {
		return fail(FailureNotReady, err)
	}
	if err := deps.VerifyTokens.Bind(ctx, u.ID, token, deps.Policy.VerifyTTL); err != nil {
		return dependency(err)
	}
	if deps.Dispatch != nil {
		deps.Dispatch(ctx, notify.Notification{
			Kind:      notify.KindEmailVerification,
			To:        u.Email,
			Username:  u.Username,
			Code:      token,
			ExpiresIn: deps.Policy.VerifyTTL,
		})
	}
	return Outcome{}
}

// RunResendVerification re-sends a verification token unless the account is
// already verified or a token is still outstanding.
func RunResendVerification(ctx context.Context, email string, deps VerificationDeps) ResendResult {
	if deps.Directory == nil || deps.Codec == nil || deps.VerifyTokens == nil {
		return ResendResult{Outcome: fail(FailureNotReady, nil)}
	}

	email = NormalizeEmail(email)
	u, err := deps.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ResendResult{Outcome: fail(FailureUserNotFound, err)}
		}
		return ResendResult{Outcome: dependency(err)}
	}

	return resendFor(ctx, u, deps)
}

func resendFor(ctx context.Context, u directory.User, deps VerificationDeps) ResendResult {
	if u.EmailVerified {
		return ResendResult{User: u}
	}

	outstanding, err := deps.VerifyTokens.Outstanding(ctx, u.ID)
	if err != nil {
		return ResendResult{Outcome: dependency(err), User: u}
	}
	if outstanding {
		return ResendResult{User: u}
	}

	if out := sendVerification(ctx, u, deps); !out.OK() {
		return ResendResult{Outcome: out, User: u}
	}
	return ResendResult{User: u, Sent: true}
}

// RunVerifyEmail consumes an email-verify token and marks the account
// verified. The token is claimed first; a failed directory update hands it
// back.
func RunVerifyEmail(ctx context.Context, token string, deps VerificationDeps) VerifyEmailResult {
	if deps.Directory == nil || deps.Codec == nil || deps.VerifyTokens == nil {
		return VerifyEmailResult{Outcome: fail(FailureNotReady, nil)}
	}

	cred, err := deps.Codec.ParseFor(token, jwt.PurposeEmailVerify)
	if err != nil {
		return VerifyEmailResult{Outcome: fail(FailureInvalidVerifyToken, err)}
	}

	remaining, ok, err := deps.VerifyTokens.Consume(ctx, cred.Subject, token)
	if err != nil {
		return VerifyEmailResult{Outcome: dependency(err)}
	}
	if !ok {
		return VerifyEmailResult{Outcome: fail(FailureInvalidVerifyToken, nil)}
	}

	u, err := deps.Directory.MarkVerified(ctx, cred.Subject)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return VerifyEmailResult{Outcome: fail(FailureUserNotFound, err)}
		}
		return VerifyEmailResult{Outcome: release(ctx, deps.VerifyTokens.Restore, cred.Subject, token, remaining, dependency(err))}
	}
	return VerifyEmailResult{User: u}
}

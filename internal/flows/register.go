package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credflow/directory"
)

// RegisterStatus is the explicit registration outcome variant.
type RegisterStatus int

const (
	// RegisterRejected means no account was created or touched.
	RegisterRejected RegisterStatus = iota
	// RegisterCreated means a new unverified account was created.
	RegisterCreated
	// RegisterPendingVerification means the email belongs to an existing
	// unverified account and the resend path ran instead of creating one.
	RegisterPendingVerification
)

// RegisterInput is the raw registration request.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	BirthYear int
}

// RegisterResult reports the registration outcome.
type RegisterResult struct {
	Outcome
	Status RegisterStatus
	User   directory.User
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	Verification VerificationDeps
	Passwords    PasswordEncoder
	MinAge       int
}

// RunRegister validates uniqueness and age, creates the account unverified
// and sends a verification token. An existing unverified email never yields a
// second account: the resend path runs and the result is
// RegisterPendingVerification with FailureEmailNotVerified.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) RegisterResult {
	dir := deps.Verification.Directory
	if dir == nil || deps.Passwords == nil || deps.Verification.Codec == nil || deps.Verification.VerifyTokens == nil {
		return RegisterResult{Outcome: fail(FailureNotReady, nil)}
	}

	email := NormalizeEmail(in.Email)
	username := NormalizeUsername(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return RegisterResult{Outcome: fail(FailureInvalidInput, nil)}
	}

	existing, err := dir.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.EmailVerified {
			return RegisterResult{Outcome: fail(FailureEmailExists, nil)}
		}
		resend := resendFor(ctx, existing, deps.Verification)
		if !resend.OK() {
			return RegisterResult{Outcome: resend.Outcome, User: existing}
		}
		return RegisterResult{
			Outcome: fail(FailureEmailNotVerified, nil),
			Status:  RegisterPendingVerification,
			User:    existing,
		}
	case !errors.Is(err, directory.ErrNotFound):
		return RegisterResult{Outcome: dependency(err)}
	}

	taken, err := dir.ExistsByUsername(ctx, username)
	if err != nil {
		return RegisterResult{Outcome: dependency(err)}
	}
	if taken {
		return RegisterResult{Outcome: fail(FailureUsernameExists, nil)}
	}

	if deps.Verification.Codec.Now().Year()-in.BirthYear < deps.MinAge {
		return RegisterResult{Outcome: fail(FailureUnderAge, nil)}
	}

	hash, err := deps.Passwords.Encode(in.Password)
	if err != nil {
		return RegisterResult{Outcome: fail(FailureInvalidInput, err)}
	}

	u, err := dir.Save(ctx, directory.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         directory.DefaultRole,
		BirthYear:    in.BirthYear,
	})
	if err != nil {
		if errors.Is(err, directory.ErrConflict) {
			return RegisterResult{Outcome: conflictKind(ctx, dir, username)}
		}
		return RegisterResult{Outcome: dependency(err)}
	}

	if out := sendVerification(ctx, u, deps.Verification); !out.OK() {
		return RegisterResult{Outcome: out, Status: RegisterCreated, User: u}
	}
	return RegisterResult{Status: RegisterCreated, User: u}
}

// conflictKind resolves a uniqueness race lost at Save time.
func conflictKind(ctx context.Context, dir directory.Directory, username string) Outcome {
	taken, err := dir.ExistsByUsername(ctx, username)
	if err != nil {
		return dependency(err)
	}
	if taken {
		return fail(FailureUsernameExists, directory.ErrConflict)
	}
	return fail(FailureEmailExists, directory.ErrConflict)
}

package flows

import (
	"context"

	"github.com/MrEthical07/credflow/jwt"
)

// ValidateDeps captures access validation dependencies.
type ValidateDeps struct {
	Codec       Codec
	Revocations RevocationStore
}

// ValidateResult carries the validated access credential.
type ValidateResult struct {
	Outcome
	Credential *jwt.Credential
}

// RunValidate checks signature, expiry and purpose, then the revocation
// registry. A registry failure is a dependency failure, never a pass.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	if deps.Codec == nil || deps.Revocations == nil {
		return ValidateResult{Outcome: fail(FailureNotReady, nil)}
	}

	cred, err := deps.Codec.ParseFor(token, jwt.PurposeAccess)
	if err != nil {
		return ValidateResult{Outcome: fail(FailureInvalidCredential, err)}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, cred.TokenID)
	if err != nil {
		return ValidateResult{Outcome: dependency(err)}
	}
	if revoked {
		return ValidateResult{Outcome: fail(FailureTokenRevoked, nil)}
	}
	return ValidateResult{Credential: cred}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/credflow"
)

// Validator is the slice of *credflow.Engine the guards need.
type Validator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*credflow.Principal, error)
}

type principalContextKey struct{}

// PrincipalFromContext returns the principal stored by a guard.
func PrincipalFromContext(ctx context.Context) (*credflow.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*credflow.Principal)
	return p, ok
}

// RequireAccess rejects requests without a valid bearer access token.
func RequireAccess(v Validator) func(http.Handler) http.Handler {
	return guard(v, nil)
}

func guard(v Validator, allow func(*credflow.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := v.ValidateAccess(r.Context(), token)
			if err != nil {
				if errors.Is(err, credflow.ErrDependencyUnavailable) || errors.Is(err, credflow.ErrEngineNotReady) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if allow != nil && !allow(principal) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credflow"
)

type stubValidator map[string]*credflow.Principal

func (s stubValidator) ValidateAccess(_ context.Context, token string) (*credflow.Principal, error) {
	switch token {
	case "revoked":
		return nil, credflow.ErrTokenRevoked
	case "redis-down":
		return nil, fmt.Errorf("%w: dial tcp", credflow.ErrDependencyUnavailable)
	}
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, credflow.ErrInvalidCredential
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, authorization string) (*httptest.ResponseRecorder, *credflow.Principal) {
	t.Helper()
	var seen *credflow.Principal
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		seen = p
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAccess(t *testing.T) {
	v := stubValidator{
		"user-token": {Subject: "u1", Roles: []string{"ROLE_USER"}},
	}
	mw := RequireAccess(v)

	rec, p := serve(t, mw, "Bearer user-token")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "u1", p.Subject)

	for _, header := range []string{"", "user-token", "Bearer ", "Basic abc", "Bearer nope", "Bearer revoked"} {
		rec, _ := serve(t, mw, header)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}

	rec, _ = serve(t, mw, "Bearer redis-down")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireRole(t *testing.T) {
	v := stubValidator{
		"admin": {Subject: "a", Roles: []string{"ROLE_ADMIN"}},
		"user":  {Subject: "u", Roles: []string{"ROLE_USER"}},
	}

	rec, _ := serve(t, RequireRole(v, "ADMIN", "ROLE_"), "Bearer admin")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = serve(t, RequireRole(v, "ROLE_ADMIN", "ROLE_"), "Bearer admin")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = serve(t, RequireRole(v, "ADMIN", "ROLE_"), "Bearer user")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNilValidatorRejects(t *testing.T) {
	rec, _ := serve(t, RequireAccess(nil), "Bearer x")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

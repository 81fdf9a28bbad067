package middleware

import (
	"net/http"

	"github.com/MrEthical07/credflow"
)

// RequireRole is [RequireAccess] plus a role check. role may be given with
// or without prefix, e.g. "ADMIN" or "ROLE_ADMIN". Pass
// Engine.RolePrefix() as prefix.
func RequireRole(v Validator, role, prefix string) func(http.Handler) http.Handler {
	return guard(v, func(p *credflow.Principal) bool {
		return p.HasRole(role, prefix)
	})
}

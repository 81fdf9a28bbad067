// Package middleware exposes net/http adapters that guard routes with
// credflow access tokens.
//
// # Guards
//
//   - [RequireAccess] accepts any valid, unrevoked access token.
//   - [RequireRole] additionally requires a role claim.
//
// Each guard reads the Authorization header, calls
// Engine.ValidateAccess, and injects the resulting principal into the
// request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// parse tokens or touch Redis; every decision is delegated to
// ValidateAccess. A revocation lookup that fails answers 503, never a pass.
package middleware

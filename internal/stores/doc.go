// Package stores provides the narrowly scoped, TTL-bound bindings the
// credential workflows keep in the key-value side channel.
//
// # Stores
//
//   - [RefreshSessionStore]: subject to current refresh token (refresh:<subject>).
//   - [RevocationRegistry]: revoked access token identifiers (blacklist:access:<jti>).
//   - [OneTimeTokenStore]: verify-email and reset-password bindings.
//   - [OTPStore]: password-reset one-time codes (forgot:password:otp:<email>).
//
// # Design
//
// Bindings keep a SHA-256 fingerprint of the bearer value, never the value
// itself, and comparisons run in constant time. Absence and mismatch are the
// same answer to callers: the presented value is not the current one.
//
// # What this package must NOT do
//
//   - Import credflow or any sibling internal package except internal/kv.
//   - Mint tokens, count attempts or make authentication decisions. Those
//     belong to the flow functions in internal/flows.
package stores

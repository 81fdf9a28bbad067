// Package jwt is the credential codec: it mints and parses signed, self-contained
// tokens carrying a subject, a unique token identifier, a purpose and (for access
// tokens) a role set. It holds no state beyond key material and a clock.
package jwt

// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, etc.) accepts a typed
// dependency struct and returns a result carrying either the success payload
// or a classified [FailureKind]. The root package maps kinds to its public
// sentinel errors and owns metrics and audit emission.
//
// # Architecture boundaries
//
// Flow functions coordinate the credential codec, the side-channel stores,
// the limiters, the user directory and notification dispatch. They do NOT own
// any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import credflow (to avoid import cycles).
//   - Treat a dependency failure as success or as an authentication failure.
package flows

// Package credflow issues, validates and revokes credentials and runs the
// account workflows around them: register and email verification, login,
// refresh rotation, logout, and the forgot-password OTP reset.
//
// Tokens are signed and self-contained; the state they cannot carry lives in
// a TTL key-value store (Redis). That state is the current refresh token per
// subject, the access token revocation list, one-time verify and reset
// bindings, reset OTPs, and the login and OTP failure limiters.
//
// # Architecture boundaries
//
// credflow is the public surface. It exposes [Engine], [Builder], [Config]
// and result types. Workflow logic lives in internal/flows as pure functions
// over narrow interfaces; the Engine wires concrete stores into them, maps
// failures to the sentinel errors in this package, and emits metrics and
// audit events. User records and outbound notifications are collaborators
// supplied through the directory and notify packages.
//
// # Failure semantics
//
// Business failures return the sentinels below. A store or directory that is
// unreachable or times out returns [ErrDependencyUnavailable]; it is never
// treated as authenticated or as unauthenticated. Notification delivery runs
// on a bounded worker pool and never changes a workflow outcome.
package credflow

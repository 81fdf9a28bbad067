// Package internal contains helpers that are private to credflow: one-time
// code generation and bearer-value fingerprints.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//   - kv: the key-value side channel (go-redis)
//   - limiters: login and OTP failure limiters
//   - rate: fixed-window counter primitive
//   - security: configuration posture report
//   - stores: refresh, revocation, one-time token and OTP bindings
//   - workers: bounded pool for notification dispatch
//
// # What this package must NOT do
//
//   - Export types that appear in the public credflow API.
//   - Be imported by any package outside the credflow module.
package internal

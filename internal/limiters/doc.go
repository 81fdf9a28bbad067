// Package limiters provides the failure-counting limiters that guard login and
// OTP verification, built on the internal/rate counter.
//
// # Limiters
//
//   - [LoginConfig]: 5 failures per 15 minute window, 15 minute lockout.
//   - [OTPConfig]: 5 failures per 5 minute window, 15 minute lockout.
//
// Each limiter owns two key families per identifier: a failure counter and a
// lockout flag. Reaching the ceiling sets the flag and drops the counter.
// While the flag is present callers must reject without recording anything.
//
// All limiters are nil-safe: a nil *AttemptLimiter never blocks.
//
// # What this package must NOT do
//
//   - Import credflow or any sibling internal package except internal/rate and internal/kv.
//   - Decide what a lockout means to the caller. Flows map it to errors.
package limiters

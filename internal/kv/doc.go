// Package kv is the key-value side channel for short-lived credential state:
// refresh bindings, revocation markers, one-time token bindings, OTPs and
// limiter counters.
//
// # Semantics
//
// Every write carries a TTL and every operation runs under its own bounded
// deadline. Absence is reported as [ErrNotFound]; any backend failure,
// including a timeout, is reported as [ErrUnavailable] so callers can map it
// to a single dependency error.
//
// # What this package must NOT do
//
//   - Interpret values. Callers own key layout and encoding.
//   - Retry. Failures surface to the workflow that issued them.
package kv

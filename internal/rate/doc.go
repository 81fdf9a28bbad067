// Package rate provides the fixed-window counter primitive that the domain
// limiters in internal/limiters are built on.
//
// # Window semantics
//
// INCR, then EXPIRE only on the first hit, so the window is anchored at the
// first event and the counter disappears when it closes.
//
// # What this package must NOT do
//
//   - Decide consequences of a count (blocking lives in internal/limiters).
//   - Be imported outside the credflow module.
package rate

// Package security derives a posture report from engine configuration. It
// reads plain values only and performs no I/O.
package security

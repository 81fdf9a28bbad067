// Package workers runs fire-and-forget tasks on a bounded pool.
//
// # Sizing
//
// Core workers are started with the pool and live until Close. When the
// backlog queue is full, surge workers are admitted up to Max and retire after
// KeepAlive without work. When both are exhausted the task runs on the
// submitting goroutine, so a submitted task is always attempted once.
//
// Task errors and panics are logged and counted, never returned to the
// submitter and never retried.
package workers

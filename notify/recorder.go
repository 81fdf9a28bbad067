package notify

import (
	"context"
	"sync"
)

// Recorder keeps every notification in memory. Tests and the load generator
// use it to read back codes that would otherwise travel by email.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	// Err, when set, is returned from every Send after recording.
	Err error
}

func (r *Recorder) Send(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.Err
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Last returns the most recent notification of kind addressed to to.
func (r *Recorder) Last(kind Kind, to string) (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if n := r.sent[i]; n.Kind == kind && n.To == to {
			return n, true
		}
	}
	return Notification{}, false
}

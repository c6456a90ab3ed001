package store

import (
	"sync"
	"time"
)

// PushNotifier is the process-wide signal that some list, somewhere,
// gained an element. Blocking pops wait on it between scans of their
// keys. A wake-up is advisory only: it carries no key, may be spurious,
// and may lose the race with another client consuming the element, so
// waiters must re-check their keys under the store lock after waking.
type PushNotifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewPushNotifier creates a notifier with no pending notification.
func NewPushNotifier() *PushNotifier {
	return &PushNotifier{ch: make(chan struct{})}
}

// Notify wakes every goroutine currently waiting. Wake-ups are not
// queued; a Notify with no waiters is a no-op.
func (n *PushNotifier) Notify() {
	n.mu.Lock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.mu.Unlock()
}

// Wait blocks until the next Notify or until d elapses, whichever is
// first. Callers must not hold the store lock while waiting.
func (n *PushNotifier) Wait(d time.Duration) {
	n.mu.Lock()
	ch := n.ch
	n.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
	}
}

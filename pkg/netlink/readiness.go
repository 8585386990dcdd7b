package netlink

import (
	"context"
	"sync"
)

// Readiness signals whether the device currently holds a usable network
// address. It is a blocking-wait primitive with set/clear edges: producers
// (the link driver context) call Set and Clear, a single consumer (the
// session lifecycle worker) blocks in Wait.
//
// The zero value is not usable; create with NewReadiness.
type Readiness struct {
	mu  sync.Mutex
	set bool

	// ch is closed when the signal becomes set and replaced with a fresh
	// channel when it is cleared. Waiters block on the channel captured
	// under the lock and re-check the flag after it closes.
	ch chan struct{}
}

// NewReadiness creates a Readiness signal in the cleared state.
func NewReadiness() *Readiness {
	return &Readiness{ch: make(chan struct{})}
}

// Set marks the link as ready and wakes all waiters.
// Setting an already-set signal is a no-op.
func (r *Readiness) Set() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set {
		return
	}
	r.set = true
	close(r.ch)
}

// Clear marks the link as not ready. Subsequent Wait calls block until
// the next Set. Clearing an already-cleared signal is a no-op.
func (r *Readiness) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.set {
		return
	}
	r.set = false
	r.ch = make(chan struct{})
}

// IsSet reports whether the signal is currently set.
func (r *Readiness) IsSet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set
}

// Wait blocks until the signal is set or the context is cancelled.
// Wait is level-triggered: it returns immediately if the signal is
// already set, and a Set followed by a Clear before the waiter wakes
// leaves the waiter blocked.
func (r *Readiness) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.set {
			r.mu.Unlock()
			return nil
		}
		ch := r.ch
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			// Re-check under the lock; the signal may have been
			// cleared again before we woke.
		}
	}
}

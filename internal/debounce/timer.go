// Package debounce provides a cancellable timer and a debounced search
// built on it. Neither depends on any UI framework.
package debounce

import (
	"sync"
	"time"
)

// Stoppable is a scheduled call that can be cancelled.
type Stoppable interface {
	Stop() bool
}

// Clock schedules deferred calls.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Stoppable
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Stoppable {
	return time.AfterFunc(d, f)
}

// RealClock schedules on the runtime timer.
var RealClock Clock = realClock{}

// Timer holds at most one pending call. Scheduling replaces the pending
// call; a replaced or cancelled call never runs.
type Timer struct {
	mu      sync.Mutex
	clock   Clock
	pending Stoppable
	gen     uint64
}

// NewTimer returns a Timer on clock. A nil clock means RealClock.
func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = RealClock
	}
	return &Timer{clock: clock}
}

// Schedule cancels any pending call and runs fn after d.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	gen := t.gen
	t.pending = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		// Stop can lose the race against a timer that already fired.
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.gen++
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending call, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Pending reports whether a call is scheduled and has not run yet.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *Timer) stopLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

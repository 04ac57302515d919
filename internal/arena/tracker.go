package arena

import (
	"errors"
	"sync"
	"time"
)

// ErrSubmissionInFlight indicates a write was attempted while a previous one
// had not settled yet. Concurrent writes are not queued.
var ErrSubmissionInFlight = errors.New("arena: a submission is already pending")

const defaultStatusDisplayFor = 3 * time.Second

// statusTracker is the optimistic overlay for user-initiated writes. It runs
// independently of the poll cycle: a settled write is shown as Succeeded or
// Failed for a fixed display window and then the tracker returns to Idle on
// its own, whether or not a poll has reflected the write yet.
type statusTracker struct {
	mu         sync.Mutex
	status     Status
	displayFor time.Duration
	timerFn    func(d time.Duration, f func()) *time.Timer
	timer      *time.Timer
	generation uint64
}

func newStatusTracker(displayFor time.Duration) *statusTracker {
	if displayFor <= 0 {
		displayFor = defaultStatusDisplayFor
	}
	return &statusTracker{
		status:     StatusIdle,
		displayFor: displayFor,
		timerFn:    time.AfterFunc,
	}
}

// Begin transitions to Pending. It fails when a submission is already in
// flight; a terminal status still inside its display window is replaced.
func (t *statusTracker) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusPending {
		return ErrSubmissionInFlight
	}
	t.cancelTimerLocked()
	t.status = StatusPending
	return nil
}

// Settle records the outcome of the in-flight submission and arms the timer
// that returns the tracker to Idle after the display window.
func (t *statusTracker) Settle(succeeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return
	}
	if succeeded {
		t.status = StatusSucceeded
	} else {
		t.status = StatusFailed
	}
	t.cancelTimerLocked()
	generation := t.generation
	t.timer = t.timerFn(t.displayFor, func() {
		t.expire(generation)
	})
}

// Current reports the present status.
func (t *statusTracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Close cancels any armed display timer.
func (t *statusTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelTimerLocked()
}

func (t *statusTracker) expire(generation uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generation != generation {
		return
	}
	if t.status == StatusSucceeded || t.status == StatusFailed {
		t.status = StatusIdle
	}
}

// cancelTimerLocked invalidates any armed timer; callers hold t.mu.
func (t *statusTracker) cancelTimerLocked() {
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

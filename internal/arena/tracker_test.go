package arena

import (
	"errors"
	"testing"
	"time"
)

// manualTimer replaces time.AfterFunc so tests fire the display timeout
// deterministically.
type manualTimer struct {
	callbacks []func()
}

func (m *manualTimer) afterFunc(_ time.Duration, f func()) *time.Timer {
	m.callbacks = append(m.callbacks, f)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	return timer
}

func (m *manualTimer) fireLast(t *testing.T) {
	t.Helper()
	if len(m.callbacks) == 0 {
		t.Fatalf("no timer armed")
	}
	m.callbacks[len(m.callbacks)-1]()
}

func newManualTracker() (*statusTracker, *manualTimer) {
	timer := &manualTimer{}
	tracker := newStatusTracker(time.Second)
	tracker.timerFn = timer.afterFunc
	return tracker, timer
}

func TestTrackerLifecycleSucceeded(t *testing.T) {
	tracker, timer := newManualTracker()

	if tracker.Current() != StatusIdle {
		t.Fatalf("expected idle start, got %v", tracker.Current())
	}
	if err := tracker.Begin(); err != nil {
		t.Fatalf("unexpected begin error: %v", err)
	}
	if tracker.Current() != StatusPending {
		t.Fatalf("expected pending, got %v", tracker.Current())
	}
	tracker.Settle(true)
	if tracker.Current() != StatusSucceeded {
		t.Fatalf("expected succeeded, got %v", tracker.Current())
	}
	timer.fireLast(t)
	if tracker.Current() != StatusIdle {
		t.Fatalf("expected return to idle, got %v", tracker.Current())
	}
}

func TestTrackerLifecycleFailed(t *testing.T) {
	tracker, timer := newManualTracker()

	if err := tracker.Begin(); err != nil {
		t.Fatalf("unexpected begin error: %v", err)
	}
	tracker.Settle(false)
	if tracker.Current() != StatusFailed {
		t.Fatalf("expected failed, got %v", tracker.Current())
	}
	timer.fireLast(t)
	if tracker.Current() != StatusIdle {
		t.Fatalf("expected return to idle, got %v", tracker.Current())
	}
}

func TestTrackerRejectsConcurrentSubmission(t *testing.T) {
	tracker, _ := newManualTracker()

	if err := tracker.Begin(); err != nil {
		t.Fatalf("unexpected begin error: %v", err)
	}
	err := tracker.Begin()
	if !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if tracker.Current() != StatusPending {
		t.Fatalf("rejected begin should not disturb pending state, got %v", tracker.Current())
	}
}

func TestTrackerSettleWithoutPendingIsNoOp(t *testing.T) {
	tracker, _ := newManualTracker()

	tracker.Settle(true)
	if tracker.Current() != StatusIdle {
		t.Fatalf("settle without pending must not skip states, got %v", tracker.Current())
	}
}

func TestTrackerBeginDuringDisplayWindowReplacesStatus(t *testing.T) {
	tracker, timer := newManualTracker()

	if err := tracker.Begin(); err != nil {
		t.Fatalf("unexpected begin error: %v", err)
	}
	tracker.Settle(true)
	if err := tracker.Begin(); err != nil {
		t.Fatalf("begin during display window should be allowed: %v", err)
	}
	if tracker.Current() != StatusPending {
		t.Fatalf("expected pending, got %v", tracker.Current())
	}

	// The stale timer from the first settle must not knock the new
	// submission back to idle.
	timer.fireLast(t)
	if tracker.Current() != StatusPending {
		t.Fatalf("stale timer disturbed pending state: %v", tracker.Current())
	}
}

package signalstate

import (
	"testing"
	"time"
)

// fakeClock gives tests deterministic control over the debounce window.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	return New(WithDebounce(2500*time.Millisecond), WithClock(clock.Now)), clock
}

func TestRedRedGreenRedScenario(t *testing.T) {
	tr, clock := newTestTracker()

	// First red commits.
	if !tr.Observe(StateRed, 0.9, false) {
		t.Fatal("first red should commit")
	}

	// Second red inside the window is suppressed.
	clock.Advance(800 * time.Millisecond)
	if tr.Observe(StateRed, 0.9, false) {
		t.Fatal("unchanged red should not recommit")
	}

	// Green differs and has never committed: commits immediately.
	clock.Advance(200 * time.Millisecond)
	if !tr.Observe(StateGreen, 0.85, false) {
		t.Fatal("green should commit immediately on change")
	}

	// A third red 500ms later is still inside red's own window.
	clock.Advance(500 * time.Millisecond)
	if tr.Observe(StateRed, 0.9, false) {
		t.Fatal("red inside its own debounce window should be suppressed")
	}

	// After the window it commits again.
	clock.Advance(2500 * time.Millisecond)
	if !tr.Observe(StateRed, 0.9, false) {
		t.Fatal("red past its debounce window should commit")
	}
}

func TestUnknownNeverCommits(t *testing.T) {
	tr, _ := newTestTracker()

	if tr.Observe(StateUnknown, 1.0, false) {
		t.Error("unknown should never commit")
	}
	if tr.Observe(StateUnknown, 1.0, true) {
		t.Error("unknown should never commit, even forced")
	}
	if tr.Observe("", 1.0, false) {
		t.Error("empty state should never commit")
	}
	if got := tr.State(); got != StateUnknown {
		t.Errorf("initial state = %s, want unknown", got)
	}
}

func TestForceOverridesDebounce(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Observe(StateRed, 0.9, false)
	clock.Advance(100 * time.Millisecond)

	if !tr.Observe(StateRed, 0.95, true) {
		t.Fatal("forced observation should always commit")
	}
}

func TestLastChangedAtTracksTransitions(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Observe(StateRed, 0.9, false)
	_, _, changed := tr.Current()
	if !changed.Equal(clock.now) {
		t.Errorf("lastChangedAt = %v, want %v", changed, clock.now)
	}

	// Forced recommit of the same state is not a change.
	clock.Advance(time.Second)
	tr.Observe(StateRed, 0.9, true)
	_, _, changed2 := tr.Current()
	if !changed2.Equal(changed) {
		t.Error("recommitting the same state should not move lastChangedAt")
	}

	clock.Advance(time.Second)
	tr.Observe(StateGreen, 0.8, false)
	_, _, changed3 := tr.Current()
	if !changed3.Equal(clock.now) {
		t.Error("state change should move lastChangedAt")
	}
}

func TestReset(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Observe(StateRed, 0.9, false)
	tr.Reset()

	if got := tr.State(); got != StateUnknown {
		t.Errorf("state after reset = %s, want unknown", got)
	}

	// Debounce history is gone: red recommits at once.
	clock.Advance(time.Millisecond)
	if !tr.Observe(StateRed, 0.9, false) {
		t.Error("red should commit immediately after reset")
	}
}

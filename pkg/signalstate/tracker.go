// Package signalstate debounces raw per-frame traffic-signal detections
// into a stable, announceable state.
//
// Detection runs several times per second while a light stays red; the
// tracker makes sure "red" is committed (and spoken) once, while a real
// red->green->red flip is still re-announced immediately because the
// state actually changed.
package signalstate

import (
	"log/slog"
	"sync"
	"time"
)

// State is an observed traffic-signal state.
type State string

const (
	StateUnknown  State = "unknown"
	StateRed      State = "red"
	StateYellow   State = "yellow"
	StateGreen    State = "green"
	StateFlashing State = "flashing"
)

// DefaultDebounce is how long an unchanged state stays suppressed after
// its last commit.
const DefaultDebounce = 2500 * time.Millisecond

// Tracker is the signal state machine. It runs for the session lifetime
// and has no terminal state.
type Tracker struct {
	mu sync.Mutex

	committed     State
	confidence    float64
	lastChangedAt time.Time

	// lastCommitAt tracks the most recent commit per state, driving
	// the per-state debounce window.
	lastCommitAt map[State]time.Time

	debounce time.Duration
	clock    func() time.Time
	logger   *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithDebounce sets the re-announcement suppression window.
func WithDebounce(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		t.debounce = d
	}
}

// WithClock overrides the time source (tests).
func WithClock(clock func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New creates a tracker in the initial unknown state.
func New(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		committed:    StateUnknown,
		lastCommitAt: make(map[State]time.Time),
		debounce:     DefaultDebounce,
		clock:        time.Now,
		logger:       slog.Default().With("component", "signalstate"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe feeds one raw detection into the state machine and reports
// whether the state was committed (and is eligible to alert).
//
// A state commits when force is set, or when it differs from the last
// committed state, or when its own debounce window has elapsed since it
// last committed. Unknown never commits.
func (t *Tracker) Observe(state State, confidence float64, force bool) bool {
	if state == StateUnknown || state == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	if !force {
		// An unchanged light never recommits; a changed one still
		// waits out its own debounce window so a flapping detector
		// cannot re-announce the same state in quick succession.
		if state == t.committed {
			return false
		}
		if last, seen := t.lastCommitAt[state]; seen && now.Sub(last) < t.debounce {
			return false
		}
	}

	if state != t.committed {
		t.lastChangedAt = now
	}
	t.committed = state
	t.confidence = confidence
	t.lastCommitAt[state] = now

	t.logger.Debug("signal state committed",
		"state", state,
		"confidence", confidence,
		"forced", force,
	)
	return true
}

// Current returns the last committed state, its confidence, and when
// the state last changed.
func (t *Tracker) Current() (State, float64, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed, t.confidence, t.lastChangedAt
}

// State returns just the last committed state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

// Reset returns the tracker to the initial unknown state and clears all
// debounce history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed = StateUnknown
	t.confidence = 0
	t.lastChangedAt = time.Time{}
	t.lastCommitAt = make(map[State]time.Time)
}

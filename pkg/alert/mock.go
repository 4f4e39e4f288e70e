package alert

import (
	"context"
	"sync"
	"time"
)

// MockSpeaker implements Speaker for testing.
// All methods can be customized via function fields.
type MockSpeaker struct {
	// PlayFunc is called when Play is invoked. If nil, playback waits
	// out PlayDuration or the context, whichever ends first.
	PlayFunc func(ctx context.Context, text string, p Params) error

	// StopFunc is called when Stop is invoked.
	StopFunc func()

	// PlayDuration is the simulated utterance length for the default
	// PlayFunc.
	PlayDuration time.Duration

	mu       sync.Mutex
	speaking bool
	plays    []PlayRecord
	stops    int
}

// PlayRecord captures one utterance for verification.
type PlayRecord struct {
	Text      string
	Params    Params
	StartedAt time.Time
	EndedAt   time.Time
	Err       error
}

// NewMockSpeaker creates a mock with near-instant playback.
func NewMockSpeaker() *MockSpeaker {
	return &MockSpeaker{PlayDuration: time.Millisecond}
}

// Play records the utterance and simulates playback.
func (m *MockSpeaker) Play(ctx context.Context, text string, p Params) error {
	m.mu.Lock()
	m.speaking = true
	idx := len(m.plays)
	m.plays = append(m.plays, PlayRecord{Text: text, Params: p, StartedAt: time.Now()})
	fn := m.PlayFunc
	dur := m.PlayDuration
	m.mu.Unlock()

	var err error
	if fn != nil {
		err = fn(ctx, text, p)
	} else {
		select {
		case <-time.After(dur):
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	m.mu.Lock()
	m.speaking = false
	m.plays[idx].EndedAt = time.Now()
	m.plays[idx].Err = err
	m.mu.Unlock()
	return err
}

// Stop records the stop call.
func (m *MockSpeaker) Stop() {
	m.mu.Lock()
	m.stops++
	fn := m.StopFunc
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Speaking reports whether a Play call is in flight.
func (m *MockSpeaker) Speaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// Plays returns all recorded utterances.
func (m *MockSpeaker) Plays() []PlayRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PlayRecord, len(m.plays))
	copy(out, m.plays)
	return out
}

// PlayCount returns how many utterances started.
func (m *MockSpeaker) PlayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plays)
}

// StopCount returns how many times Stop was called.
func (m *MockSpeaker) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Verify MockSpeaker implements Speaker at compile time.
var _ Speaker = (*MockSpeaker)(nil)

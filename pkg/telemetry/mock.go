package telemetry

import "sync"

// MockPublisher records published events for tests.
type MockPublisher struct {
	// PublishErr, when set, is returned by every PublishHazard call.
	PublishErr error

	mu     sync.Mutex
	events []HazardEvent
	closed bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishHazard(event HazardEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of everything published so far.
func (m *MockPublisher) Events() []HazardEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HazardEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Publisher = (*MockPublisher)(nil)

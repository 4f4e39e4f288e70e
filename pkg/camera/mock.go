package camera

import (
	"context"
	"sync"
)

// Mock is a Source for testing with configurable behavior.
type Mock struct {
	// CaptureFunc overrides Capture. If nil, Frame is returned.
	CaptureFunc func(ctx context.Context) ([]byte, error)

	// Frame is returned by the default Capture when CaptureFunc is nil.
	Frame []byte

	mu           sync.Mutex
	captureCount int
	closeCount   int
}

// NewMock returns a mock that serves the given frame forever.
func NewMock(frame []byte) *Mock {
	return &Mock{Frame: frame}
}

func (m *Mock) Capture(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	m.captureCount++
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx)
	}
	if len(m.Frame) == 0 {
		return nil, ErrEmptyFrame
	}
	return m.Frame, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closeCount++
	m.mu.Unlock()
	return nil
}

// CaptureCount returns how many times Capture was called.
func (m *Mock) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captureCount
}

// CloseCount returns how many times Close was called.
func (m *Mock) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

var _ Source = (*Mock)(nil)

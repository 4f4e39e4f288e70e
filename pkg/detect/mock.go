package detect

import (
	"context"
	"sync"
	"time"
)

// Mock implements Backend for testing.
// All methods can be customized via function fields.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, returns an empty available result.
	DetectFunc func(ctx context.Context, req *Request) (*Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// NameValue overrides the backend name.
	NameValue string

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock backend that returns empty successful results.
func NewMock() *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Result, error) {
			return &Result{Available: true, Backend: "mock"}, nil
		},
	}
}

// MockWithDetections returns a mock that always yields the given detections.
func MockWithDetections(dets ...Detection) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Result, error) {
			return &Result{Available: true, Backend: "mock", Detections: dets}, nil
		},
	}
}

// MockWithError returns a mock that always fails with the given error.
func MockWithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Result, error) {
			return nil, err
		},
	}
}

// MockBlocking returns a mock that blocks until its context expires,
// simulating a stalled backend.
func MockBlocking() *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, req *Request) (*Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, req *Request) (*Result, error) {
	m.recordCall("Detect")
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, req)
	}
	return &Result{Available: true, Backend: m.Name()}, nil
}

// Name identifies the backend in logs.
func (m *Mock) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Time: time.Now()})
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)

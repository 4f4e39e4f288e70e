package location

import (
	"context"
	"time"
)

// MockSource implements Source for testing, replaying a fixed set of
// samples at a configurable cadence.
type MockSource struct {
	// Samples are delivered in order.
	Samples []Sample

	// Interval between deliveries. Zero delivers immediately.
	Interval time.Duration

	// Loop restarts the sequence after the last sample.
	Loop bool
}

// Subscribe replays the configured samples.
func (m *MockSource) Subscribe(ctx context.Context, fn func(Sample)) error {
	for {
		for _, s := range m.Samples {
			if m.Interval > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(m.Interval):
				}
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
			fn(s)
		}
		if !m.Loop {
			<-ctx.Done()
			return ctx.Err()
		}
	}
}

// Close implements Source.
func (m *MockSource) Close() error { return nil }

// Verify MockSource implements Source at compile time.
var _ Source = (*MockSource)(nil)

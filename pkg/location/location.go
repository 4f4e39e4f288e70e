// Package location delivers speed samples from an external GPS feed.
// Samples are normalized to km/h before anyone downstream sees them.
package location

import (
	"context"
	"errors"
	"time"
)

// Sample is one instantaneous speed reading.
type Sample struct {
	// KMH is the speed in km/h, never negative.
	KMH float64

	// At is when the fix was taken.
	At time.Time
}

// Source is a speed feed. Subscribe blocks, invoking fn for every
// sample until the context is cancelled.
type Source interface {
	Subscribe(ctx context.Context, fn func(Sample)) error
	Close() error
}

// ErrNoEndpoint is returned when a WebSocket source has no URL.
var ErrNoEndpoint = errors.New("location: endpoint URL required")

// KMHFromMS converts meters per second to km/h.
func KMHFromMS(ms float64) float64 {
	return ms * 3.6
}

package camera

import (
	"context"
	"errors"
)

// Source produces still frames for the scan pipeline. Implementations
// must be safe for use from a single goroutine; the pipeline never
// captures concurrently.
type Source interface {
	// Capture returns one encoded frame (JPEG unless the device says
	// otherwise). A nil error with an empty frame is never returned.
	Capture(ctx context.Context) ([]byte, error)

	// Close releases the underlying device or connection.
	Close() error
}

var (
	ErrNoCamera   = errors.New("camera: no capture endpoint configured")
	ErrEmptyFrame = errors.New("camera: device returned an empty frame")
)

package camera

import (
	"fmt"
	"time"
)

// Config holds capture settings for the HTTP still source.
type Config struct {
	// URL is the still-capture endpoint, e.g. http://device:8000/api/camera/frame.
	URL string

	// Requested frame geometry. Zero means device default.
	Width  int
	Height int

	// Quality is the JPEG quality hint, 1-100. Zero means device default.
	Quality int

	// Timeout bounds a single capture. Captures race the scan cadence,
	// so this stays well under the fastest capture interval.
	Timeout time.Duration
}

// DefaultConfig returns settings tuned for detection: small frames keep
// upload time down without costing the detector much accuracy.
func DefaultConfig() Config {
	return Config{
		Width:   640,
		Height:  480,
		Quality: 80,
		Timeout: 3 * time.Second,
	}
}

// Validate reports configuration problems.
func (c Config) Validate() []string {
	var errs []string
	if c.URL == "" {
		errs = append(errs, "url is required")
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, "width and height must be non-negative")
	}
	if c.Quality < 0 || c.Quality > 100 {
		errs = append(errs, fmt.Sprintf("quality must be 0-100, got %d", c.Quality))
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}
	return errs
}

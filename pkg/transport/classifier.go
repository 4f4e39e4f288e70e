// Package transport classifies the user's movement mode from GPS speed
// samples. The mode scales how often frames are captured and how often
// alerts may repeat: a driver needs tighter cadence than a pedestrian.
//
// Raw GPS speed jitters, so classification runs on a moving average
// over a small sample window rather than instantaneous readings.
package transport

import (
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Mode is a coarse movement-speed classification.
type Mode string

const (
	ModeStationary Mode = "stationary"
	ModeWalking    Mode = "walking"
	ModeBiking     Mode = "biking"
	ModeDriving    Mode = "driving"
)

// Profile carries the timing a mode implies.
type Profile struct {
	// AlertInterval is the hazard alert cadence for the mode.
	AlertInterval time.Duration

	// CaptureInterval is the frame capture cadence for the mode.
	// Faster modes capture more often.
	CaptureInterval time.Duration
}

// DefaultProfiles returns the per-mode timing table.
func DefaultProfiles() map[Mode]Profile {
	return map[Mode]Profile{
		ModeStationary: {AlertInterval: 10 * time.Second, CaptureInterval: 5 * time.Second},
		ModeWalking:    {AlertInterval: 6 * time.Second, CaptureInterval: 3 * time.Second},
		ModeBiking:     {AlertInterval: 4 * time.Second, CaptureInterval: 1500 * time.Millisecond},
		ModeDriving:    {AlertInterval: 2 * time.Second, CaptureInterval: time.Second},
	}
}

// Thresholds are the mode cut lines in km/h. They are configuration,
// not per-call-site constants.
type Thresholds struct {
	StationaryMax float64 // below this: stationary
	WalkingMax    float64 // below this: walking
	BikingMax     float64 // below this: biking; above: driving
}

// DefaultThresholds returns the production cut lines.
func DefaultThresholds() Thresholds {
	return Thresholds{StationaryMax: 1, WalkingMax: 10, BikingMax: 28}
}

// Config holds classifier tuning.
type Config struct {
	Thresholds Thresholds

	// WindowSize is the moving-average window length in samples.
	WindowSize int

	// StaleAfter is how long without a GPS sample before the
	// classifier stops trusting the last known mode.
	StaleAfter time.Duration

	// StaleMode is assumed once samples go stale. Defaults to driving:
	// the most demanding cadence is the safe guess.
	StaleMode Mode
}

// DefaultConfig returns the production classifier configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds: DefaultThresholds(),
		WindowSize: 5,
		StaleAfter: 15 * time.Second,
		StaleMode:  ModeDriving,
	}
}

// Classifier converts a speed-sample stream into a movement mode with
// hysteresis via the smoothing window. Single writer (the location
// callback), many readers.
type Classifier struct {
	cfg      Config
	profiles map[Mode]Profile
	clock    func() time.Time
	logger   *slog.Logger

	// OnModeChange fires when the classified mode changes. Set before
	// the first Observe call.
	OnModeChange func(old, new Mode)

	mu           sync.RWMutex
	window       []float64
	mode         Mode
	smoothed     float64
	lastSampleAt time.Time
}

// New creates a classifier starting in stationary mode.
func New(cfg Config) *Classifier {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.StaleMode == "" {
		cfg.StaleMode = ModeDriving
	}
	return &Classifier{
		cfg:      cfg,
		profiles: DefaultProfiles(),
		clock:    time.Now,
		logger:   slog.Default().With("component", "transport"),
		mode:     ModeStationary,
	}
}

// SetClock overrides the time source (tests).
func (c *Classifier) SetClock(clock func() time.Time) {
	c.clock = clock
}

// Observe feeds one speed sample in km/h and returns the resulting mode.
func (c *Classifier) Observe(speedKmh float64) Mode {
	if speedKmh < 0 {
		speedKmh = 0
	}

	c.mu.Lock()
	c.window = append(c.window, speedKmh)
	if len(c.window) > c.cfg.WindowSize {
		c.window = c.window[len(c.window)-c.cfg.WindowSize:]
	}
	smoothed := stat.Mean(c.window, nil)
	c.smoothed = smoothed
	c.lastSampleAt = c.clock()

	old := c.mode
	c.mode = c.cfg.Thresholds.Classify(smoothed)
	mode := c.mode
	changed := old != mode
	onChange := c.OnModeChange
	c.mu.Unlock()

	if changed {
		c.logger.Info("transport mode changed",
			"from", old,
			"to", mode,
			"smoothed_kmh", smoothed,
		)
		if onChange != nil {
			onChange(old, mode)
		}
	}
	return mode
}

// Classify maps a smoothed speed to a mode. Pure function of the
// thresholds.
func (t Thresholds) Classify(speedKmh float64) Mode {
	switch {
	case speedKmh < t.StationaryMax:
		return ModeStationary
	case speedKmh < t.WalkingMax:
		return ModeWalking
	case speedKmh < t.BikingMax:
		return ModeBiking
	default:
		return ModeDriving
	}
}

// Current returns the mode in effect: the last classified mode, or the
// configured stale fallback once GPS has been silent past StaleAfter.
func (c *Classifier) Current() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastSampleAt.IsZero() || c.clock().Sub(c.lastSampleAt) > c.cfg.StaleAfter {
		return c.cfg.StaleMode
	}
	return c.mode
}

// CurrentSpeed returns the smoothed speed in km/h, zero once stale.
func (c *Classifier) CurrentSpeed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastSampleAt.IsZero() || c.clock().Sub(c.lastSampleAt) > c.cfg.StaleAfter {
		return 0
	}
	return c.smoothed
}

// ProfileFor returns the timing profile of a mode.
func (c *Classifier) ProfileFor(mode Mode) Profile {
	return c.profiles[mode]
}

// CurrentProfile returns the timing profile in effect.
func (c *Classifier) CurrentProfile() Profile {
	return c.profiles[c.Current()]
}

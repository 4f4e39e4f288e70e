// Package alert turns prioritized hazards into spoken output.
//
// The scheduler owns a priority-ordered queue with per-alert cooldowns,
// plays at most one utterance at a time, and lets critical alerts cut
// off whatever is currently speaking. The speech engine itself is an
// external capability consumed through the Speaker interface.
package alert

import (
	"context"
	"time"

	"github.com/chromapath/chromapath/pkg/hazard"
)

// Alert is one queued announcement. The ID is stable per hazard
// location and type, not per detection, so repeated sightings of the
// same light collapse into one cooldown-tracked identity.
type Alert struct {
	ID        string
	Message   string
	Priority  hazard.Priority
	CreatedAt time.Time
}

// PriorityCustom ranks non-hazard announcements. Its score is 0, below
// every hazard tier, so a queued announcement never delays a hazard.
const PriorityCustom = hazard.Priority("custom")

// Params carries the priority-derived delivery hints handed to the
// utterance player.
type Params struct {
	// Rate is the speech-rate multiplier (1.0 = normal).
	Rate float64

	// Pitch is the voice-pitch multiplier (1.0 = normal).
	Pitch float64
}

// ParamsFor maps a priority tier to delivery hints: urgent alerts are
// spoken faster and slightly higher.
func ParamsFor(p hazard.Priority) Params {
	switch p {
	case hazard.PriorityCritical:
		return Params{Rate: 1.25, Pitch: 1.15}
	case hazard.PriorityHigh:
		return Params{Rate: 1.1, Pitch: 1.05}
	case hazard.PriorityLow:
		return Params{Rate: 0.95, Pitch: 1.0}
	default:
		return Params{Rate: 1.0, Pitch: 1.0}
	}
}

// Speaker is the external utterance player. Playback is exclusive
// process-wide; Play blocks until the utterance completes or the
// context is cancelled.
type Speaker interface {
	Play(ctx context.Context, text string, p Params) error
	Stop()
	Speaking() bool
}

// Default per-priority cooldowns: the minimum time between two plays of
// the same alert ID.
func DefaultCooldowns() map[hazard.Priority]time.Duration {
	return map[hazard.Priority]time.Duration{
		hazard.PriorityCritical: 3 * time.Second,
		hazard.PriorityHigh:     5 * time.Second,
		hazard.PriorityMedium:   7 * time.Second,
		hazard.PriorityLow:      10 * time.Second,
	}
}

// DefaultMaxQueue bounds worst-case announcement latency: beyond this
// depth the lowest-priority tail entry is dropped.
const DefaultMaxQueue = 10

// Package telemetry publishes hazard events to an external stream so
// ride sessions can be analyzed after the fact. Publishing is strictly
// best-effort: the alert path never waits on, or fails because of, the
// event stream.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chromapath/chromapath/pkg/hazard"
	"github.com/chromapath/chromapath/pkg/transport"
	"github.com/chromapath/chromapath/pkg/vision"
)

// HazardEvent is one published hazard sighting.
type HazardEvent struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`

	Class      string  `json:"class"`
	ColorState string  `json:"color_state,omitempty"`
	Priority   string  `json:"priority"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`

	WarningDistanceMeters float64 `json:"warning_distance_meters"`
	SpeedKMH              float64 `json:"speed_kmh"`

	TransportMode string `json:"transport_mode"`
	VisionType    string `json:"vision_type"`
}

// NewHazardEvent builds an event from one prioritized hazard and the
// rider's current context.
func NewHazardEvent(sessionID string, h *hazard.PrioritizedHazard, mode transport.Mode, speedKMH float64, visionType vision.Type) HazardEvent {
	return HazardEvent{
		EventID:               uuid.New().String(),
		SessionID:             sessionID,
		At:                    time.Now(),
		Class:                 h.Detection.Class,
		ColorState:            string(h.Detection.ColorState),
		Priority:              string(h.Priority()),
		Message:               h.Message,
		Confidence:            h.Detection.Confidence,
		WarningDistanceMeters: h.WarningDistanceMeters,
		SpeedKMH:              speedKMH,
		TransportMode:         string(mode),
		VisionType:            string(visionType),
	}
}

// ToJSON serializes the event for the wire.
func (e HazardEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher sinks hazard events somewhere durable.
type Publisher interface {
	// PublishHazard enqueues one event. It must return quickly;
	// delivery happens asynchronously.
	PublishHazard(event HazardEvent) error

	// Close flushes pending events and releases the connection.
	Close() error
}

// Nop is the publisher used when no event stream is configured.
type Nop struct{}

func (Nop) PublishHazard(HazardEvent) error { return nil }
func (Nop) Close() error                    { return nil }

var _ Publisher = Nop{}

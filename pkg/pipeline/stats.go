package pipeline

import (
	"time"

	"github.com/chromapath/chromapath/pkg/colorsample"
	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/hazard"
)

// Report describes one scan cycle. The dashboard streams these to
// connected clients.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	FrameBytes int                `json:"frame_bytes"`
	Sample     colorsample.Result `json:"sample"`

	// GateSkipped means the cheap color scan saw nothing worth a
	// detection call.
	GateSkipped bool `json:"gate_skipped"`

	// Throttled means the detection gateway refused the call to honor
	// its minimum interval.
	Throttled bool `json:"throttled"`

	// Unavailable means every detection backend failed this cycle.
	Unavailable bool `json:"unavailable"`

	Backend    string                     `json:"backend,omitempty"`
	Detections []detect.Detection         `json:"detections,omitempty"`
	Hazards    []hazard.PrioritizedHazard `json:"hazards,omitempty"`

	Err error `json:"-"`
}

// Stats are cumulative counters over the loop's lifetime.
type Stats struct {
	Scans        uint64    `json:"scans"`
	TicksSkipped uint64    `json:"ticks_skipped"`
	GateSkips    uint64    `json:"gate_skips"`
	Throttled    uint64    `json:"throttled"`
	Unavailable  uint64    `json:"unavailable"`
	Detections   uint64    `json:"detections"`
	Hazards      uint64    `json:"hazards"`
	Errors       uint64    `json:"errors"`
	LastScanAt   time.Time `json:"last_scan_at"`
	LastBackend  string    `json:"last_backend,omitempty"`
}

func (s *Stats) apply(r *Report) {
	s.Scans++
	s.LastScanAt = r.StartedAt
	if r.Backend != "" {
		s.LastBackend = r.Backend
	}
	switch {
	case r.Err != nil:
		s.Errors++
	case r.GateSkipped:
		s.GateSkips++
	case r.Throttled:
		s.Throttled++
	case r.Unavailable:
		s.Unavailable++
	}
	s.Detections += uint64(len(r.Detections))
	s.Hazards += uint64(len(r.Hazards))
}

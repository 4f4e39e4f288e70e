package hazard

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/vision"
)

// Base warning distances in meters per priority tier, before speed
// scaling.
var baseDistance = map[Priority]float64{
	PriorityCritical: 50,
	PriorityHigh:     35,
	PriorityMedium:   20,
	PriorityLow:      10,
}

// speedDivisor is the km/h per unit of distance scaling: at 20 km/h the
// base distance applies, at 40 km/h it doubles.
const speedDivisor = 20.0

// PrioritizedHazard is a detection that matched a rule, with its spoken
// message and speed-adjusted warning distance computed.
type PrioritizedHazard struct {
	Detection detect.Detection
	Rule      *Rule

	Message               string
	WarningDistanceMeters float64
	PriorityScore         int
}

// Priority returns the matched rule's priority tier.
func (h *PrioritizedHazard) Priority() Priority {
	return h.Rule.Priority
}

// AlertID is stable per hazard location and type, not per detection, so
// the same light seen across consecutive cycles deduplicates in the
// alert queue.
func (h *PrioritizedHazard) AlertID() string {
	cx, _ := h.Detection.Box.Center()
	return fmt.Sprintf("%s:%s:%s", h.Detection.Class, h.Detection.ColorState, horizontalBucket(cx))
}

// horizontalBucket maps a normalized x coordinate to a coarse position.
func horizontalBucket(x float64) string {
	switch {
	case x < 1.0/3:
		return "left"
	case x < 2.0/3:
		return "center"
	default:
		return "right"
	}
}

// Prioritizer filters detections against the rule table.
type Prioritizer struct {
	rules  []Rule
	logger *slog.Logger
}

// NewPrioritizer creates a prioritizer. Passing nil rules uses the
// default table.
func NewPrioritizer(rules []Rule) *Prioritizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Prioritizer{
		rules:  rules,
		logger: slog.Default().With("component", "hazard"),
	}
}

// Filter maps detections to prioritized hazards for the given profile
// and current speed. Unmatched detections are dropped. Output is
// ordered by descending priority score; ties keep detection order.
func (p *Prioritizer) Filter(detections []detect.Detection, profile vision.Profile, speedKmh float64) []PrioritizedHazard {
	hazards := make([]PrioritizedHazard, 0, len(detections))

	for _, d := range detections {
		rule := p.match(d, profile)
		if rule == nil {
			continue
		}
		hazards = append(hazards, PrioritizedHazard{
			Detection:             d,
			Rule:                  rule,
			Message:               selectMessage(rule, profile),
			WarningDistanceMeters: warningDistance(rule, speedKmh),
			PriorityScore:         rule.Priority.Score(),
		})
	}

	sort.SliceStable(hazards, func(i, j int) bool {
		return hazards[i].PriorityScore > hazards[j].PriorityScore
	})
	return hazards
}

// match finds the first rule covering the detection and profile.
func (p *Prioritizer) match(d detect.Detection, profile vision.Profile) *Rule {
	for i := range p.rules {
		r := &p.rules[i]
		if r.ObjectClass != d.Class {
			continue
		}
		if r.ColorState != "" && r.ColorState != d.ColorState {
			continue
		}
		if !r.appliesTo(profile) {
			continue
		}
		return r
	}
	return nil
}

// selectMessage picks the enhanced positional message for any user who
// cannot rely on color alone.
func selectMessage(r *Rule, profile vision.Profile) string {
	if profile.Type != vision.TypeNormal && r.EnhancedMessage != "" {
		return r.EnhancedMessage
	}
	return r.BaseMessage
}

// warningDistance scales the tier's base distance by speed and applies
// the rule's close-range cap if set.
func warningDistance(r *Rule, speedKmh float64) float64 {
	scale := speedKmh / speedDivisor
	if scale < 1 {
		scale = 1
	}
	d := baseDistance[r.Priority] * scale
	if r.MinDistance > 0 && d > r.MinDistance {
		d = r.MinDistance
	}
	return d
}

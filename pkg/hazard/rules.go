// Package hazard maps raw detections to user-relevant hazards.
//
// A static rule table decides whether a detected object matters to a
// given vision profile, how urgently, and with which spoken message.
// Detections with no matching rule still exist for the UI but never
// generate an alert.
package hazard

import (
	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/vision"
)

// Priority is an alert urgency tier.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Score returns the numeric ordering value of a priority (critical=4,
// low=1, unknown=0).
func (p Priority) Score() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Rule is one immutable entry of the hazard table.
type Rule struct {
	// ObjectClass is the normalized detection class this rule matches.
	ObjectClass string

	// ColorState restricts the rule to detections in this color state.
	// Empty matches any state.
	ColorState detect.ColorState

	// AffectedVisionTypes lists the profiles this rule applies to.
	// The low_vision wildcard profile matches every rule regardless.
	AffectedVisionTypes []vision.Type

	// Priority is the urgency tier.
	Priority Priority

	// BaseMessage is spoken for users with normal color vision.
	BaseMessage string

	// EnhancedMessage adds a positional cue (top/middle/bottom lamp)
	// for users who cannot rely on the color itself. Optional.
	EnhancedMessage string

	// MinDistance caps the warning distance in meters for hazards that
	// are only relevant at close range regardless of speed. Zero means
	// no cap.
	MinDistance float64
}

// appliesTo reports whether the rule covers the given profile.
func (r *Rule) appliesTo(p vision.Profile) bool {
	if p.Wildcard() {
		return true
	}
	for _, t := range r.AffectedVisionTypes {
		if t == p.Type {
			return true
		}
	}
	return false
}

// Vision type groups used by the default table.
var (
	redAffected = []vision.Type{
		vision.TypeProtanopia, vision.TypeProtanomaly,
		vision.TypeDeuteranopia, vision.TypeDeuteranomaly,
		vision.TypeAchromatopsia,
	}
	yellowAffected = []vision.Type{
		vision.TypeDeuteranopia, vision.TypeDeuteranomaly,
		vision.TypeTritanopia, vision.TypeTritanomaly,
		vision.TypeAchromatopsia,
	}
	greenAffected = []vision.Type{
		vision.TypeProtanopia, vision.TypeDeuteranopia,
		vision.TypeDeuteranomaly, vision.TypeAchromatopsia,
	}
	anyDeficiency = []vision.Type{
		vision.TypeProtanopia, vision.TypeProtanomaly,
		vision.TypeDeuteranopia, vision.TypeDeuteranomaly,
		vision.TypeTritanopia, vision.TypeTritanomaly,
		vision.TypeAchromatopsia,
	}
	everyone = append([]vision.Type{vision.TypeNormal}, anyDeficiency...)
)

// DefaultRules returns the production hazard table. Order matters:
// matching picks the first applicable rule.
func DefaultRules() []Rule {
	return []Rule{
		{
			ObjectClass:         "traffic_light",
			ColorState:          detect.ColorRed,
			AffectedVisionTypes: redAffected,
			Priority:            PriorityCritical,
			BaseMessage:         "Red light ahead, prepare to stop",
			EnhancedMessage:     "Red light ahead, top lamp is lit, prepare to stop",
		},
		{
			ObjectClass:         "traffic_light",
			ColorState:          detect.ColorYellow,
			AffectedVisionTypes: yellowAffected,
			Priority:            PriorityHigh,
			BaseMessage:         "Yellow light ahead, slow down",
			EnhancedMessage:     "Yellow light ahead, middle lamp is lit, slow down",
		},
		{
			ObjectClass:         "traffic_light",
			ColorState:          detect.ColorGreen,
			AffectedVisionTypes: greenAffected,
			Priority:            PriorityMedium,
			BaseMessage:         "Green light ahead",
			EnhancedMessage:     "Green light ahead, bottom lamp is lit",
		},
		{
			// Light detected but color unresolved: still worth a
			// heads-up for anyone who cannot read the lamps.
			ObjectClass:         "traffic_light",
			AffectedVisionTypes: anyDeficiency,
			Priority:            PriorityHigh,
			BaseMessage:         "Traffic light ahead, state unclear",
			EnhancedMessage:     "Traffic light ahead, check which lamp is lit",
		},
		{
			ObjectClass:         "stop_sign",
			AffectedVisionTypes: redAffected,
			Priority:            PriorityCritical,
			BaseMessage:         "Stop sign ahead",
			EnhancedMessage:     "Stop sign ahead, octagonal sign on the right",
		},
		{
			ObjectClass:         "car",
			ColorState:          detect.ColorRed,
			AffectedVisionTypes: redAffected,
			Priority:            PriorityHigh,
			BaseMessage:         "Brake lights ahead",
			EnhancedMessage:     "Brake lights on the vehicle ahead",
			MinDistance:         30,
		},
		{
			ObjectClass:         "truck",
			ColorState:          detect.ColorRed,
			AffectedVisionTypes: redAffected,
			Priority:            PriorityHigh,
			BaseMessage:         "Truck braking ahead",
			EnhancedMessage:     "Brake lights on the truck ahead",
			MinDistance:         30,
		},
		{
			ObjectClass:         "bus",
			ColorState:          detect.ColorRed,
			AffectedVisionTypes: redAffected,
			Priority:            PriorityHigh,
			BaseMessage:         "Bus braking ahead",
			EnhancedMessage:     "Brake lights on the bus ahead",
			MinDistance:         30,
		},
		{
			ObjectClass:         "person",
			AffectedVisionTypes: everyone,
			Priority:            PriorityMedium,
			BaseMessage:         "Pedestrian ahead",
			EnhancedMessage:     "Pedestrian ahead of you",
		},
		{
			ObjectClass:         "bicycle",
			AffectedVisionTypes: everyone,
			Priority:            PriorityMedium,
			BaseMessage:         "Cyclist ahead",
		},
		{
			ObjectClass:         "train",
			AffectedVisionTypes: everyone,
			Priority:            PriorityMedium,
			BaseMessage:         "Train crossing ahead",
		},
		{
			ObjectClass:         "fire_hydrant",
			AffectedVisionTypes: redAffected,
			Priority:            PriorityLow,
			BaseMessage:         "Fire hydrant on the curb",
		},
	}
}

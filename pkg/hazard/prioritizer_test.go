package hazard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/vision"
)

func redLight() detect.Detection {
	return detect.Detection{
		ID:         "d1",
		Class:      "traffic_light",
		Confidence: 0.9,
		ColorState: detect.ColorRed,
		Box:        detect.Rect{X: 0.4, Y: 0.1, W: 0.1, H: 0.2},
	}
}

func TestRedLightForDeuteranopiaAt40(t *testing.T) {
	p := NewPrioritizer(nil)
	profile := vision.NewProfile(vision.TypeDeuteranopia)

	hazards := p.Filter([]detect.Detection{redLight()}, profile, 40)
	require.Len(t, hazards, 1)

	h := hazards[0]
	assert.Equal(t, PriorityCritical, h.Priority())
	assert.Equal(t, 4, h.PriorityScore)
	// 50 * max(1, 40/20) = 100, no MinDistance cap on this rule.
	assert.InDelta(t, 100.0, h.WarningDistanceMeters, 1e-9)
	assert.Contains(t, h.Message, "top lamp")
}

func TestNormalVisionGetsBaseMessageAndNoColorRules(t *testing.T) {
	p := NewPrioritizer(nil)
	normal := vision.NewProfile(vision.TypeNormal)

	// A red light rule does not apply to normal vision at all.
	assert.Empty(t, p.Filter([]detect.Detection{redLight()}, normal, 10))

	// But a pedestrian matters to everyone, with the base message.
	ped := detect.Detection{Class: "person", Confidence: 0.8, Box: detect.Rect{X: 0.45, W: 0.1}}
	hazards := p.Filter([]detect.Detection{ped}, normal, 0)
	require.Len(t, hazards, 1)
	assert.Equal(t, "Pedestrian ahead", hazards[0].Message)
}

func TestLowVisionWildcardMatchesEveryRule(t *testing.T) {
	p := NewPrioritizer(nil)
	lv := vision.NewProfile(vision.TypeLowVision)

	green := redLight()
	green.ColorState = detect.ColorGreen
	hydrant := detect.Detection{Class: "fire_hydrant", Confidence: 0.7}

	hazards := p.Filter([]detect.Detection{green, hydrant}, lv, 0)
	require.Len(t, hazards, 2)
	// Enhanced message even though low_vision is not a color deficiency.
	assert.Contains(t, hazards[0].Message, "bottom lamp")
}

func TestUnmatchedDetectionsAreDropped(t *testing.T) {
	p := NewPrioritizer(nil)
	profile := vision.NewProfile(vision.TypeProtanopia)

	dets := []detect.Detection{
		{Class: "potted_plant", Confidence: 0.9},
		{Class: "laptop", Confidence: 0.9},
	}
	assert.Empty(t, p.Filter(dets, profile, 0))
}

func TestBrakeLightDistanceIsCapped(t *testing.T) {
	p := NewPrioritizer(nil)
	profile := vision.NewProfile(vision.TypeProtanopia)

	braking := detect.Detection{Class: "car", ColorState: detect.ColorRed, Confidence: 0.8}
	hazards := p.Filter([]detect.Detection{braking}, profile, 80)
	require.Len(t, hazards, 1)

	// 35 * 4 = 140, capped to the rule's 30m close-range bound.
	assert.InDelta(t, 30.0, hazards[0].WarningDistanceMeters, 1e-9)
}

func TestLowSpeedNeverShrinksDistance(t *testing.T) {
	p := NewPrioritizer(nil)
	profile := vision.NewProfile(vision.TypeDeuteranopia)

	hazards := p.Filter([]detect.Detection{redLight()}, profile, 3)
	require.Len(t, hazards, 1)
	assert.InDelta(t, 50.0, hazards[0].WarningDistanceMeters, 1e-9)
}

func TestOrderingIsPriorityDescendingAndStable(t *testing.T) {
	p := NewPrioritizer(nil)
	profile := vision.NewProfile(vision.TypeDeuteranopia)

	pedLeft := detect.Detection{Class: "person", Box: detect.Rect{X: 0.0, W: 0.1}}
	pedRight := detect.Detection{Class: "person", Box: detect.Rect{X: 0.8, W: 0.1}}
	dets := []detect.Detection{pedLeft, pedRight, redLight()}

	hazards := p.Filter(dets, profile, 0)
	require.Len(t, hazards, 3)
	assert.Equal(t, "traffic_light", hazards[0].Detection.Class)
	// The two pedestrians keep their detection order.
	assert.Equal(t, "left", horizontalBucket(mustCenterX(hazards[1].Detection)))
	assert.Equal(t, "right", horizontalBucket(mustCenterX(hazards[2].Detection)))
}

func mustCenterX(d detect.Detection) float64 {
	x, _ := d.Box.Center()
	return x
}

func TestAlertIDStableAcrossDetections(t *testing.T) {
	p := NewPrioritizer(nil)
	profile := vision.NewProfile(vision.TypeDeuteranopia)

	first := redLight()
	second := redLight()
	second.ID = "d2"
	second.Box.X += 0.02 // same light, slightly different box

	h1 := p.Filter([]detect.Detection{first}, profile, 0)[0]
	h2 := p.Filter([]detect.Detection{second}, profile, 0)[0]
	assert.Equal(t, h1.AlertID(), h2.AlertID())
}

func TestUnknownColorLightStillWarnsDeficientUsers(t *testing.T) {
	p := NewPrioritizer(nil)

	dark := redLight()
	dark.ColorState = detect.ColorUnknown

	hazards := p.Filter([]detect.Detection{dark}, vision.NewProfile(vision.TypeTritanopia), 0)
	require.Len(t, hazards, 1)
	assert.Equal(t, PriorityHigh, hazards[0].Priority())
}

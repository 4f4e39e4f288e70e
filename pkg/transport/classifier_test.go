package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyThresholds(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		kmh  float64
		want Mode
	}{
		{0, ModeStationary},
		{0.9, ModeStationary},
		{1, ModeWalking},
		{9.9, ModeWalking},
		{10, ModeBiking},
		{27.9, ModeBiking},
		{28, ModeDriving},
		{120, ModeDriving},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, th.Classify(c.kmh), "speed %.1f", c.kmh)
	}
}

// Sequences strictly below a threshold never produce the mode above it,
// regardless of ordering, because the mean of values below a bound
// stays below the bound.
func TestClassifierMonotonicInThresholds(t *testing.T) {
	c := New(DefaultConfig())

	for _, kmh := range []float64{9, 8.5, 9.9, 7, 9.5, 9.8, 9.2} {
		mode := c.Observe(kmh)
		assert.NotEqual(t, ModeBiking, mode)
		assert.NotEqual(t, ModeDriving, mode)
	}
	assert.Equal(t, ModeWalking, c.Current())
}

func TestSmoothingAbsorbsGPSJitter(t *testing.T) {
	c := New(DefaultConfig())

	// Steady walking pace with one jitter spike.
	for _, kmh := range []float64{5, 5, 5, 5} {
		c.Observe(kmh)
	}
	mode := c.Observe(40) // single bad fix
	assert.Equal(t, ModeBiking, mode, "mean of {5,5,5,5,40}=12 crosses into biking, not driving")

	// Window slides back down as good fixes return.
	for _, kmh := range []float64{5, 5, 5, 5, 5} {
		mode = c.Observe(kmh)
	}
	assert.Equal(t, ModeWalking, mode)
}

func TestModeChangeCallback(t *testing.T) {
	c := New(DefaultConfig())

	var changes []Mode
	c.OnModeChange = func(old, new Mode) {
		changes = append(changes, new)
	}

	c.Observe(0)  // stationary, no change from initial
	c.Observe(50) // mean 25 -> biking
	c.Observe(50) // mean ~33 -> driving
	c.Observe(50)

	assert.Equal(t, []Mode{ModeBiking, ModeDriving}, changes)
}

func TestStaleGPSFallsBackToDriving(t *testing.T) {
	now := time.Unix(1000, 0)
	c := New(DefaultConfig())
	c.SetClock(func() time.Time { return now })

	// No samples yet: assume the demanding default.
	assert.Equal(t, ModeDriving, c.Current())

	c.Observe(5)
	assert.Equal(t, ModeWalking, c.Current())
	assert.InDelta(t, 5.0, c.CurrentSpeed(), 1e-9)

	// Within the stale window the last known mode holds.
	now = now.Add(10 * time.Second)
	assert.Equal(t, ModeWalking, c.Current())

	// Past it, fall back rather than freezing silently.
	now = now.Add(10 * time.Second)
	assert.Equal(t, ModeDriving, c.Current())
	assert.Zero(t, c.CurrentSpeed())
}

func TestProfilesScaleWithMode(t *testing.T) {
	c := New(DefaultConfig())

	slow := c.ProfileFor(ModeStationary)
	fast := c.ProfileFor(ModeDriving)
	assert.Greater(t, slow.CaptureInterval, fast.CaptureInterval,
		"faster mode must capture more often")
	assert.Greater(t, slow.AlertInterval, fast.AlertInterval)
}

// Package colorsample implements a fast pre-filter over raw frame bytes.
//
// The sampler decides whether a frame is worth sending to a remote
// detector at all. It never decodes the image: it strides over raw byte
// triplets and looks for signal-lamp colors with deliberately crude,
// high-recall heuristics. A false positive costs one remote call; a
// false negative is a missed traffic signal, so every failure path
// reports candidates as present.
package colorsample

import (
	"log/slog"
	"time"
)

// Channel is a candidate signal color bucket.
type Channel string

const (
	ChannelRed    Channel = "red"
	ChannelYellow Channel = "yellow"
	ChannelGreen  Channel = "green"
)

// Result is the outcome of sampling one frame.
type Result struct {
	// HasCandidateColors is true when any bucket's share of valid
	// samples exceeds the configured sensitivity.
	HasCandidateColors bool

	// Percentages holds each bucket's share of valid samples (0-100).
	Percentages map[Channel]float64

	// ValidSamples is the number of samples inside the brightness band.
	ValidSamples int

	// ProcessingTime is how long the scan took.
	ProcessingTime time.Duration

	// Degraded is true when sampling failed and the result is the
	// conservative fail-open default.
	Degraded bool
}

// Config holds sampler tuning parameters.
type Config struct {
	// HeaderOffset is how many leading bytes to skip. Compressed frame
	// buffers start with header structures, not pixel data.
	HeaderOffset int

	// SampleCount is how many byte triplets to examine per frame.
	SampleCount int

	// MinBrightness and MaxBrightness bound the r+g+b sum of a valid
	// sample. Traffic-light glow is neither near-black nor blown out.
	MinBrightness int
	MaxBrightness int

	// Dominance ratios per bucket. Red must beat both other channels
	// by RedDominance, green by GreenDominance; yellow needs both red
	// and green to beat blue by YellowDominance.
	RedDominance    float64
	GreenDominance  float64
	YellowDominance float64

	// SensitivityPct is the bucket share (percent of valid samples)
	// above which the frame has candidate colors.
	SensitivityPct float64
}

// DefaultConfig returns the production sampler tuning.
func DefaultConfig() Config {
	return Config{
		HeaderOffset:    128,
		SampleCount:     512,
		MinBrightness:   90,
		MaxBrightness:   690,
		RedDominance:    1.4,
		GreenDominance:  1.3,
		YellowDominance: 1.5,
		SensitivityPct:  0.3,
	}
}

// Sampler scans raw frame buffers for candidate signal colors.
type Sampler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a sampler with the given config.
func New(cfg Config) *Sampler {
	return &Sampler{
		cfg:    cfg,
		logger: slog.Default().With("component", "colorsample"),
	}
}

// Sample scans one frame buffer. It never panics: any internal failure
// yields the fail-open result so detection is not silently starved.
func (s *Sampler) Sample(frame []byte) (result Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sampler recovered, failing open", "panic", r)
			result = s.failOpen(start)
		}
	}()

	usable := len(frame) - s.cfg.HeaderOffset
	if usable < 3 {
		// Nothing to judge the frame by; let the detector decide.
		return s.failOpen(start)
	}

	samples := s.cfg.SampleCount
	stride := usable / samples
	if stride < 3 {
		stride = 3
		samples = usable / stride
	}

	var valid, red, yellow, green int
	for i := 0; i < samples; i++ {
		off := s.cfg.HeaderOffset + i*stride
		r := int(frame[off])
		g := int(frame[off+1])
		b := int(frame[off+2])

		brightness := r + g + b
		if brightness < s.cfg.MinBrightness || brightness > s.cfg.MaxBrightness {
			continue
		}
		valid++

		rf, gf, bf := float64(r), float64(g), float64(b)
		switch {
		case rf > gf*s.cfg.RedDominance && rf > bf*s.cfg.RedDominance:
			red++
		case rf > bf*s.cfg.YellowDominance && gf > bf*s.cfg.YellowDominance:
			yellow++
		case gf > rf*s.cfg.GreenDominance && gf > bf*s.cfg.GreenDominance:
			green++
		}
	}

	result = Result{
		Percentages:    make(map[Channel]float64, 3),
		ValidSamples:   valid,
		ProcessingTime: time.Since(start),
	}
	if valid == 0 {
		return result
	}

	result.Percentages[ChannelRed] = float64(red) / float64(valid) * 100
	result.Percentages[ChannelYellow] = float64(yellow) / float64(valid) * 100
	result.Percentages[ChannelGreen] = float64(green) / float64(valid) * 100

	for _, pct := range result.Percentages {
		if pct > s.cfg.SensitivityPct {
			result.HasCandidateColors = true
			break
		}
	}
	return result
}

// failOpen builds the conservative "candidates present" result.
func (s *Sampler) failOpen(start time.Time) Result {
	return Result{
		HasCandidateColors: true,
		Percentages:        map[Channel]float64{},
		ProcessingTime:     time.Since(start),
		Degraded:           true,
	}
}

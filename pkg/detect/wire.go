package detect

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Wire shapes for the color-aware detection service. Both the proxy
// and the direct backend speak this protocol; only the outer envelope
// differs.

type wireRequest struct {
	Image              string  `json:"image"`
	ColorblindnessType string  `json:"colorblindness_type"`
	MinConfidence      float64 `json:"min_confidence"`
}

type wireBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type wireObject struct {
	Label          string   `json:"label"`
	Confidence     float64  `json:"confidence"`
	Box            wireBox  `json:"bbox"`
	DominantColors []string `json:"dominant_colors"`
	Problematic    bool     `json:"is_problematic_color"`
	ColorWarning   string   `json:"color_warning"`
	Priority       string   `json:"priority"`
}

type wireResponse struct {
	Success          bool         `json:"success"`
	Objects          []wireObject `json:"objects"`
	FrameWidth       int          `json:"frame_width"`
	FrameHeight      int          `json:"frame_height"`
	ProcessingTimeMs float64      `json:"processing_time_ms"`
	AlertMessage     string       `json:"alert_message"`
}

// toResult normalizes a service response: pixel boxes become 0-1
// rects, labels become snake_case, signal colors are derived from the
// dominant-color list. Total and side-effect-free.
func (w *wireResponse) toResult(backend string) (*Result, error) {
	if !w.Success {
		return nil, fmt.Errorf("%w: success=false", ErrBadPayload)
	}
	if w.FrameWidth <= 0 || w.FrameHeight <= 0 {
		return nil, fmt.Errorf("%w: frame dims %dx%d", ErrBadPayload, w.FrameWidth, w.FrameHeight)
	}

	fw, fh := float64(w.FrameWidth), float64(w.FrameHeight)
	dets := make([]Detection, 0, len(w.Objects))
	for _, obj := range w.Objects {
		d := Detection{
			ID:         uuid.NewString(),
			Class:      NormalizeClass(obj.Label),
			Confidence: clamp01(obj.Confidence),
			Box: Rect{
				X: clamp01(float64(obj.Box.X) / fw),
				Y: clamp01(float64(obj.Box.Y) / fh),
				W: clamp01(float64(obj.Box.Width) / fw),
				H: clamp01(float64(obj.Box.Height) / fh),
			},
			DominantColors: obj.DominantColors,
			Problematic:    obj.Problematic,
			Warning:        obj.ColorWarning,
		}
		if isSignalClass(d.Class) {
			d.ColorState = signalColor(obj.DominantColors)
		}
		dets = append(dets, d)
	}

	return &Result{
		Available:      true,
		Detections:     dets,
		Backend:        backend,
		ProcessingTime: time.Duration(w.ProcessingTimeMs * float64(time.Millisecond)),
		AlertMessage:   w.AlertMessage,
	}, nil
}

// isSignalClass reports whether color state matters for a class.
func isSignalClass(class string) bool {
	switch class {
	case "traffic_light", "stop_sign":
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

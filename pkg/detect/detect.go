// Package detect dispatches camera frames to remote object-detection
// backends and normalizes their responses into one Detection shape.
//
// Backends are ranked: the primary proxy, the direct detection service,
// and a third-party fallback. The Gateway tries them in order, each
// attempt under its own timeout, and throttles calls to a global
// minimum interval. If every backend fails the caller gets an explicit
// "unavailable" result, never an error: a missed detection cycle must
// degrade to silence, not crash the scan loop.
package detect

import (
	"context"
	"strings"
	"time"

	"github.com/chromapath/chromapath/pkg/vision"
)

// ColorState is the observed color of a signal-type object.
type ColorState string

const (
	ColorUnknown ColorState = "unknown"
	ColorRed     ColorState = "red"
	ColorYellow  ColorState = "yellow"
	ColorGreen   ColorState = "green"
)

// Rect is a bounding box in normalized coordinates (0-1).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the center point of the rect.
func (r Rect) Center() (x, y float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Detection is one detected object, normalized across backends:
// snake_case class names, 0-1 coordinates, 0-1 confidence.
type Detection struct {
	ID             string     `json:"id"`
	Class          string     `json:"class"`
	Confidence     float64    `json:"confidence"`
	Box            Rect       `json:"box"`
	ColorState     ColorState `json:"color_state,omitempty"`
	DominantColors []string   `json:"dominant_colors,omitempty"`
	Problematic    bool       `json:"problematic,omitempty"`
	Warning        string     `json:"warning,omitempty"`
}

// Request is the normalized detection request sent to any backend.
type Request struct {
	// Frame is the raw captured image.
	Frame []byte

	// VisionType hints the backend which colors matter to the user.
	VisionType vision.Type

	// MinConfidence filters detections below this confidence.
	MinConfidence float64
}

// Result is the normalized response from one detection call.
type Result struct {
	// Available is false when every backend failed; Detections is
	// empty and nothing downstream should alert.
	Available bool

	Detections []Detection

	// Backend names the backend that produced the result.
	Backend string

	// ProcessingTime is the backend-reported inference time, zero if
	// the backend does not report one.
	ProcessingTime time.Duration

	// AlertMessage is an optional backend-composed summary of
	// color-critical findings.
	AlertMessage string
}

// Unavailable returns the explicit all-backends-failed result.
func Unavailable() *Result {
	return &Result{Available: false}
}

// Backend is one remote detection capability. Implementations own all
// backend-specific wire parsing; everything past this interface sees
// only normalized detections.
type Backend interface {
	// Detect runs one detection attempt. The context carries the
	// per-attempt timeout; implementations must honor cancellation.
	Detect(ctx context.Context, req *Request) (*Result, error)

	// Name identifies the backend in logs.
	Name() string

	// Close releases backend resources.
	Close() error
}

// NormalizeClass unifies class naming across backends: lower case,
// spaces to underscores ("Traffic light" -> "traffic_light").
func NormalizeClass(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// signalColor picks the signal ColorState from a dominant-color list.
func signalColor(colors []string) ColorState {
	for _, c := range colors {
		switch c {
		case "red":
			return ColorRed
		case "yellow", "orange":
			return ColorYellow
		case "green":
			return ColorGreen
		}
	}
	return ColorUnknown
}

package detect

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

const backendGoogleVision = "google-vision"

// GoogleVisionBackend is the third-party fallback: Cloud Vision object
// localization. It knows nothing about colorblindness, so results carry
// no color state or warnings; it exists to keep "there is a traffic
// light ahead" alive when both first-party backends are down.
type GoogleVisionBackend struct {
	svc        *vision.Service
	maxResults int64
}

// NewGoogleVision creates the Cloud Vision fallback backend.
func NewGoogleVision(ctx context.Context, opts ...Option) (*GoogleVisionBackend, error) {
	cfg := DefaultBackendConfig()
	cfg.Apply(opts...)
	if cfg.APIKey == "" {
		return nil, WrapError(backendGoogleVision, fmt.Errorf("API key required"))
	}

	svc, err := vision.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, WrapError(backendGoogleVision, fmt.Errorf("create service: %w", err))
	}

	return &GoogleVisionBackend{svc: svc, maxResults: 10}, nil
}

// Name identifies the backend in logs.
func (g *GoogleVisionBackend) Name() string { return backendGoogleVision }

// Close releases backend resources.
func (g *GoogleVisionBackend) Close() error { return nil }

// Detect runs object localization on the frame and normalizes the
// annotations: bounding polygons become axis-aligned 0-1 rects, names
// become snake_case.
func (g *GoogleVisionBackend) Detect(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if len(req.Frame) == 0 {
		return nil, WrapError(backendGoogleVision, ErrEmptyFrame)
	}

	batch := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(req.Frame)},
			Features: []*vision.Feature{{
				Type:       "OBJECT_LOCALIZATION",
				MaxResults: g.maxResults,
			}},
		}},
	}

	resp, err := g.svc.Images.Annotate(batch).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(backendGoogleVision, err)
	}
	if len(resp.Responses) == 0 {
		return nil, WrapError(backendGoogleVision, fmt.Errorf("%w: empty batch response", ErrBadPayload))
	}
	ann := resp.Responses[0]
	if ann.Error != nil {
		return nil, WrapError(backendGoogleVision, fmt.Errorf("annotation error: %s", ann.Error.Message))
	}

	dets := make([]Detection, 0, len(ann.LocalizedObjectAnnotations))
	for _, obj := range ann.LocalizedObjectAnnotations {
		if obj.Score < req.MinConfidence {
			continue
		}
		box, ok := polyToRect(obj.BoundingPoly)
		if !ok {
			continue
		}
		dets = append(dets, Detection{
			ID:         uuid.NewString(),
			Class:      NormalizeClass(obj.Name),
			Confidence: clamp01(obj.Score),
			Box:        box,
		})
	}

	return &Result{
		Available:      true,
		Detections:     dets,
		Backend:        backendGoogleVision,
		ProcessingTime: time.Since(start),
	}, nil
}

// polyToRect converts a normalized bounding polygon to an axis-aligned
// rect. Returns false for degenerate polygons.
func polyToRect(poly *vision.BoundingPoly) (Rect, bool) {
	if poly == nil || len(poly.NormalizedVertices) == 0 {
		return Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range poly.NormalizedVertices {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	if maxX <= minX || maxY <= minY {
		return Rect{}, false
	}
	return Rect{
		X: clamp01(minX),
		Y: clamp01(minY),
		W: clamp01(maxX - minX),
		H: clamp01(maxY - minY),
	}, true
}

// Verify GoogleVisionBackend implements Backend at compile time.
var _ Backend = (*GoogleVisionBackend)(nil)

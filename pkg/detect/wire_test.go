package detect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chromapath/chromapath/pkg/vision"
)

const serviceBody = `{
	"success": true,
	"objects": [
		{
			"label": "traffic light",
			"confidence": 0.91,
			"bbox": {"x": 320, "y": 60, "width": 64, "height": 160},
			"dominant_colors": ["red", "black"],
			"is_problematic_color": true,
			"color_warning": "Contains red - may be difficult to see",
			"priority": "critical"
		},
		{
			"label": "car",
			"confidence": 0.72,
			"bbox": {"x": 0, "y": 240, "width": 320, "height": 240},
			"dominant_colors": ["white"],
			"is_problematic_color": false,
			"priority": "high"
		}
	],
	"frame_width": 640,
	"frame_height": 480,
	"processing_time_ms": 84.2,
	"alert_message": "traffic light: Contains red - may be difficult to see"
}`

func TestWireResponseNormalization(t *testing.T) {
	var wire wireResponse
	if err := json.Unmarshal([]byte(serviceBody), &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	res, err := wire.toResult("direct")
	if err != nil {
		t.Fatalf("toResult: %v", err)
	}
	if !res.Available || len(res.Detections) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	light := res.Detections[0]
	if light.Class != "traffic_light" {
		t.Errorf("class not normalized: %q", light.Class)
	}
	if light.ColorState != ColorRed {
		t.Errorf("color state = %s, want red", light.ColorState)
	}
	if light.Box.X != 0.5 || light.Box.Y != 0.125 || light.Box.W != 0.1 {
		t.Errorf("bbox not normalized: %+v", light.Box)
	}
	if light.ID == "" {
		t.Error("detection should get an id")
	}

	car := res.Detections[1]
	if car.ColorState != "" {
		t.Errorf("non-signal class should carry no color state, got %s", car.ColorState)
	}
	if res.ProcessingTime.Milliseconds() != 84 {
		t.Errorf("processing time = %v", res.ProcessingTime)
	}
}

func TestWireResponseRejectsBadPayloads(t *testing.T) {
	noDims := wireResponse{Success: true}
	if _, err := noDims.toResult("direct"); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload for missing dims, got %v", err)
	}

	failed := wireResponse{Success: false, FrameWidth: 640, FrameHeight: 480}
	if _, err := failed.toResult("direct"); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload for success=false, got %v", err)
	}
}

func TestDirectBackendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req wireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ColorblindnessType != "deuteranopia" {
			t.Errorf("vision type hint = %q", req.ColorblindnessType)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(serviceBody))
	}))
	defer srv.Close()

	b, err := NewDirect(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewDirect: %v", err)
	}
	res, err := b.Detect(context.Background(), &Request{
		Frame:         testFrame(),
		VisionType:    vision.TypeDeuteranopia,
		MinConfidence: 0.5,
	})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(res.Detections) != 2 || res.Backend != "direct" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestProxyBackendEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("missing auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": ` + serviceBody + `}`))
	}))
	defer srv.Close()

	b, err := NewProxy(WithBaseURL(srv.URL), WithAPIKey("token123"))
	if err != nil {
		t.Fatalf("NewProxy: %v", err)
	}
	res, err := b.Detect(context.Background(), &Request{Frame: testFrame()})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Backend != "proxy" || len(res.Detections) != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestProxyBackendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b, _ := NewProxy(WithBaseURL(srv.URL))
	_, err := b.Detect(context.Background(), &Request{Frame: testFrame()})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsServerError() {
		t.Errorf("503 should be a server error: %+v", apiErr)
	}
}

package camera

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSourceCapture(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL + "/api/camera/frame"
	src, err := NewHTTPSource(cfg)
	if err != nil {
		t.Fatalf("NewHTTPSource: %v", err)
	}
	defer src.Close()

	got, err := src.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(got) != string(frame) {
		t.Errorf("frame mismatch: got %d bytes", len(got))
	}
	if gotQuery == "" {
		t.Error("geometry hints were not sent")
	}
}

func TestHTTPSourceErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "camera busy", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		src, err := NewHTTPSource(Config{URL: srv.URL})
		if err != nil {
			t.Fatalf("NewHTTPSource: %v", err)
		}
		if _, err := src.Capture(context.Background()); err == nil {
			t.Error("expected error on 503")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		src, err := NewHTTPSource(Config{URL: srv.URL})
		if err != nil {
			t.Fatalf("NewHTTPSource: %v", err)
		}
		if _, err := src.Capture(context.Background()); err != ErrEmptyFrame {
			t.Errorf("expected ErrEmptyFrame, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	if errs := (Config{URL: "http://cam/frame"}).Validate(); len(errs) != 0 {
		t.Errorf("minimal config should validate, got %v", errs)
	}
	if errs := (Config{}).Validate(); len(errs) == 0 {
		t.Error("missing url should fail validation")
	}
	if errs := (Config{URL: "http://cam", Quality: 150}).Validate(); len(errs) == 0 {
		t.Error("quality out of range should fail validation")
	}
}

func TestMockSource(t *testing.T) {
	m := NewMock([]byte("jpeg"))
	frame, err := m.Capture(context.Background())
	if err != nil || string(frame) != "jpeg" {
		t.Fatalf("mock capture = %q, %v", frame, err)
	}

	empty := NewMock(nil)
	if _, err := empty.Capture(context.Background()); err != ErrEmptyFrame {
		t.Errorf("empty mock should return ErrEmptyFrame, got %v", err)
	}
	if m.CaptureCount() != 1 {
		t.Errorf("capture count = %d, want 1", m.CaptureCount())
	}
}

package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNormalizeUnits(t *testing.T) {
	mps := normalize(wsSample{Speed: 10, Unit: "mps"})
	if mps.KMH != 36 {
		t.Errorf("10 m/s = %.1f km/h, want 36", mps.KMH)
	}

	kmh := normalize(wsSample{Speed: 25, Unit: "kmh"})
	if kmh.KMH != 25 {
		t.Errorf("kmh passthrough = %.1f, want 25", kmh.KMH)
	}

	// Missing unit means m/s, the common GPS convention.
	def := normalize(wsSample{Speed: 5})
	if def.KMH != 18 {
		t.Errorf("default unit = %.1f km/h, want 18", def.KMH)
	}

	neg := normalize(wsSample{Speed: -3, Unit: "kmh"})
	if neg.KMH != 0 {
		t.Errorf("negative speed should clamp to 0, got %.1f", neg.KMH)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	fixed := normalize(wsSample{Speed: 1, Timestamp: 1700000000000})
	if fixed.At.UnixMilli() != 1700000000000 {
		t.Errorf("timestamp not honored: %v", fixed.At)
	}

	stamped := normalize(wsSample{Speed: 1})
	if time.Since(stamped.At) > time.Second {
		t.Error("missing timestamp should stamp now")
	}
}

func TestWSSourceDeliversSamples(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, msg := range []string{
			`{"speed": 2.5, "unit": "mps"}`,
			`{"speed": 12, "unit": "kmh"}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	src, err := NewWSSource("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("NewWSSource: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Sample, 2)
	go src.Subscribe(ctx, func(s Sample) {
		select {
		case got <- s:
		default:
		}
	})

	first := <-got
	if first.KMH != 9 {
		t.Errorf("first sample = %.1f km/h, want 9", first.KMH)
	}
	second := <-got
	if second.KMH != 12 {
		t.Errorf("second sample = %.1f km/h, want 12", second.KMH)
	}
	cancel()
}

func TestWSSourceCloseConcurrentWithSubscribe(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msg := `{"speed": 4, "unit": "kmh"}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}))
	defer srv.Close()

	src, err := NewWSSource("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("NewWSSource: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Sample, 1)
	go src.Subscribe(ctx, func(s Sample) {
		select {
		case got <- s:
		default:
		}
	})
	<-got

	// Close from another goroutine mid-stream; the subscription owns
	// its connection, so this must be safe and non-disruptive.
	done := make(chan error, 1)
	go func() { done <- src.Close() }()
	if err := <-done; err != nil {
		t.Errorf("Close: %v", err)
	}

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("stream stopped after Close")
	}
}

func TestWSSourceRequiresEndpoint(t *testing.T) {
	if _, err := NewWSSource(""); err != ErrNoEndpoint {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

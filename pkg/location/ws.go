package location

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// wsSample is the GPS feed's wire format. Units vary by device, so the
// reader normalizes before handing samples out.
type wsSample struct {
	Speed     float64 `json:"speed"`
	Unit      string  `json:"unit"` // "mps" (default) or "kmh"
	Timestamp int64   `json:"timestamp_ms"`
}

// WSSource subscribes to a WebSocket GPS feed. Each Subscribe call
// owns its connection; cancelling the subscription context tears the
// connection down.
type WSSource struct {
	url       string
	dialer    *websocket.Dialer
	reconnect time.Duration
	logger    *slog.Logger
}

// NewWSSource creates a source reading from the given ws:// endpoint.
func NewWSSource(url string) (*WSSource, error) {
	if url == "" {
		return nil, ErrNoEndpoint
	}
	return &WSSource{
		url:       url,
		dialer:    websocket.DefaultDialer,
		reconnect: 2 * time.Second,
		logger:    slog.Default().With("component", "location.ws"),
	}, nil
}

// Subscribe reads samples until the context is cancelled, reconnecting
// with a fixed delay on feed loss. A dead GPS feed is survivable
// (downstream falls back to a default transport mode), so this loop
// only ever logs and retries.
func (s *WSSource) Subscribe(ctx context.Context, fn func(Sample)) error {
	for {
		if err := s.readLoop(ctx, fn); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("gps feed lost, reconnecting",
				"error", err,
				"retry_in", s.reconnect,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnect):
		}
	}
}

// readLoop runs one connection until it fails or the context ends.
func (s *WSSource) readLoop(ctx context.Context, fn func(Sample)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadJSON when the subscription is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.logger.Info("gps feed connected", "url", s.url)
	for {
		var raw wsSample
		if err := conn.ReadJSON(&raw); err != nil {
			return err
		}
		fn(normalize(raw))
	}
}

// normalize converts a wire sample to km/h and stamps missing times.
func normalize(raw wsSample) Sample {
	kmh := raw.Speed
	if !strings.EqualFold(raw.Unit, "kmh") {
		kmh = KMHFromMS(raw.Speed)
	}
	if kmh < 0 {
		kmh = 0
	}

	at := time.Now()
	if raw.Timestamp > 0 {
		at = time.UnixMilli(raw.Timestamp)
	}
	return Sample{KMH: kmh, At: at}
}

// Close implements Source. Connections live inside Subscribe, so there
// is nothing to release here.
func (s *WSSource) Close() error { return nil }

// Verify WSSource implements Source at compile time.
var _ Source = (*WSSource)(nil)

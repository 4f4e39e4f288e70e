package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/chromapath/chromapath/internal/httpc"
)

// HTTPSource captures stills from a camera device exposing an HTTP
// frame endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource builds a source from cfg. Geometry and quality hints
// are encoded as query parameters; devices that don't understand them
// ignore them.
func NewHTTPSource(cfg Config) (*HTTPSource, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("camera: bad url %q: %w", cfg.URL, err)
	}
	q := u.Query()
	if cfg.Width > 0 {
		q.Set("width", strconv.Itoa(cfg.Width))
	}
	if cfg.Height > 0 {
		q.Set("height", strconv.Itoa(cfg.Height))
	}
	if cfg.Quality > 0 {
		q.Set("quality", strconv.Itoa(cfg.Quality))
	}
	u.RawQuery = q.Encode()

	client := httpc.Client
	if cfg.Timeout > 0 {
		client = httpc.NewClient(cfg.Timeout)
	}

	return &HTTPSource{url: u.String(), client: client}, nil
}

// Capture fetches one frame.
func (s *HTTPSource) Capture(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera: capture failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("camera: capture returned status %d", resp.StatusCode)
	}

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("camera: reading frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	return frame, nil
}

// Close is a no-op: the shared HTTP client owns its connections.
func (s *HTTPSource) Close() error { return nil }

var _ Source = (*HTTPSource)(nil)

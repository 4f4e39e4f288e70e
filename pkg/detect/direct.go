package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const backendDirect = "direct"

// DirectBackend talks straight to the detection microservice, bypassing
// the application proxy. Used as the second hop when the proxy is down
// but the service itself is reachable.
type DirectBackend struct {
	config *Config
	client *http.Client
}

// NewDirect creates the direct detection-service backend.
func NewDirect(opts ...Option) (*DirectBackend, error) {
	cfg := DefaultBackendConfig()
	cfg.Apply(opts...)
	if cfg.BaseURL == "" {
		return nil, WrapError(backendDirect, fmt.Errorf("base URL required"))
	}

	client := cfg.HTTPClient
	if cfg.Timeout > 0 {
		cp := *client
		cp.Timeout = cfg.Timeout
		client = &cp
	}

	return &DirectBackend{config: cfg, client: client}, nil
}

// Name identifies the backend in logs.
func (d *DirectBackend) Name() string { return backendDirect }

// Close releases backend resources.
func (d *DirectBackend) Close() error { return nil }

// Detect posts the frame to the service's /detect endpoint. The service
// returns the bare response body, no envelope.
func (d *DirectBackend) Detect(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if len(req.Frame) == 0 {
		return nil, WrapError(backendDirect, ErrEmptyFrame)
	}

	body, err := json.Marshal(wireRequest{
		Image:              base64.StdEncoding.EncodeToString(req.Frame),
		ColorblindnessType: string(req.VisionType),
		MinConfidence:      req.MinConfidence,
	})
	if err != nil {
		return nil, WrapError(backendDirect, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.config.BaseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(backendDirect, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(backendDirect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(msg), Backend: backendDirect}
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, WrapError(backendDirect, fmt.Errorf("%w: %v", ErrBadPayload, err))
	}

	result, err := wire.toResult(backendDirect)
	if err != nil {
		return nil, WrapError(backendDirect, err)
	}

	d.config.Logger.Debug("direct detection complete",
		"objects", len(result.Detections),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Verify DirectBackend implements Backend at compile time.
var _ Backend = (*DirectBackend)(nil)

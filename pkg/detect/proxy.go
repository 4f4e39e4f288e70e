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

const backendProxy = "proxy"

// ProxyBackend is the primary detection path: the application server's
// detection proxy. It authenticates callers and wraps the detection
// service response in a {success, data} envelope.
type ProxyBackend struct {
	config *Config
	client *http.Client
}

// NewProxy creates the primary proxy backend.
func NewProxy(opts ...Option) (*ProxyBackend, error) {
	cfg := DefaultBackendConfig()
	cfg.Apply(opts...)
	if cfg.BaseURL == "" {
		return nil, WrapError(backendProxy, fmt.Errorf("base URL required"))
	}

	client := cfg.HTTPClient
	if cfg.Timeout > 0 {
		cp := *client
		cp.Timeout = cfg.Timeout
		client = &cp
	}

	return &ProxyBackend{config: cfg, client: client}, nil
}

// Name identifies the backend in logs.
func (p *ProxyBackend) Name() string { return backendProxy }

// Close releases backend resources.
func (p *ProxyBackend) Close() error { return nil }

// proxyEnvelope is the app server's wrapper around the service response.
type proxyEnvelope struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Data    *wireResponse `json:"data"`
}

// Detect posts the frame to the proxy and normalizes the response.
func (p *ProxyBackend) Detect(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if len(req.Frame) == 0 {
		return nil, WrapError(backendProxy, ErrEmptyFrame)
	}

	body, err := json.Marshal(wireRequest{
		Image:              base64.StdEncoding.EncodeToString(req.Frame),
		ColorblindnessType: string(req.VisionType),
		MinConfidence:      req.MinConfidence,
	})
	if err != nil {
		return nil, WrapError(backendProxy, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/api/detect", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(backendProxy, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, WrapError(backendProxy, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(msg), Backend: backendProxy}
	}

	var envelope proxyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, WrapError(backendProxy, fmt.Errorf("%w: %v", ErrBadPayload, err))
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, WrapError(backendProxy, fmt.Errorf("%w: %s", ErrBadPayload, envelope.Error))
	}

	result, err := envelope.Data.toResult(backendProxy)
	if err != nil {
		return nil, WrapError(backendProxy, err)
	}

	p.config.Logger.Debug("proxy detection complete",
		"objects", len(result.Detections),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Verify ProxyBackend implements Backend at compile time.
var _ Backend = (*ProxyBackend)(nil)

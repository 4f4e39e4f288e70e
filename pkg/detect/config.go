package detect

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chromapath/chromapath/internal/httpc"
)

// Config holds backend configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// BaseURL is the backend endpoint root.
	BaseURL string

	// APIKey authenticates against the backend, where required.
	APIKey string

	// Timeout bounds a single HTTP request. The gateway layers its own
	// per-attempt context timeout on top.
	Timeout time.Duration

	// HTTPClient overrides the shared client (tests).
	HTTPClient *http.Client

	// Logger for backend diagnostics.
	Logger *slog.Logger
}

// DefaultBackendConfig returns backend defaults.
func DefaultBackendConfig() *Config {
	return &Config{
		Timeout:    8 * time.Second,
		HTTPClient: httpc.Client,
		Logger:     slog.Default(),
	}
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithBaseURL sets the backend endpoint root.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithAPIKey sets the backend API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTimeout sets the single-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

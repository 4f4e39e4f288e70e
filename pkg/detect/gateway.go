package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chromapath/chromapath/pkg/vision"
)

// Gateway defaults.
const (
	DefaultMinInterval    = 1500 * time.Millisecond
	DefaultAttemptTimeout = 4 * time.Second
	DefaultMinConfidence  = 0.5
)

// Gateway dispatches frames through an ordered backend fallback chain.
//
// Two guarantees hold regardless of backend behavior: the caller is
// never blocked past the per-attempt timeout times the chain length,
// and at most one detection call proceeds per minimum-interval window.
// The interval is global across backends; fallback attempts inside one
// call consume the same window.
type Gateway struct {
	backends       []Backend
	minInterval    time.Duration
	attemptTimeout time.Duration
	minConfidence  float64

	mu         sync.Mutex
	lastCallAt time.Time

	clock  func() time.Time
	logger *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMinInterval sets the global throttle window between detect calls.
func WithMinInterval(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.minInterval = d
	}
}

// WithAttemptTimeout sets the budget for one backend attempt.
func WithAttemptTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.attemptTimeout = d
	}
}

// WithMinConfidence sets the confidence floor passed to backends.
func WithMinConfidence(c float64) GatewayOption {
	return func(g *Gateway) {
		g.minConfidence = c
	}
}

// WithGatewayLogger sets the gateway logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger.With("component", "detect.gateway")
	}
}

// WithClock overrides the time source (tests).
func WithClock(clock func() time.Time) GatewayOption {
	return func(g *Gateway) {
		g.clock = clock
	}
}

// NewGateway creates a gateway over an ordered backend chain.
// At least one backend is required.
func NewGateway(backends []Backend, opts ...GatewayOption) (*Gateway, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}
	g := &Gateway{
		backends:       backends,
		minInterval:    DefaultMinInterval,
		attemptTimeout: DefaultAttemptTimeout,
		minConfidence:  DefaultMinConfidence,
		clock:          time.Now,
		logger:         slog.Default().With("component", "detect.gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Detect runs one detection cycle against the fallback chain.
//
// Returns ErrThrottled if the call lands inside the minimum-interval
// window; the caller skips the cycle. Backend failures never surface
// individually: if every backend fails the returned result is the
// explicit Unavailable one with a nil error.
func (g *Gateway) Detect(ctx context.Context, frame []byte, profile vision.Profile) (*Result, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	g.mu.Lock()
	now := g.clock()
	if !g.lastCallAt.IsZero() && now.Sub(g.lastCallAt) < g.minInterval {
		g.mu.Unlock()
		return nil, ErrThrottled
	}
	// The window opens as soon as a call proceeds, so fallback
	// attempts inside this call still cover the next cycle.
	g.lastCallAt = now
	g.mu.Unlock()

	req := &Request{
		Frame:         frame,
		VisionType:    profile.Type,
		MinConfidence: g.minConfidence,
	}

	var errs []error
	for i, backend := range g.backends {
		result, err := g.attempt(ctx, backend, req)
		if err == nil {
			if i > 0 {
				g.logger.Info("fallback backend succeeded",
					"backend", backend.Name(),
					"backend_index", i,
				)
			}
			return result, nil
		}

		errs = append(errs, err)
		g.logger.Warn("backend failed, trying next",
			"backend", backend.Name(),
			"error", err,
		)

		// An attempt timeout cancels that attempt only; the parent
		// context going away cancels the whole call.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	g.logger.Error("detection unavailable", "error", &ChainError{Errors: errs})
	return Unavailable(), nil
}

// attempt runs one backend under its own timeout budget.
func (g *Gateway) attempt(ctx context.Context, backend Backend, req *Request) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()
	return backend.Detect(attemptCtx, req)
}

// MinInterval returns the configured throttle window.
func (g *Gateway) MinInterval() time.Duration {
	return g.minInterval
}

// Reset clears the throttle window (tests and mode changes).
func (g *Gateway) Reset() {
	g.mu.Lock()
	g.lastCallAt = time.Time{}
	g.mu.Unlock()
}

// Close closes all backends.
func (g *Gateway) Close() error {
	var lastErr error
	for _, b := range g.backends {
		if err := b.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

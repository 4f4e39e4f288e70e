// Package pipeline runs the capture-detect-alert scan loop. One
// goroutine drives the whole cycle at the cadence the rider's current
// transport mode implies; every stage is injected so tests can run the
// loop against mocks.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromapath/chromapath/internal/log"
	"github.com/chromapath/chromapath/pkg/alert"
	"github.com/chromapath/chromapath/pkg/camera"
	"github.com/chromapath/chromapath/pkg/colorsample"
	"github.com/chromapath/chromapath/pkg/detect"
	"github.com/chromapath/chromapath/pkg/hazard"
	"github.com/chromapath/chromapath/pkg/signalstate"
	"github.com/chromapath/chromapath/pkg/telemetry"
	"github.com/chromapath/chromapath/pkg/transport"
	"github.com/chromapath/chromapath/pkg/vision"
)

var ErrAlreadyStarted = errors.New("pipeline: already started")

// Deps are the stages the loop drives. All fields are required except
// Classifier; without one the loop runs at DefaultInterval.
type Deps struct {
	Camera      camera.Source
	Sampler     *colorsample.Sampler
	Gateway     *detect.Gateway
	Signals     *signalstate.Tracker
	Prioritizer *hazard.Prioritizer
	Alerts      *alert.Scheduler
	Classifier  *transport.Classifier

	// Publisher is optional. When set, every alerted hazard is also
	// shipped to the event stream; publish failures only log.
	Publisher telemetry.Publisher

	// SessionID tags published events. Usually a UUID minted at startup.
	SessionID string
}

// DefaultInterval is the scan cadence used when no transport
// classifier is wired in.
const DefaultInterval = 3 * time.Second

// Pipeline owns the scan loop.
type Pipeline struct {
	deps   Deps
	logger *slog.Logger
	clock  func() time.Time

	// scanning guards against overlapping cycles: if a scan is still
	// in flight when the timer fires, the tick is skipped entirely
	// rather than queued.
	scanning atomic.Bool
	started  atomic.Bool

	mu       sync.RWMutex
	profile  vision.Profile
	onScan   func(Report)
	stats    Stats
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger overrides the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithPipelineClock overrides the time source for tests.
func WithPipelineClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithInterval pins the scan cadence, overriding the transport
// classifier's profile.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.interval = d }
}

// New builds a pipeline for the given user profile.
func New(deps Deps, profile vision.Profile, opts ...Option) *Pipeline {
	p := &Pipeline{
		deps:    deps,
		profile: profile,
		logger:  log.Component("pipeline"),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile returns the active vision profile.
func (p *Pipeline) Profile() vision.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.profile
}

// SetProfile swaps the active vision profile. Takes effect on the next
// scan; the signal tracker is reset since rule relevance changed.
func (p *Pipeline) SetProfile(profile vision.Profile) {
	p.mu.Lock()
	p.profile = profile
	p.mu.Unlock()
	if p.deps.Signals != nil {
		p.deps.Signals.Reset()
	}
	p.logger.Info("vision profile changed", "type", profile.Type)
}

// OnScan registers a callback invoked after every completed scan with
// that cycle's report. Used by the dashboard event feed.
func (p *Pipeline) OnScan(fn func(Report)) {
	p.mu.Lock()
	p.onScan = fn
	p.mu.Unlock()
}

// Start launches the scan loop. It returns once the loop goroutine is
// running; cancel ctx or call Stop to end it.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx)
	p.logger.Info("scan loop started", "interval", p.scanInterval())
	return nil
}

// Stop ends the scan loop and waits for the in-flight scan to finish.
func (p *Pipeline) Stop() {
	if !p.started.CompareAndSwap(true, false) {
		return
	}
	p.cancel()
	<-p.done
	p.logger.Info("scan loop stopped")
}

func (p *Pipeline) loop(ctx context.Context) {
	defer close(p.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if !p.runGuarded(ctx) {
			p.mu.Lock()
			p.stats.TicksSkipped++
			p.mu.Unlock()
		}

		// Re-arm from the current transport mode so slowing down or
		// speeding up changes cadence without a restart.
		timer.Reset(p.scanInterval())
	}
}

// runGuarded runs one scan unless another is already in flight.
// Overlap can only come from TriggerScan racing the loop; a skipped
// tick is cheaper than a queue of stale frames.
func (p *Pipeline) runGuarded(ctx context.Context) bool {
	if !p.scanning.CompareAndSwap(false, true) {
		return false
	}
	defer p.scanning.Store(false)
	p.scanOnce(ctx)
	return true
}

// TriggerScan runs one scan immediately, outside the loop cadence.
// Returns false if a scan was already in flight. The dashboard's
// scan-now button lands here.
func (p *Pipeline) TriggerScan(ctx context.Context) bool {
	return p.runGuarded(ctx)
}

// scanInterval is the capture cadence for the rider's current mode.
func (p *Pipeline) scanInterval() time.Duration {
	if p.interval > 0 {
		return p.interval
	}
	if p.deps.Classifier == nil {
		return DefaultInterval
	}
	if iv := p.deps.Classifier.CurrentProfile().CaptureInterval; iv > 0 {
		return iv
	}
	return DefaultInterval
}

// scanOnce runs one full cycle: capture, cheap color gate, detection,
// signal debounce, hazard filtering, alert submission.
func (p *Pipeline) scanOnce(ctx context.Context) {
	report := Report{StartedAt: p.clock()}
	defer p.finish(&report)

	frame, err := p.deps.Camera.Capture(ctx)
	if err != nil {
		report.Err = err
		p.logger.Warn("frame capture failed", "error", err)
		return
	}
	report.FrameBytes = len(frame)

	sample := p.deps.Sampler.Sample(frame)
	report.Sample = sample
	if !sample.HasCandidateColors {
		report.GateSkipped = true
		return
	}

	result, err := p.deps.Gateway.Detect(ctx, frame, p.Profile())
	if err != nil {
		if errors.Is(err, detect.ErrThrottled) {
			report.Throttled = true
			return
		}
		report.Err = err
		p.logger.Warn("detection failed", "error", err)
		return
	}
	report.Backend = result.Backend
	if !result.Available {
		report.Unavailable = true
		return
	}

	detections := p.gateSignals(result.Detections)
	report.Detections = detections

	speed := 0.0
	if p.deps.Classifier != nil {
		speed = p.deps.Classifier.CurrentSpeed()
	}
	hazards := p.deps.Prioritizer.Filter(detections, p.Profile(), speed)
	report.Hazards = hazards

	mode := transport.Mode("")
	if p.deps.Classifier != nil {
		mode = p.deps.Classifier.Current()
	}
	for i := range hazards {
		h := &hazards[i]
		p.deps.Alerts.Submit(alert.Alert{
			ID:        h.AlertID(),
			Message:   h.Message,
			Priority:  h.Priority(),
			CreatedAt: p.clock(),
		})
		if p.deps.Publisher != nil {
			event := telemetry.NewHazardEvent(p.deps.SessionID, h, mode, speed, p.Profile().Type)
			if err := p.deps.Publisher.PublishHazard(event); err != nil {
				p.logger.Warn("hazard event publish failed", "error", err)
			}
		}
	}
}

// gateSignals feeds traffic light observations through the debouncing
// tracker and keeps only lights whose color matches the committed
// state. A one-frame misread never reaches the alert queue.
func (p *Pipeline) gateSignals(detections []detect.Detection) []detect.Detection {
	if p.deps.Signals == nil {
		return detections
	}

	kept := detections[:0]
	for _, d := range detections {
		if d.Class != "traffic_light" {
			kept = append(kept, d)
			continue
		}
		p.deps.Signals.Observe(signalstate.State(d.ColorState), d.Confidence, false)
		if signalstate.State(d.ColorState) == p.deps.Signals.State() {
			kept = append(kept, d)
		}
	}
	return kept
}

func (p *Pipeline) finish(report *Report) {
	report.Duration = p.clock().Sub(report.StartedAt)

	p.mu.Lock()
	p.stats.apply(report)
	onScan := p.onScan
	p.mu.Unlock()

	if onScan != nil {
		onScan(*report)
	}
}

// SignalState returns the committed traffic light state, its
// confidence, and when it last changed.
func (p *Pipeline) SignalState() (signalstate.State, float64, time.Time) {
	if p.deps.Signals == nil {
		return signalstate.StateUnknown, 0, time.Time{}
	}
	return p.deps.Signals.Current()
}

// Stats returns a snapshot of cumulative loop counters.
func (p *Pipeline) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

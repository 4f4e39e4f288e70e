package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chromapath/chromapath/pkg/hazard"
)

// playback tracks the utterance currently on the speaker.
type playback struct {
	alert  Alert
	cancel context.CancelFunc
}

// Scheduler serializes alerts onto the speaker. All queue and history
// mutation happens under the scheduler's own lock, reached only from
// Submit/SetEnabled and the single worker goroutine.
type Scheduler struct {
	speaker   Speaker
	cooldowns map[hazard.Priority]time.Duration
	maxQueue  int
	clock     func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	queue   []Alert
	history map[string]time.Time
	playing *playback
	enabled bool
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCooldowns overrides the per-priority cooldown table.
func WithCooldowns(cd map[hazard.Priority]time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.cooldowns = cd
	}
}

// WithMaxQueue overrides the queue depth cap.
func WithMaxQueue(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.maxQueue = n
	}
}

// WithSchedulerClock overrides the time source (tests).
func WithSchedulerClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger.With("component", "alert.scheduler")
	}
}

// NewScheduler creates a scheduler and starts its worker goroutine.
// Callers must Close it.
func NewScheduler(speaker Speaker, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		speaker:   speaker,
		cooldowns: DefaultCooldowns(),
		maxQueue:  DefaultMaxQueue,
		clock:     time.Now,
		logger:    slog.Default().With("component", "alert.scheduler"),
		history:   make(map[string]time.Time),
		enabled:   true,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Submit enqueues an alert, fire-and-forget. Alerts inside their
// cooldown window are dropped; a critical alert preempts whatever is
// currently playing.
func (s *Scheduler) Submit(a Alert) {
	s.mu.Lock()

	if !s.enabled || s.closed {
		s.mu.Unlock()
		return
	}
	if !s.passesCooldownLocked(a) {
		s.logger.Debug("alert dropped by cooldown", "id", a.ID)
		s.mu.Unlock()
		return
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.clock()
	}

	s.insertLocked(a)

	// Critical alerts do not wait for the current utterance.
	var preempt context.CancelFunc
	var interrupted string
	if a.Priority == hazard.PriorityCritical &&
		s.playing != nil && s.playing.alert.Priority != hazard.PriorityCritical {
		preempt = s.playing.cancel
		interrupted = s.playing.alert.ID
		s.logger.Info("critical alert preempting playback",
			"id", a.ID,
			"interrupted", interrupted,
		)
	}
	s.mu.Unlock()

	if preempt != nil {
		preempt()
		s.stopIfPlaying(interrupted)
	}
	s.kick()
}

// stopIfPlaying interrupts the speaker only while the given alert is
// still registered as the current playback. The identity check under
// the lock keeps a preemption from killing the utterance that replaced
// its target: the worker swaps s.playing under the same lock before it
// hands the next alert to the speaker.
func (s *Scheduler) stopIfPlaying(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing != nil && s.playing.alert.ID == id {
		s.speaker.Stop()
	}
}

// SpeakCustom announces a non-hazard message at the given priority.
// Hazard-tier priorities are capped to PriorityCustom: an announcement
// never outranks a hazard in the queue. One identity per message text.
func (s *Scheduler) SpeakCustom(message string, priority hazard.Priority) {
	if priority == "" || priority.Score() > 0 {
		priority = PriorityCustom
	}
	s.Submit(Alert{
		ID:       "custom:" + message,
		Message:  message,
		Priority: priority,
	})
}

// insertLocked places the alert before the first lower-priority entry,
// deduplicating by ID (higher priority wins) and enforcing the depth
// cap by dropping the tail.
func (s *Scheduler) insertLocked(a Alert) {
	for i := range s.queue {
		if s.queue[i].ID != a.ID {
			continue
		}
		if s.queue[i].Priority.Score() >= a.Priority.Score() {
			return
		}
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		break
	}

	pos := len(s.queue)
	for i := range s.queue {
		if s.queue[i].Priority.Score() < a.Priority.Score() {
			pos = i
			break
		}
	}
	s.queue = append(s.queue, Alert{})
	copy(s.queue[pos+1:], s.queue[pos:])
	s.queue[pos] = a

	if len(s.queue) > s.maxQueue {
		dropped := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.logger.Debug("queue full, dropped tail alert", "id", dropped.ID)
	}
}

// passesCooldownLocked checks the alert against its ID's last play.
func (s *Scheduler) passesCooldownLocked(a Alert) bool {
	last, seen := s.history[a.ID]
	if !seen {
		return true
	}
	return s.clock().Sub(last) >= s.cooldownFor(a.Priority)
}

// cooldownFor returns the tier's cooldown, defaulting to the low tier
// for unknown priorities.
func (s *Scheduler) cooldownFor(p hazard.Priority) time.Duration {
	if cd, ok := s.cooldowns[p]; ok {
		return cd
	}
	return s.cooldowns[hazard.PriorityLow]
}

// run is the worker loop. It is the only goroutine that plays.
func (s *Scheduler) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.drain()
	}
}

// drain plays queue entries until the queue is empty or the scheduler
// is disabled. Entries that fail their cooldown recheck at play time
// are discarded and the next one is tried.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if !s.enabled || s.closed || s.playing != nil || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}

		var next *Alert
		for len(s.queue) > 0 {
			head := s.queue[0]
			s.queue = s.queue[1:]
			if s.passesCooldownLocked(head) {
				next = &head
				break
			}
			s.logger.Debug("stale alert dropped at drain", "id", head.ID)
		}
		if next == nil {
			s.mu.Unlock()
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		s.playing = &playback{alert: *next, cancel: cancel}
		// Recorded at play start: two plays of one ID can never land
		// closer together than the cooldown.
		s.history[next.ID] = s.clock()
		s.mu.Unlock()

		err := s.speaker.Play(ctx, next.Message, ParamsFor(next.Priority))
		cancel()

		s.mu.Lock()
		s.playing = nil
		s.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			// Playback failure: log and keep draining so the queue
			// never wedges behind a broken utterance.
			s.logger.Warn("utterance playback failed", "id", next.ID, "error", err)
		}
	}
}

// kick wakes the worker without blocking.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SetEnabled toggles the scheduler. Disabling stops current playback
// and clears the queue; history is preserved so re-enabling does not
// cause an immediate repeat flood.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	var stop context.CancelFunc
	var stopID string
	if !enabled {
		s.queue = nil
		if s.playing != nil {
			stop = s.playing.cancel
			stopID = s.playing.alert.ID
		}
	}
	s.mu.Unlock()

	if stop != nil {
		stop()
		s.stopIfPlaying(stopID)
	}
	if enabled {
		s.kick()
	}
}

// Enabled reports whether the scheduler accepts alerts.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// ResetHistory clears all cooldown history.
func (s *Scheduler) ResetHistory() {
	s.mu.Lock()
	s.history = make(map[string]time.Time)
	s.mu.Unlock()
}

// LastPlayed returns when the alert ID last started playing.
func (s *Scheduler) LastPlayed(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.history[id]
	return t, ok
}

// QueueDepth returns the number of queued (not yet played) alerts.
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Queued returns a copy of the pending queue, head first.
func (s *Scheduler) Queued() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.queue))
	copy(out, s.queue)
	return out
}

// Close stops the worker and any current playback.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var stop context.CancelFunc
	var stopID string
	if s.playing != nil {
		stop = s.playing.cancel
		stopID = s.playing.alert.ID
	}
	s.mu.Unlock()

	if stop != nil {
		stop()
		s.stopIfPlaying(stopID)
	}
	close(s.done)
	return nil
}

// Package heartbeat emits liveness pings while the page is visible and the
// user has been idle for at least a configured active time.
//
// A Scheduler checks on a fixed interval. User activity and the page becoming
// visible reset the idle clock; the page becoming hidden forces an immediate
// check so that a due ping is not lost when the page closes.
package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kepixel/kepixel-go/pkg/kepixel/environment"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
)

// DefaultInterval is how often the scheduler checks.
const DefaultInterval = 5 * time.Second

// DefaultActiveTime is the idle threshold used when Enable is given none.
const DefaultActiveTime = 15 * time.Second

// State is a snapshot of the scheduler state.
type State struct {
	Enabled    bool
	ActiveTime time.Duration
	LastActive time.Time
}

// Scheduler runs the heartbeat.
type Scheduler struct {
	observer environment.Observer
	ping     func()
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  observability.MetricsRecorder

	mu         sync.Mutex
	enabled    bool
	activeTime time.Duration
	lastActive time.Time
	visibility environment.Visibility
	generation int
	cancel     context.CancelFunc
	detach     []func()
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the check interval. Default: 5s.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock sets the time source. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a disabled Scheduler. ping is called for every due heartbeat
// and must not block. observer may be nil, in which case the page is
// treated as always visible and no observers are attached.
func New(observer environment.Observer, ping func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		observer: observer,
		ping:     ping,
		interval: DefaultInterval,
		now:      time.Now,
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enable starts the heartbeat with the given idle threshold.
// A non-positive activeTime selects DefaultActiveTime. Enabling while enabled
// replaces the running ticker and observers.
func (s *Scheduler) Enable(activeTime time.Duration) {
	if activeTime <= 0 {
		activeTime = DefaultActiveTime
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.enabled = true
	s.activeTime = activeTime
	s.lastActive = s.now()
	s.visibility = environment.Visible
	if s.observer != nil {
		s.visibility = s.observer.Visibility()
	}
	s.generation++

	if s.observer != nil {
		s.detach = append(s.detach,
			s.observer.OnVisibilityChange(s.onVisibility),
			s.observer.OnUserActivity(func(environment.Activity) { s.touch() }),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx, s.generation)
}

// Disable stops the heartbeat and detaches observers.
// Safe to call when never enabled and idempotent.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	s.enabled = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for _, detach := range s.detach {
		detach()
	}
	s.detach = nil
}

// State returns a snapshot of the scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Enabled:    s.enabled,
		ActiveTime: s.activeTime,
		LastActive: s.lastActive,
	}
}

// Check runs one tick: if enabled, visible, and idle for at least the active
// time, it pings and resets the idle clock. Returns true if a ping was sent.
func (s *Scheduler) Check() bool {
	return s.check(false)
}

func (s *Scheduler) run(ctx context.Context, generation int) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			current := s.generation == generation
			s.mu.Unlock()
			if !current {
				return
			}
			s.Check()
		}
	}
}

// check evaluates the heartbeat. force skips the visibility condition and is
// used on the transition to hidden.
func (s *Scheduler) check(force bool) bool {
	if !force && s.observer != nil && s.observer.Visibility() != environment.Visible {
		return false
	}

	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return false
	}
	now := s.now()
	idle := now.Sub(s.lastActive)
	if idle < s.activeTime {
		s.mu.Unlock()
		return false
	}
	s.lastActive = now
	s.mu.Unlock()

	observability.LogHeartbeat(s.logger, idle)
	s.metrics.RecordHeartbeat(context.Background())
	if s.ping != nil {
		s.ping()
	}
	return true
}

// onVisibility acts on transitions only. A repeated state is ignored.
func (s *Scheduler) onVisibility(v environment.Visibility) {
	s.mu.Lock()
	changed := s.visibility != v
	s.visibility = v
	s.mu.Unlock()
	if !changed {
		return
	}

	if v == environment.Visible {
		s.touch()
		return
	}
	s.check(true)
}

func (s *Scheduler) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		s.lastActive = s.now()
	}
}

package linktrack

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/kepixel/kepixel-go/pkg/kepixel/environment"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
)

// Routes receive classified activations. content is the anchor text when
// content tracking is on, "" otherwise. Routes must not block.
type Routes struct {
	Outbound func(href, content string)
	Download func(href, content string)
}

// State is a snapshot of the link tracking state.
type State struct {
	Enabled      bool
	TrackContent bool
}

// Tracker observes element activations while enabled.
type Tracker struct {
	observer environment.Observer
	routes   Routes
	logger   *slog.Logger
	metrics  observability.MetricsRecorder

	mu           sync.Mutex
	enabled      bool
	trackContent bool
	detach       func()
}

// NewTracker creates a disabled Tracker.
func NewTracker(observer environment.Observer, routes Routes, logger *slog.Logger, metrics observability.MetricsRecorder) *Tracker {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Tracker{
		observer: observer,
		routes:   routes,
		logger:   logger,
		metrics:  metrics,
	}
}

// Enable attaches the click observer. Enabling again replaces it.
// Without an observer only the state changes.
func (t *Tracker) Enable(trackContent bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.detachLocked()
	t.enabled = true
	t.trackContent = trackContent
	if t.observer != nil {
		t.detach = t.observer.OnElementActivation(func(el environment.Element) {
			t.Handle(el)
		})
	}
}

// Disable detaches the click observer. Idempotent.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
	t.detachLocked()
}

func (t *Tracker) detachLocked() {
	if t.detach != nil {
		t.detach()
		t.detach = nil
	}
}

// State returns a snapshot of the tracking state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{Enabled: t.enabled, TrackContent: t.trackContent}
}

// Handle classifies an activation and routes it. Does nothing while disabled.
func (t *Tracker) Handle(el environment.Element) Classification {
	t.mu.Lock()
	enabled, trackContent := t.enabled, t.trackContent
	t.mu.Unlock()
	if !enabled {
		return Classification{}
	}

	c := Classify(t.pageURL(), el)
	if c.Kind == KindNone {
		return c
	}

	content := ""
	if trackContent {
		content = c.Text
	}

	observability.LogLinkClassified(t.logger, c.Kind.String(), c.Href)
	t.metrics.RecordLinkClick(context.Background(), c.Kind.String())

	switch c.Kind {
	case KindOutbound:
		if t.routes.Outbound != nil {
			t.routes.Outbound(c.Href, content)
		}
	case KindDownload:
		if t.routes.Download != nil {
			t.routes.Download(c.Href, content)
		}
	}
	return c
}

func (t *Tracker) pageURL() *url.URL {
	if t.observer == nil {
		return nil
	}
	return t.observer.PageURL()
}

package kepixel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kepixel/kepixel-go/pkg/kepixel/config"
	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
	"github.com/kepixel/kepixel-go/pkg/kepixel/heartbeat"
	"github.com/kepixel/kepixel-go/pkg/kepixel/identity"
	"github.com/kepixel/kepixel-go/pkg/kepixel/linktrack"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
	"github.com/kepixel/kepixel-go/pkg/kepixel/session"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
	"github.com/kepixel/kepixel-go/pkg/kepixel/validate"
)

// Tracker is the tracking client. It is safe for concurrent use.
type Tracker struct {
	session    *session.Session
	dispatcher *transport.Dispatcher
	resolver   *identity.Resolver
	advisor    *validate.Advisor
	heartbeat  *heartbeat.Scheduler
	links      *linktrack.Tracker
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	now        func() time.Time

	// ctx is cancelled when Close gives up waiting for in-flight calls.
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed and admission to inflight.
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a Tracker for appID.
// Returns ErrAppIDRequired if appID is empty.
func New(appID string, opts ...Option) (*Tracker, error) {
	s, err := session.New(appID)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.client == nil {
		o.client = transport.NewDefaultClient(o.timeout)
	}

	s.SetUserID(o.userID)
	s.SetLogging(o.log)

	t := &Tracker{
		session: s,
		advisor: validate.NewAdvisor(o.logger, o.metrics),
		logger:  o.logger,
		metrics: o.metrics,
		now:     o.now,
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())

	t.dispatcher = transport.New(o.endpoint,
		transport.WithClient(o.client),
		transport.WithLogger(o.logger),
		transport.WithMetrics(o.metrics),
		transport.WithSpanManager(o.spans),
		transport.WithVerbose(s.Logging),
	)
	t.resolver = identity.NewResolver(s, t.dispatcher, o.now)

	hbOpts := []heartbeat.Option{
		heartbeat.WithClock(o.now),
		heartbeat.WithLogger(o.logger),
		heartbeat.WithMetrics(o.metrics),
	}
	if o.heartbeatInterval > 0 {
		hbOpts = append(hbOpts, heartbeat.WithInterval(o.heartbeatInterval))
	}
	t.heartbeat = heartbeat.New(o.observer, t.ping, hbOpts...)

	t.links = linktrack.NewTracker(o.observer, linktrack.Routes{
		Outbound: t.routeOutbound,
		Download: t.routeDownload,
	}, o.logger, o.metrics)

	if s.Logging() {
		observability.LogTrackerReady(o.logger, appID, t.dispatcher.Endpoint())
	}
	return t, nil
}

// FromSettings creates a Tracker from loaded settings and applies the
// background toggles they name. opts are applied after the settings.
func FromSettings(s config.Settings, opts ...Option) (*Tracker, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	base := []Option{
		WithUserID(s.UserID),
		WithLogging(s.Log),
		WithEndpoint(s.Endpoint),
		WithTimeout(s.Timeout),
	}
	t, err := New(s.AppID, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := t.Apply(s); err != nil {
		return nil, err
	}
	return t, nil
}

// Apply updates the session and background producers from settings.
// Endpoint and timeout are fixed at construction and are not changed.
// An empty AppID or UserID leaves the current value in place.
func (t *Tracker) Apply(s config.Settings) error {
	if s.AppID != "" {
		if err := t.session.SetAppID(s.AppID); err != nil {
			return err
		}
	}
	if s.UserID != "" {
		t.session.SetUserID(s.UserID)
	}
	t.session.SetLogging(s.Log)

	if s.Heartbeat.Enabled {
		t.heartbeat.Enable(s.Heartbeat.ActiveTime)
	} else {
		t.heartbeat.Disable()
	}
	if s.LinkTracking.Enabled {
		t.links.Enable(s.LinkTracking.TrackContent)
	} else {
		t.links.Disable()
	}
	return nil
}

// SetAppID replaces the application identifier and the derived credential.
func (t *Tracker) SetAppID(appID string) error {
	return t.session.SetAppID(appID)
}

// AppID returns the application identifier.
func (t *Tracker) AppID() string {
	return t.session.AppID()
}

// SetUserID sets the user identifier. Identity fragments no longer
// override it once set.
func (t *Tracker) SetUserID(userID string) {
	t.session.SetUserID(userID)
}

// UserID returns the current user identifier, "" if unresolved.
func (t *Tracker) UserID() string {
	return t.session.UserID()
}

// SetLogging turns informational call logging on or off.
func (t *Tracker) SetLogging(on bool) {
	t.session.SetLogging(on)
}

// SetDisabled turns tracking off or on. While disabled every tracking call
// settles immediately as skipped and nothing is sent.
func (t *Tracker) SetDisabled(disabled bool) {
	t.session.SetDisabled(disabled)
}

// Disabled returns true if tracking is off.
func (t *Tracker) Disabled() bool {
	return t.session.Disabled()
}

// EnableHeartBeatTimer starts the heartbeat. A non-positive activeTime
// selects the 15 second default. Enabling again replaces the running timer.
func (t *Tracker) EnableHeartBeatTimer(activeTime time.Duration) {
	t.heartbeat.Enable(activeTime)
}

// DisableHeartBeatTimer stops the heartbeat. Idempotent.
func (t *Tracker) DisableHeartBeatTimer() {
	t.heartbeat.Disable()
}

// HeartbeatState returns the heartbeat state.
func (t *Tracker) HeartbeatState() heartbeat.State {
	return t.heartbeat.State()
}

// EnableLinkTracking starts classifying anchor activations. With
// trackContent the anchor text is sent along with the link.
func (t *Tracker) EnableLinkTracking(trackContent bool) {
	t.links.Enable(trackContent)
}

// DisableLinkTracking stops link tracking. Idempotent.
func (t *Tracker) DisableLinkTracking() {
	t.links.Disable()
}

// LinkTrackingState returns the link tracking state.
func (t *Tracker) LinkTrackingState() linktrack.State {
	return t.links.State()
}

// Close stops the background producers and waits for in-flight calls.
// If ctx expires first, in-flight requests are cancelled and ctx.Err() is returned.
// Calls made after Close settle as skipped with ErrTrackerClosed.
// Close is idempotent.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.heartbeat.Disable()
	t.links.Disable()

	done := make(chan struct{})
	go func() {
		t.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		return ctx.Err()
	}
}

// skipped returns a settled skipped call when nothing may be sent.
func (t *Tracker) skipped() (*transport.Call, bool) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return transport.Settled(transport.Outcome{Skipped: true, Err: kperrors.ErrTrackerClosed}), true
	}
	if t.session.Disabled() {
		return transport.Settled(transport.Outcome{Skipped: true, Err: kperrors.ErrTrackingDisabled}), true
	}
	return nil, false
}

// goDispatch runs send asynchronously unless tracking is disabled or the
// tracker is closed. The identity fragment is checked before anything starts.
func (t *Tracker) goDispatch(u *event.UserData, send func(ctx context.Context) transport.Outcome) *transport.Call {
	if call, ok := t.skipped(); ok {
		return call
	}
	if u != nil {
		t.advisor.CheckIdentity(t.ctx, u)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return transport.Settled(transport.Outcome{Skipped: true, Err: kperrors.ErrTrackerClosed})
	}
	t.inflight.Add(1)
	t.mu.Unlock()

	return transport.Go(func() transport.Outcome {
		defer t.inflight.Done()
		return send(t.ctx)
	})
}

// sendEvent registers the identity, then sends ev as a structured call.
func (t *Tracker) sendEvent(ev event.TrackingEvent) *transport.Call {
	return t.goDispatch(ev.UserData, func(ctx context.Context) transport.Outcome {
		t.resolver.Register(ctx, ev.UserData)
		return t.dispatcher.Track(ctx, t.session.Credential(), transport.TrackPayload{
			UserID:     t.session.UserID(),
			Event:      event.CanonicalName(ev.Name),
			Properties: ev.Properties(),
			Traits:     ev.UserData.Traits(),
			Context:    transport.Context{Library: transport.Library{Name: transport.LibraryName}},
			Timestamp:  transport.Timestamp(t.now()),
		})
	})
}

// sendBeacon registers the identity, then sends data as a beacon.
// The identity traits are merged under data. Traits never set a protocol
// field (appid, rec, apiv, uid, send_image, lang).
func (t *Tracker) sendBeacon(label string, u *event.UserData, data transport.BeaconData) *transport.Call {
	merged := transport.BeaconData{}
	for k, v := range u.Traits() {
		if !transport.ReservedBeaconKey(k) {
			merged[k] = v
		}
	}
	for k, v := range data {
		merged[k] = v
	}
	return t.goDispatch(u, func(ctx context.Context) transport.Outcome {
		t.resolver.Register(ctx, u)
		return t.dispatcher.Beacon(ctx, t.session.AppID(), t.session.UserID(), label, merged)
	})
}

func (t *Tracker) ping() {
	t.sendBeacon("ping", nil, transport.BeaconData{"ping": 1})
}

func (t *Tracker) routeOutbound(href, content string) {
	data := transport.BeaconData{"link": href, "url": href}
	if content != "" {
		data["c_n"] = content
	}
	t.sendBeacon("link", nil, data)
}

func (t *Tracker) routeDownload(href, content string) {
	d := event.Download{URL: href}
	if content != "" {
		d.CustomData = map[string]any{"content": content}
	}
	if _, err := t.TrackDownload(d); err != nil {
		t.logger.Warn("download not tracked", slog.String("href", href), slog.String("error", err.Error()))
	}
}

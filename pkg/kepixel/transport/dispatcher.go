// Package transport sends tracking calls to the collector.
//
// Two wire shapes exist: the form-encoded beacon posted to the base URL, and
// the JSON structured calls posted to /v1/track and /v1/identify. Transport
// failures are settled into an Outcome and logged; they are never returned
// as errors to the tracking caller.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
)

// DefaultEndpoint is the collector base URL.
const DefaultEndpoint = "https://edge.kepixel.com"

// DefaultTimeout bounds a single request made by the default client.
const DefaultTimeout = 10 * time.Second

// Collector paths.
const (
	PathTrack    = "/v1/track"
	PathIdentify = "/v1/identify"
)

// Dispatch kinds used in logs, spans and metric labels.
const (
	KindBeacon   = "beacon"
	KindTrack    = "track"
	KindIdentify = "identify"
)

// maxErrorBody caps how much of a failed response body is kept in the error.
const maxErrorBody = 512

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher issues collector calls.
type Dispatcher struct {
	endpoint string
	client   Doer
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	verbose  func() bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClient sets the HTTP client. Default: an *http.Client with an otelhttp
// transport and DefaultTimeout.
func WithClient(client Doer) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithLogger sets the logger for call lines and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(d *Dispatcher) {
		if sm != nil {
			d.spans = sm
		}
	}
}

// WithVerbose sets the predicate deciding whether accepted calls are logged.
// Failures are always logged.
func WithVerbose(fn func() bool) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.verbose = fn
		}
	}
}

// NewDefaultClient returns the HTTP client used when none is configured.
func NewDefaultClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// New creates a Dispatcher for the collector at endpoint.
// An empty endpoint selects DefaultEndpoint.
func New(endpoint string, opts ...Option) *Dispatcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	d := &Dispatcher{
		endpoint: strings.TrimRight(endpoint, "/"),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		verbose:  func() bool { return false },
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = NewDefaultClient(DefaultTimeout)
	}
	return d
}

// Endpoint returns the collector base URL.
func (d *Dispatcher) Endpoint() string {
	return d.endpoint
}

// Track posts a structured event.
func (d *Dispatcher) Track(ctx context.Context, credential string, p TrackPayload) Outcome {
	body, err := json.Marshal(p)
	if err != nil {
		return d.fail(KindTrack, d.endpoint+PathTrack, p.Event, fmt.Errorf("marshal track payload: %w", err), 0)
	}
	return d.postJSON(ctx, KindTrack, PathTrack, credential, p.Event, p.UserID, body)
}

// Identify posts an identity registration.
func (d *Dispatcher) Identify(ctx context.Context, credential string, p IdentifyPayload) Outcome {
	body, err := json.Marshal(p)
	if err != nil {
		return d.fail(KindIdentify, d.endpoint+PathIdentify, KindIdentify, fmt.Errorf("marshal identify payload: %w", err), 0)
	}
	return d.postJSON(ctx, KindIdentify, PathIdentify, credential, KindIdentify, p.UserID, body)
}

func (d *Dispatcher) postJSON(ctx context.Context, kind, path, credential, event, userID string, body []byte) Outcome {
	endpoint := d.endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return d.fail(kind, endpoint, event, err, 0)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	return d.send(ctx, kind, event, userID, req)
}

// Beacon posts a form-encoded beacon to the base URL.
// event labels the call in logs and metrics only.
func (d *Dispatcher) Beacon(ctx context.Context, appID, userID, event string, data BeaconData) Outcome {
	form, lang, err := EncodeBeacon(appID, userID, data)
	if err != nil {
		return d.fail(KindBeacon, d.endpoint, event, err, 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return d.fail(KindBeacon, d.endpoint, event, err, 0)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", lang)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	return d.send(ctx, KindBeacon, event, userID, req)
}

func (d *Dispatcher) send(ctx context.Context, kind, event, userID string, req *http.Request) Outcome {
	endpoint := req.URL.String()
	ctx, span := d.spans.StartDispatchSpan(ctx, kind, endpoint)
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		err = &kperrors.NetworkError{Endpoint: endpoint, Err: err}
		d.spans.EndSpanWithError(span, err)
		d.metrics.RecordDispatch(ctx, kind, event, elapsed, err)
		return d.fail(kind, endpoint, event, err, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := strings.TrimSpace(string(msg))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		err := &kperrors.HTTPError{StatusCode: resp.StatusCode, Message: message, Endpoint: endpoint}
		d.spans.EndSpanWithError(span, err)
		d.metrics.RecordDispatch(ctx, kind, event, elapsed, err)
		return d.fail(kind, endpoint, event, err, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	d.spans.EndSpanWithError(span, nil)
	d.metrics.RecordDispatch(ctx, kind, event, elapsed, nil)
	if d.verbose() {
		observability.LogDispatch(d.logger, endpoint, event, userID, resp.StatusCode, float64(elapsed.Milliseconds()))
	}
	return Outcome{Endpoint: endpoint, StatusCode: resp.StatusCode}
}

func (d *Dispatcher) fail(kind, endpoint, event string, err error, status int) Outcome {
	observability.LogDispatchError(d.logger, endpoint, event, fmt.Errorf("%s: %w", kind, err))
	return Outcome{Endpoint: endpoint, StatusCode: status, Err: err}
}

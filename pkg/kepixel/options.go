package kepixel

import (
	"log/slog"
	"time"

	"github.com/kepixel/kepixel-go/pkg/kepixel/environment"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
)

// options holds tracker construction settings.
type options struct {
	userID            string
	log               bool
	logger            *slog.Logger
	endpoint          string
	client            transport.Doer
	timeout           time.Duration
	observer          environment.Observer
	metrics           observability.MetricsRecorder
	spans             observability.SpanManager
	heartbeatInterval time.Duration
	now               func() time.Time
}

func defaultOptions() options {
	return options{
		endpoint: transport.DefaultEndpoint,
		timeout:  transport.DefaultTimeout,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		now:      time.Now,
	}
}

// Option configures a Tracker.
type Option func(*options)

// WithUserID sets the initial user identifier.
func WithUserID(userID string) Option {
	return func(o *options) {
		o.userID = userID
	}
}

// WithLogging turns on informational logging of every call sent.
// Warnings are logged regardless.
func WithLogging(on bool) Option {
	return func(o *options) {
		o.log = on
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEndpoint sets the collector base URL.
// Default: https://edge.kepixel.com
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		if endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client used for every call.
// Default: an *http.Client with OpenTelemetry instrumentation.
func WithHTTPClient(client transport.Doer) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
// Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithObserver sets the host environment observer used by the heartbeat
// and link tracking.
func WithObserver(observer environment.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithMetrics sets the metrics recorder.
// Use observability.NewMetricsRecorder() or observability.NewPrometheusMetrics().
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSpanManager sets the span manager.
// Use observability.NewSpanManager() for OpenTelemetry tracing.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(o *options) {
		if sm != nil {
			o.spans = sm
		}
	}
}

// WithHeartbeatInterval sets how often the heartbeat checks. Default: 5s.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatInterval = d
		}
	}
}

// WithClock sets the time source for timestamps and the heartbeat.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

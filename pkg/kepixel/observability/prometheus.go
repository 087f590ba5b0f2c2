package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
)

// PrometheusMetrics implements MetricsRecorder on a Prometheus registry.
type PrometheusMetrics struct {
	dispatchesTotal    *prometheus.CounterVec
	dispatchDuration   *prometheus.HistogramVec
	dispatchErrors     *prometheus.CounterVec
	validationWarnings *prometheus.CounterVec
	heartbeatsTotal    prometheus.Counter
	linkClicksTotal    *prometheus.CounterVec
}

// Compile-time interface check.
var _ MetricsRecorder = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the tracker collectors and registers them with reg.
// A nil reg registers nothing, which is useful in tests.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		dispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kepixel_dispatches_total",
				Help: "Total number of collector calls by kind and event",
			},
			[]string{"kind", "event"},
		),

		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kepixel_dispatch_duration_seconds",
				Help:    "Collector call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		dispatchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kepixel_dispatch_errors_total",
				Help: "Total number of failed collector calls by error category",
			},
			[]string{"kind", "category"},
		),

		validationWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kepixel_validation_warnings_total",
				Help: "Total number of advisory validation failures",
			},
			[]string{"check"},
		),

		heartbeatsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kepixel_heartbeats_total",
				Help: "Total number of heartbeat pings",
			},
		),

		linkClicksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kepixel_link_clicks_total",
				Help: "Total number of tracked link activations by kind",
			},
			[]string{"kind"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.dispatchesTotal,
			m.dispatchDuration,
			m.dispatchErrors,
			m.validationWarnings,
			m.heartbeatsTotal,
			m.linkClicksTotal,
		)
	}

	return m
}

// RecordDispatch records a collector call.
func (m *PrometheusMetrics) RecordDispatch(_ context.Context, kind, event string, duration time.Duration, err error) {
	m.dispatchesTotal.WithLabelValues(kind, event).Inc()
	m.dispatchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		m.dispatchErrors.WithLabelValues(kind, kperrors.Categorize(err).String()).Inc()
	}
}

// RecordValidationWarning records a validation warning.
func (m *PrometheusMetrics) RecordValidationWarning(_ context.Context, check string) {
	m.validationWarnings.WithLabelValues(check).Inc()
}

// RecordHeartbeat records a heartbeat ping.
func (m *PrometheusMetrics) RecordHeartbeat(_ context.Context) {
	m.heartbeatsTotal.Inc()
}

// RecordLinkClick records a tracked link activation.
func (m *PrometheusMetrics) RecordLinkClick(_ context.Context, kind string) {
	m.linkClicksTotal.WithLabelValues(kind).Inc()
}

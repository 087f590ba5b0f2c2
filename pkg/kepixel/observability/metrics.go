package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
)

// MetricsRecorder records tracker metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusMetrics() for a
// Prometheus registry, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records one transport call. kind is "beacon", "track" or "identify".
	RecordDispatch(ctx context.Context, kind, event string, duration time.Duration, err error)

	// RecordValidationWarning records an advisory validation failure.
	RecordValidationWarning(ctx context.Context, check string)

	// RecordHeartbeat records a heartbeat ping.
	RecordHeartbeat(ctx context.Context)

	// RecordLinkClick records a classified link activation. kind is "outbound" or "download".
	RecordLinkClick(ctx context.Context, kind string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches         metric.Int64Counter
	dispatchLatency    metric.Float64Histogram
	dispatchErrors     metric.Int64Counter
	validationWarnings metric.Int64Counter
	heartbeats         metric.Int64Counter
	linkClicks         metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("kepixel")

	dispatches, err := meter.Int64Counter("kepixel.dispatch.calls",
		metric.WithDescription("Number of collector calls"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("kepixel.dispatch.latency_ms",
		metric.WithDescription("Collector call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatchErrors, err := meter.Int64Counter("kepixel.dispatch.errors",
		metric.WithDescription("Number of failed collector calls"),
	)
	if err != nil {
		return nil, err
	}

	validationWarnings, err := meter.Int64Counter("kepixel.validation.warnings",
		metric.WithDescription("Number of advisory validation failures"),
	)
	if err != nil {
		return nil, err
	}

	heartbeats, err := meter.Int64Counter("kepixel.heartbeat.pings",
		metric.WithDescription("Number of heartbeat pings"),
	)
	if err != nil {
		return nil, err
	}

	linkClicks, err := meter.Int64Counter("kepixel.link.clicks",
		metric.WithDescription("Number of tracked link activations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:         dispatches,
		dispatchLatency:    dispatchLatency,
		dispatchErrors:     dispatchErrors,
		validationWarnings: validationWarnings,
		heartbeats:         heartbeats,
		linkClicks:         linkClicks,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a collector call.
func (m *otelMetrics) RecordDispatch(ctx context.Context, kind, event string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("event", event),
	}

	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		errAttrs := append(attrs, attribute.String("category", kperrors.Categorize(err).String()))
		m.dispatchErrors.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}

// RecordValidationWarning records a validation warning.
func (m *otelMetrics) RecordValidationWarning(ctx context.Context, check string) {
	m.validationWarnings.Add(ctx, 1, metric.WithAttributes(attribute.String("check", check)))
}

// RecordHeartbeat records a heartbeat ping.
func (m *otelMetrics) RecordHeartbeat(ctx context.Context) {
	m.heartbeats.Add(ctx, 1)
}

// RecordLinkClick records a tracked link activation.
func (m *otelMetrics) RecordLinkClick(ctx context.Context, kind string) {
	m.linkClicks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

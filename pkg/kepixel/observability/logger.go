// Package observability provides structured logging, metrics, and tracing
// for the kepixel tracker.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogTrackerReady logs tracker construction.
func LogTrackerReady(logger *slog.Logger, appID, endpoint string) {
	if logger == nil {
		return
	}
	logger.Info("kepixel tracker ready",
		slog.String("app_id", appID),
		slog.String("endpoint", endpoint),
	)
}

// LogDispatch logs a call the collector accepted.
func LogDispatch(logger *slog.Logger, endpoint, event, userID string, statusCode int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("kepixel call sent",
		slog.String("endpoint", endpoint),
		slog.String("event", event),
		slog.String("user_id", userID),
		slog.Int("status_code", statusCode),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDispatchError logs a failed call. Transport failures are never fatal.
func LogDispatchError(logger *slog.Logger, endpoint, event string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("kepixel call failed",
		slog.String("endpoint", endpoint),
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// LogValidationWarning logs an advisory validation failure.
func LogValidationWarning(logger *slog.Logger, check, detail string) {
	if logger == nil {
		return
	}
	logger.Warn("kepixel validation warning",
		slog.String("check", check),
		slog.String("detail", detail),
	)
}

// LogHeartbeat logs a heartbeat ping.
func LogHeartbeat(logger *slog.Logger, idle time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("kepixel heartbeat",
		slog.Float64("idle_ms", float64(idle.Milliseconds())),
	)
}

// LogLinkClassified logs a classified link activation.
func LogLinkClassified(logger *slog.Logger, kind, href string) {
	if logger == nil {
		return
	}
	logger.Debug("kepixel link classified",
		slog.String("kind", kind),
		slog.String("href", href),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}

// Package errors provides the error tiers used by the tracker.
//
// Two tiers exist:
//   - Configuration: programmer mistakes (missing app ID, missing required
//     parameter). Returned synchronously before any network activity.
//   - Transport: non-success HTTP status or network failure. Settled into the
//     outcome of an asynchronous call and logged, never returned to the caller
//     of a tracking method.
package errors

import (
	"errors"
	"fmt"
)

// Category represents which tier an error belongs to.
type Category int

const (
	// CategoryConfiguration indicates a caller mistake that must be fixed in code.
	CategoryConfiguration Category = iota

	// CategoryTransient indicates a network condition that may clear on its own.
	// Examples: rate limits, gateway timeouts, connection resets.
	CategoryTransient

	// CategoryPermanent indicates the collector rejected the call.
	// Examples: bad credential, malformed body.
	CategoryPermanent
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Sentinel errors.
var (
	// ErrAppIDRequired indicates the tracker was constructed without an application identifier.
	ErrAppIDRequired = errors.New("appId is required for kepixel tracking")

	// ErrTrackingDisabled indicates a call was skipped because tracking is disabled.
	ErrTrackingDisabled = errors.New("kepixel tracking is disabled")

	// ErrTrackerClosed indicates a call was skipped because the tracker is closed.
	ErrTrackerClosed = errors.New("kepixel tracker is closed")
)

// MissingParameterError indicates a tracking call omitted a required parameter.
type MissingParameterError struct {
	// Op is the tracking operation (e.g., "track screen view").
	Op string
	// Param is the missing parameter name.
	Param string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("the %q parameter is required for %s", e.Param, e.Op)
}

// Categorize determines which tier an error belongs to.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	if errors.Is(err, ErrAppIDRequired) {
		return CategoryConfiguration
	}

	var paramErr *MissingParameterError
	if errors.As(err, &paramErr) {
		return CategoryConfiguration
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 408, 429, 502, 503, 504:
			return CategoryTransient
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient
			}
			return CategoryPermanent
		}
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsConfiguration reports whether err is a configuration-tier error.
func IsConfiguration(err error) bool {
	return err != nil && Categorize(err) == CategoryConfiguration
}

// IsTransient reports whether err is a transport error that may clear on its own.
func IsTransient(err error) bool {
	return err != nil && Categorize(err) == CategoryTransient
}

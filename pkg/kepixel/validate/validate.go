// Package validate provides the advisory presence checks applied to tracking
// calls, plus the required-parameter check that guards configuration errors.
//
// Advisory checks never block a send and never mutate their input. A failed
// check is reported through the Advisor as a warning log line and a metric.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
)

// Check names used in logs and metric labels.
const (
	CheckIdentity = "identity"
	CheckItems    = "items"
	CheckCart     = "cart"
)

// Identity reports whether the fragment carries at least one of email, phone, name or id.
func Identity(u *event.UserData) bool {
	if u == nil {
		return false
	}
	return u.Email != "" || u.Phone != "" || u.Name != "" || u.ID != ""
}

// Item reports whether id, name, price and quantity are all present.
// Values are not type- or range-checked.
func Item(item event.Item) bool {
	return item.ID != nil && item.Name != nil && item.Price != nil && item.Quantity != nil
}

// Items reports whether every item validates. An empty sequence is valid.
func Items(items []event.Item) bool {
	for _, item := range items {
		if !Item(item) {
			return false
		}
	}
	return true
}

// Require returns a MissingParameterError when value is absent.
// Absent means nil, an empty string, or NaN.
func Require(op, param string, value any) error {
	if isAbsent(value) {
		return kperrors.Missing(op, param)
	}
	return nil
}

func isAbsent(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Advisor runs the advisory checks and reports failures.
type Advisor struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// NewAdvisor creates an Advisor. A nil metrics recorder disables metrics.
func NewAdvisor(logger *slog.Logger, metrics observability.MetricsRecorder) *Advisor {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Advisor{logger: logger, metrics: metrics}
}

// CheckIdentity warns when a supplied fragment carries no identifying field.
// A nil fragment is not checked.
func (a *Advisor) CheckIdentity(ctx context.Context, u *event.UserData) bool {
	if u == nil || Identity(u) {
		return true
	}
	a.warn(ctx, CheckIdentity, "user_data must include at least one of email, phone, name or id")
	return false
}

// CheckItems warns once per invalid item.
func (a *Advisor) CheckItems(ctx context.Context, items []event.Item) bool {
	ok := true
	for i, item := range items {
		if Item(item) {
			continue
		}
		ok = false
		a.warn(ctx, CheckItems, fmt.Sprintf("item %d must include id, name, price and quantity", i))
	}
	return ok
}

// CheckCart warns when a flush finds nothing staged.
func (a *Advisor) CheckCart(ctx context.Context, size int) bool {
	if size > 0 {
		return true
	}
	a.warn(ctx, CheckCart, "ecommerce cart is empty, add items with AddEcommerceItem first")
	return false
}

func (a *Advisor) warn(ctx context.Context, check, detail string) {
	observability.LogValidationWarning(a.logger, check, detail)
	a.metrics.RecordValidationWarning(ctx, check)
}

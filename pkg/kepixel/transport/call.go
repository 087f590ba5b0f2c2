package transport

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Outcome is the settled result of one dispatch.
type Outcome struct {
	// Endpoint is the URL of the last request issued, if any.
	Endpoint string

	// StatusCode is the HTTP status of the last response, or 0.
	StatusCode int

	// Err is the transport error, if any. A skipped call carries the reason.
	Err error

	// Skipped is true when nothing was sent (e.g., tracking disabled).
	Skipped bool
}

// OK reports whether the call was sent and accepted.
func (o Outcome) OK() bool {
	return !o.Skipped && o.Err == nil
}

// Call is a completion handle for an asynchronous dispatch.
// Callers may ignore it; forward progress never depends on it.
type Call struct {
	id      string
	done    chan struct{}
	outcome Outcome
}

func newCall() *Call {
	return &Call{
		id:   fmt.Sprintf("call-%s", uuid.New().String()[:8]),
		done: make(chan struct{}),
	}
}

// Go runs fn on its own goroutine and returns a handle settled with its outcome.
func Go(fn func() Outcome) *Call {
	c := newCall()
	go func() {
		defer close(c.done)
		c.outcome = fn()
	}()
	return c
}

// Settled returns a handle that is already complete.
func Settled(outcome Outcome) *Call {
	c := newCall()
	c.outcome = outcome
	close(c.done)
	return c
}

// ID returns the dispatch identifier.
func (c *Call) ID() string {
	return c.id
}

// Done returns a channel closed when the call settles.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call settles or ctx is done.
func (c *Call) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the settled outcome.
// The second result is false if the call has not settled yet.
func (c *Call) Outcome() (Outcome, bool) {
	select {
	case <-c.done:
		return c.outcome, true
	default:
		return Outcome{}, false
	}
}

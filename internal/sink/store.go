// Package sink is a development collector. It accepts both kepixel wire
// shapes and keeps what it receives in a Store for inspection.
package sink

import (
	"context"
	"errors"
	"time"
)

// Record kinds.
const (
	KindBeacon   = "beacon"
	KindTrack    = "track"
	KindIdentify = "identify"
)

// Record is one call received by the sink.
type Record struct {
	ID       string
	Kind     string
	AppID    string
	UserID   string
	Event    string
	Body     []byte
	Received time.Time
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Kind  string
	AppID string

	// Limit caps the number of records returned. Zero means no limit.
	Limit int
}

func (f Filter) matches(r Record) bool {
	return (f.Kind == "" || f.Kind == r.Kind) && (f.AppID == "" || f.AppID == r.AppID)
}

// Store persists received records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record. An empty ID is assigned.
	Save(ctx context.Context, r Record) (Record, error)

	// List returns matching records in arrival order.
	// Returns an empty slice (not error) when nothing matches.
	List(ctx context.Context, f Filter) ([]Record, error)

	// Close releases any resources. Idempotent.
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("sink store closed")

// Package identity derives the session user identifier from identity
// fragments and registers the identity with the collector.
package identity

import (
	"context"
	"time"

	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
	"github.com/kepixel/kepixel-go/pkg/kepixel/session"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
)

// Identifier sends identify calls. *transport.Dispatcher satisfies it.
type Identifier interface {
	Identify(ctx context.Context, credential string, p transport.IdentifyPayload) transport.Outcome
}

// Resolver resolves and registers identities for one session.
type Resolver struct {
	session    *session.Session
	identifier Identifier
	now        func() time.Time
}

// NewResolver creates a Resolver. A nil now selects time.Now.
func NewResolver(s *session.Session, identifier Identifier, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{session: s, identifier: identifier, now: now}
}

// Candidate returns the identifier a fragment would resolve to:
// email, then phone, then id. Name is never used.
func Candidate(u *event.UserData) string {
	if u == nil {
		return ""
	}
	for _, v := range []string{u.Email, u.Phone, u.ID} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Resolve sets the session user identifier from u unless one is already set.
// Returns the session user identifier after resolution.
func (r *Resolver) Resolve(u *event.UserData) string {
	r.session.SetUserIDIfEmpty(Candidate(u))
	return r.session.UserID()
}

// Payload builds the identify body for u.
func (r *Resolver) Payload(u *event.UserData) transport.IdentifyPayload {
	return transport.IdentifyPayload{
		UserID: r.session.UserID(),
		Context: transport.IdentifyContext{
			Traits:  u.Traits(),
			Library: transport.Library{Name: transport.LibraryName},
		},
		Timestamp: transport.Timestamp(r.now()),
	}
}

// Register resolves u and issues exactly one identify call.
// The call is issued whether or not resolution changed anything.
func (r *Resolver) Register(ctx context.Context, u *event.UserData) transport.Outcome {
	r.Resolve(u)
	return r.identifier.Identify(ctx, r.session.Credential(), r.Payload(u))
}

// Package session holds the mutable per-tracker state: credentials, the
// resolved user identifier, the logging and disabled flags, and the
// ecommerce staging cart.
//
// One Session is created per tracker and passed by reference to every
// component that needs it. All methods are safe for concurrent use.
package session

import (
	"encoding/base64"
	"sync"

	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
)

// Session is the tracker's shared state.
type Session struct {
	mu         sync.RWMutex
	appID      string
	credential string
	userID     string
	disabled   bool
	log        bool

	cart *Cart
}

// New creates a Session for appID.
// Returns ErrAppIDRequired if appID is empty.
func New(appID string) (*Session, error) {
	if appID == "" {
		return nil, kperrors.ErrAppIDRequired
	}
	return &Session{
		appID:      appID,
		credential: encodeCredential(appID),
		cart:       &Cart{},
	}, nil
}

func encodeCredential(appID string) string {
	return base64.StdEncoding.EncodeToString([]byte(appID))
}

// AppID returns the application identifier.
func (s *Session) AppID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appID
}

// Credential returns the bearer credential derived from the app ID.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// SetAppID replaces the app ID and its credential.
// Returns ErrAppIDRequired if appID is empty.
func (s *Session) SetAppID(appID string) error {
	if appID == "" {
		return kperrors.ErrAppIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appID = appID
	s.credential = encodeCredential(appID)
	return nil
}

// UserID returns the current user identifier, or "" if unknown.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// SetUserID overwrites the user identifier.
func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// SetUserIDIfEmpty sets the user identifier only if none is known.
// Returns true if the identifier was set.
func (s *Session) SetUserIDIfEmpty(userID string) bool {
	if userID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != "" {
		return false
	}
	s.userID = userID
	return true
}

// Logging reports whether informational call logging is on.
func (s *Session) Logging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log
}

// SetLogging toggles informational call logging.
func (s *Session) SetLogging(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = on
}

// Disabled reports whether tracking is disabled.
func (s *Session) Disabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled
}

// SetDisabled toggles tracking.
func (s *Session) SetDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = disabled
}

// Cart returns the ecommerce staging cart.
func (s *Session) Cart() *Cart {
	return s.cart
}

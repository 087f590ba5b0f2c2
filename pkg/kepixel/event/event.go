// Package event defines the tracking event model for kepixel.
//
// This package provides:
//   - UserData, the identity fragment attached to a tracking call
//   - Item, a commerce line item
//   - One payload type per tracked action (Purchase, PageView, ...)
//   - TrackingEvent, the normalized unit handed to the dispatcher
//   - The catalog mapping internal event keys to canonical collector names
//
// Typed records keep known fields as struct fields and carry unknown ones in
// an explicit Extra map; the two are merged only when serialized.
package event

import (
	"encoding/json"
	"fmt"
	"maps"
)

// UserData is an identity fragment supplied with a tracking call.
type UserData struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
	ID    string `json:"id,omitempty"`

	// Extra holds additional identity signals (e.g., "app_version", "country").
	Extra map[string]any `json:"-"`
}

// Traits flattens the fragment into a single map.
// Known fields win over an Extra key of the same name. Empty known fields are omitted.
// Returns an empty (non-nil) map for a nil fragment.
func (u *UserData) Traits() map[string]any {
	traits := make(map[string]any)
	if u == nil {
		return traits
	}
	maps.Copy(traits, u.Extra)
	for key, value := range map[string]string{
		"email": u.Email,
		"phone": u.Phone,
		"name":  u.Name,
		"id":    u.ID,
	} {
		if value != "" {
			traits[key] = value
		}
	}
	return traits
}

// MarshalJSON implements json.Marshaler.
func (u UserData) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Traits())
}

// Item is a commerce line item.
// Required fields are pointers so that presence can be told apart from a zero value.
type Item struct {
	// ID is a string or a number.
	ID       any      `json:"id,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Category string   `json:"category,omitempty"`
	Variant  string   `json:"variant,omitempty"`

	Extra map[string]any `json:"-"`
}

// NewItem returns an item with all required fields present.
func NewItem(id any, name string, price, quantity float64) Item {
	return Item{
		ID:       id,
		Name:     &name,
		Price:    &price,
		Quantity: &quantity,
	}
}

// MarshalJSON implements json.Marshaler, merging Extra into the object.
func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	known, err := toMap(alias(i))
	if err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(known)+len(i.Extra))
	maps.Copy(merged, i.Extra)
	maps.Copy(merged, known)
	return json.Marshal(merged)
}

// Base carries the fields common to every payload.
type Base struct {
	Source     string
	Campaign   string
	UserData   *UserData
	CustomData map[string]any
}

// Common returns the common fields. Payload types embed Base to satisfy Payload.
func (b Base) Common() Base {
	return b
}

// Payload is a typed tracked action.
type Payload interface {
	// EventName returns the internal event key (e.g., "purchase").
	EventName() string

	// Common returns the source, campaign, identity and custom data.
	Common() Base
}

// ItemCarrier is implemented by payloads that carry line items.
type ItemCarrier interface {
	LineItems() []Item
}

// TrackingEvent is the normalized unit sent downstream.
type TrackingEvent struct {
	// Name is the internal event key. Never empty.
	Name       string
	Source     string
	Campaign   string
	UserData   *UserData
	CustomData map[string]any

	// Fields are the event-specific fields (value, currency, items, ...).
	Fields map[string]any
}

// Normalize converts a typed payload into a TrackingEvent.
func Normalize(p Payload) (TrackingEvent, error) {
	name := p.EventName()
	if name == "" {
		name = KeyCustomEvent
	}

	fields, err := toMap(p)
	if err != nil {
		return TrackingEvent{}, fmt.Errorf("normalize %s: %w", name, err)
	}

	common := p.Common()
	return TrackingEvent{
		Name:       name,
		Source:     common.Source,
		Campaign:   common.Campaign,
		UserData:   common.UserData,
		CustomData: common.CustomData,
		Fields:     fields,
	}, nil
}

// Properties returns the property bag sent with a structured-event call.
// Event-specific fields are merged with the event name and the common fields.
func (e TrackingEvent) Properties() map[string]any {
	props := make(map[string]any, len(e.Fields)+5)
	maps.Copy(props, e.Fields)
	props["event_name"] = e.Name
	if e.Source != "" {
		props["source"] = e.Source
	}
	if e.Campaign != "" {
		props["campaign"] = e.Campaign
	}
	if e.CustomData != nil {
		props["custom_data"] = e.CustomData
	}
	if e.UserData != nil {
		props["user_data"] = e.UserData.Traits()
	}
	return props
}

// toMap serializes v to a JSON object and decodes it back into a map.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

package kepixel

import (
	"encoding/json"
	"fmt"

	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
	"github.com/kepixel/kepixel-go/pkg/kepixel/validate"
)

// Beacon labels used in logs and metrics.
const (
	labelAction     = "action"
	labelSearch     = "site_search"
	labelLink       = "link"
	labelGoal       = "goal"
	labelCartUpdate = "ecommerce_cart_update"
	labelOrder      = "ecommerce_order"
)

// TrackAction sends an action beacon with action_name set to name.
func (t *Tracker) TrackAction(name string, u *event.UserData) (*transport.Call, error) {
	if err := validate.Require("track action", "name", name); err != nil {
		return nil, err
	}
	return t.sendBeacon(labelAction, u, transport.BeaconData{"action_name": name}), nil
}

// TrackScreenView sends the action "Screen / {name}".
func (t *Tracker) TrackScreenView(name string, u *event.UserData) (*transport.Call, error) {
	if err := validate.Require("track screen view", "name", name); err != nil {
		return nil, err
	}
	return t.TrackAction("Screen / "+name, u)
}

// TrackAppStart sends the action "App / start".
func (t *Tracker) TrackAppStart(u *event.UserData) *transport.Call {
	return t.sendBeacon(labelAction, u, transport.BeaconData{"action_name": "App / start"})
}

// SiteSearch describes an internal site search.
type SiteSearch struct {
	// Keyword is required.
	Keyword  string
	Category string

	// Count is the number of results, if known.
	Count *int

	UserData *event.UserData
}

// TrackSiteSearch sends a site search beacon.
func (t *Tracker) TrackSiteSearch(s SiteSearch) (*transport.Call, error) {
	if err := validate.Require("track site search", "keyword", s.Keyword); err != nil {
		return nil, err
	}
	data := transport.BeaconData{"search": s.Keyword}
	if s.Category != "" {
		data["search_cat"] = s.Category
	}
	if s.Count != nil {
		data["search_count"] = *s.Count
	}
	return t.sendBeacon(labelSearch, s.UserData, data), nil
}

// TrackLink sends an outbound link beacon for url.
func (t *Tracker) TrackLink(url string, u *event.UserData) (*transport.Call, error) {
	if err := validate.Require("track link", "url", url); err != nil {
		return nil, err
	}
	return t.sendBeacon(labelLink, u, transport.BeaconData{"link": url, "url": url}), nil
}

// Goal describes a goal conversion.
type Goal struct {
	// ID is required. Zero is a valid goal id.
	ID any

	Revenue    *float64
	UserData   *event.UserData
	CustomData map[string]any
}

// TrackGoal sends a goal conversion beacon.
func (t *Tracker) TrackGoal(g Goal) (*transport.Call, error) {
	if err := validate.Require("track goal", "goal_id", g.ID); err != nil {
		return nil, err
	}
	data := transport.BeaconData{"idgoal": g.ID}
	if g.Revenue != nil {
		data["revenue"] = *g.Revenue
	}
	for k, v := range g.CustomData {
		if _, taken := data[k]; !taken {
			data[k] = v
		}
	}
	return t.sendBeacon(labelGoal, g.UserData, data), nil
}

// encodeItems serializes cart items for the ec_items field.
func encodeItems(items any) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode ecommerce items: %w", err)
	}
	return string(data), nil
}

package kepixel

import (
	"context"

	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
	"github.com/kepixel/kepixel-go/pkg/kepixel/validate"
)

// Track sends any payload as a structured event.
// Line items are checked (advisory) when the payload carries them.
func (t *Tracker) Track(p event.Payload) *transport.Call {
	if c, ok := p.(event.ItemCarrier); ok {
		t.advisor.CheckItems(context.Background(), c.LineItems())
	}

	ev, err := event.Normalize(p)
	if err != nil {
		t.logger.Warn("event not tracked", "event", p.EventName(), "error", err)
		return transport.Settled(transport.Outcome{Err: err})
	}
	return t.sendEvent(ev)
}

// TrackPurchase sends an "Order Completed" event.
func (t *Tracker) TrackPurchase(p event.Purchase) *transport.Call { return t.Track(p) }

// TrackAddToCart sends a "Product Added" event.
func (t *Tracker) TrackAddToCart(p event.AddToCart) *transport.Call { return t.Track(p) }

// TrackViewContent sends a "Product Viewed" event.
func (t *Tracker) TrackViewContent(p event.ViewContent) *transport.Call { return t.Track(p) }

// TrackCompleteRegistration sends a "Sign Up" event.
func (t *Tracker) TrackCompleteRegistration(p event.CompleteRegistration) *transport.Call {
	return t.Track(p)
}

// TrackSearch sends a "Products Searched" event.
func (t *Tracker) TrackSearch(p event.Search) *transport.Call { return t.Track(p) }

// TrackInitiateCheckout sends a "Checkout Started" event.
func (t *Tracker) TrackInitiateCheckout(p event.InitiateCheckout) *transport.Call { return t.Track(p) }

// TrackAddPaymentInfo sends a "Payment Info Entered" event.
func (t *Tracker) TrackAddPaymentInfo(p event.AddPaymentInfo) *transport.Call { return t.Track(p) }

// TrackSignUp sends a "Sign Up" event.
func (t *Tracker) TrackSignUp(p event.SignUp) *transport.Call { return t.Track(p) }

// TrackPageView sends a "Page Viewed" event. A pending ecommerce view set
// with SetEcommerceView is attached to it and cleared. A skipped call keeps
// the view pending.
func (t *Tracker) TrackPageView(p event.PageView) *transport.Call {
	if call, ok := t.skipped(); ok {
		return call
	}
	view, ok := t.session.Cart().TakeView()
	if !ok {
		return t.Track(p)
	}

	ev, err := event.Normalize(p)
	if err != nil {
		return transport.Settled(transport.Outcome{Err: err})
	}
	ev.Fields["product_sku"] = view.SKU
	if view.Name != "" {
		ev.Fields["product_name"] = view.Name
	}
	if len(view.Categories) > 0 {
		ev.Fields["product_category"] = view.Categories
	}
	ev.Fields["product_price"] = view.Price
	return t.sendEvent(ev)
}

// TrackListView sends a "Product List Viewed" event.
func (t *Tracker) TrackListView(p event.ListView) *transport.Call { return t.Track(p) }

// TrackAddToWishlist sends a "Product Added to Wishlist" event.
func (t *Tracker) TrackAddToWishlist(p event.AddToWishlist) *transport.Call { return t.Track(p) }

// TrackAppOpen sends an "App Open" event.
func (t *Tracker) TrackAppOpen(p event.AppOpen) *transport.Call { return t.Track(p) }

// TrackAppInstall sends an "App Install" event.
func (t *Tracker) TrackAppInstall(p event.AppInstall) *transport.Call { return t.Track(p) }

// TrackContact sends a "Contact" event.
func (t *Tracker) TrackContact(p event.Contact) *transport.Call { return t.Track(p) }

// TrackLogin sends a "Login" event.
func (t *Tracker) TrackLogin(p event.Login) *transport.Call { return t.Track(p) }

// TrackCustomEvent sends a caller-named event. The name is mapped through
// the catalog, so a known key such as "order_refunded" is sent under its
// canonical name.
func (t *Tracker) TrackCustomEvent(p event.Custom) *transport.Call { return t.Track(p) }

// TrackDownload sends a "Download" event. The URL is required.
func (t *Tracker) TrackDownload(p event.Download) (*transport.Call, error) {
	if err := validate.Require("track download", "url", p.URL); err != nil {
		return nil, err
	}
	return t.Track(p), nil
}

// EventParams describes a category/action style event.
type EventParams struct {
	// Category is required and becomes the event name.
	Category string

	// Action is required.
	Action string
	Name   string
	Value  *float64

	// Campaign is sent as mtm_campaign and as the campaign property.
	Campaign string
	Source   string

	UserData   *event.UserData
	CustomData map[string]any
}

// TrackEvent sends a category/action event through the structured path.
// The category is mapped through the catalog like any event key.
func (t *Tracker) TrackEvent(p EventParams) (*transport.Call, error) {
	if err := validate.Require("track event", "category", p.Category); err != nil {
		return nil, err
	}
	if err := validate.Require("track event", "action", p.Action); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"e_c": p.Category,
		"e_a": p.Action,
	}
	if p.Name != "" {
		fields["e_n"] = p.Name
	}
	if p.Value != nil {
		fields["e_v"] = *p.Value
	}
	if p.Campaign != "" {
		fields["mtm_campaign"] = p.Campaign
	}

	return t.sendEvent(event.TrackingEvent{
		Name:       p.Category,
		Source:     p.Source,
		Campaign:   p.Campaign,
		UserData:   p.UserData,
		CustomData: p.CustomData,
		Fields:     fields,
	}), nil
}

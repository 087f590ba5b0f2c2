package event

import (
	"encoding/json"
	"maps"
)

// Numeric and string fields left at their zero value are omitted from the
// serialized properties.

// Purchase records a completed order.
type Purchase struct {
	Base        `json:"-"`
	Value       float64 `json:"value,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Items       []Item  `json:"items,omitempty"`
	OrderID     string  `json:"order_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

// EventName implements Payload.
func (Purchase) EventName() string { return KeyPurchase }

// LineItems implements ItemCarrier.
func (p Purchase) LineItems() []Item { return p.Items }

// AddToCart records items added to the cart.
type AddToCart struct {
	Base        `json:"-"`
	Value       float64 `json:"value,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	Items       []Item  `json:"items,omitempty"`
	Description string  `json:"description,omitempty"`
}

// EventName implements Payload.
func (AddToCart) EventName() string { return KeyAddToCart }

// LineItems implements ItemCarrier.
func (p AddToCart) LineItems() []Item { return p.Items }

// ViewContent records a view of a specific piece of content.
type ViewContent struct {
	Base     `json:"-"`
	ID       any     `json:"id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Type     string  `json:"type,omitempty"`
	Value    float64 `json:"value,omitempty"`
}

// EventName implements Payload.
func (ViewContent) EventName() string { return KeyViewContent }

// CompleteRegistration records a finished registration flow.
type CompleteRegistration struct {
	Base     `json:"-"`
	Value    float64 `json:"value,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Method   string  `json:"method,omitempty"`
}

// EventName implements Payload.
func (CompleteRegistration) EventName() string { return KeyCompleteRegistration }

// Search records a search performed by the user.
type Search struct {
	Base         `json:"-"`
	SearchString string `json:"search_string,omitempty"`
}

// EventName implements Payload.
func (Search) EventName() string { return KeySearch }

// InitiateCheckout records the start of checkout.
type InitiateCheckout struct {
	Base     `json:"-"`
	Value    float64 `json:"value,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Items    []Item  `json:"items,omitempty"`
}

// EventName implements Payload.
func (InitiateCheckout) EventName() string { return KeyInitiateCheckout }

// LineItems implements ItemCarrier.
func (p InitiateCheckout) LineItems() []Item { return p.Items }

// AddPaymentInfo records payment details being entered.
type AddPaymentInfo struct {
	Base     `json:"-"`
	Value    float64 `json:"value,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Items    []Item  `json:"items,omitempty"`
}

// EventName implements Payload.
func (AddPaymentInfo) EventName() string { return KeyAddPaymentInfo }

// LineItems implements ItemCarrier.
func (p AddPaymentInfo) LineItems() []Item { return p.Items }

// SignUp records a sign up.
type SignUp struct {
	Base `json:"-"`
}

// EventName implements Payload.
func (SignUp) EventName() string { return KeySignUp }

// PageView records a page view.
type PageView struct {
	Base     `json:"-"`
	ID       any    `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
}

// EventName implements Payload.
func (PageView) EventName() string { return KeyPageView }

// ListView records a view of a list of items.
type ListView struct {
	Base     `json:"-"`
	ID       any    `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
}

// EventName implements Payload.
func (ListView) EventName() string { return KeyListView }

// AddToWishlist records items added to a wishlist.
type AddToWishlist struct {
	Base  `json:"-"`
	Items []Item `json:"items,omitempty"`
}

// EventName implements Payload.
func (AddToWishlist) EventName() string { return KeyAddToWishlist }

// LineItems implements ItemCarrier.
func (p AddToWishlist) LineItems() []Item { return p.Items }

// AppOpen records the app being opened.
type AppOpen struct {
	Base       `json:"-"`
	AppName    string `json:"app_name,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
}

// EventName implements Payload.
func (AppOpen) EventName() string { return KeyAppOpen }

// AppInstall records the app being installed.
type AppInstall struct {
	Base       `json:"-"`
	AppName    string `json:"app_name,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
}

// EventName implements Payload.
func (AppInstall) EventName() string { return KeyAppInstall }

// Contact records the user making contact.
type Contact struct {
	Base   `json:"-"`
	Method string `json:"method,omitempty"`
}

// EventName implements Payload.
func (Contact) EventName() string { return KeyContact }

// Login records a login.
type Login struct {
	Base `json:"-"`
}

// EventName implements Payload.
func (Login) EventName() string { return KeyLogin }

// Download records a file download.
type Download struct {
	Base        `json:"-"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
}

// EventName implements Payload.
func (Download) EventName() string { return KeyDownload }

// Custom records a caller-named event with arbitrary data.
type Custom struct {
	Base `json:"-"`

	// Name is the event name. Defaults to "custom_event" when empty.
	Name string
	Data map[string]any
}

// EventName implements Payload.
func (c Custom) EventName() string {
	if c.Name == "" {
		return KeyCustomEvent
	}
	return c.Name
}

// MarshalJSON implements json.Marshaler. Only Data is serialized.
func (c Custom) MarshalJSON() ([]byte, error) {
	data := make(map[string]any, len(c.Data))
	maps.Copy(data, c.Data)
	return json.Marshal(data)
}

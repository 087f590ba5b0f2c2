package event

import (
	"slices"
)

// Internal event keys produced by the payload types.
const (
	KeyPurchase             = "purchase"
	KeyAddToCart            = "add_to_cart"
	KeyViewContent          = "view_content"
	KeyCompleteRegistration = "complete_registration"
	KeySearch               = "search"
	KeyInitiateCheckout     = "initiate_checkout"
	KeyAddPaymentInfo       = "add_payment_info"
	KeySignUp               = "sign_up"
	KeyPageView             = "page_view"
	KeyListView             = "list_view"
	KeyAddToWishlist        = "add_to_wishlist"
	KeyAppOpen              = "app_open"
	KeyAppInstall           = "app_install"
	KeyContact              = "contact"
	KeyLogin                = "login"
	KeyDownload             = "download"
	KeyCustomEvent          = "custom_event"
)

// Catalog tags.
const (
	TagLifecycle  = "lifecycle"
	TagCommerce   = "commerce"
	TagEngagement = "engagement"
)

// Definition maps an internal event key to the canonical collector name.
type Definition struct {
	// Key is the internal event key (e.g., "add_to_cart").
	Key string

	// Canonical is the name the collector expects (e.g., "Product Added").
	Canonical string

	// Tags group definitions by naming scheme.
	Tags []string
}

// definitions is the static key table. Several keys share a canonical name.
var definitions = []Definition{
	// Commerce lifecycle keys.
	{Key: "product_clicked", Canonical: "Product Clicked", Tags: []string{TagLifecycle}},
	{Key: "product_viewed", Canonical: "Product Viewed", Tags: []string{TagLifecycle}},
	{Key: "product_added", Canonical: "Product Added", Tags: []string{TagLifecycle}},
	{Key: "product_removed", Canonical: "Product Removed", Tags: []string{TagLifecycle}},
	{Key: "cart_viewed", Canonical: "Cart Viewed", Tags: []string{TagLifecycle}},
	{Key: "checkout_started", Canonical: "Checkout Started", Tags: []string{TagLifecycle}},
	{Key: "checkout_step_viewed", Canonical: "Checkout Step Viewed", Tags: []string{TagLifecycle}},
	{Key: "checkout_step_completed", Canonical: "Checkout Step Completed", Tags: []string{TagLifecycle}},
	{Key: "payment_info_entered", Canonical: "Payment Info Entered", Tags: []string{TagLifecycle}},
	{Key: "order_updated", Canonical: "Order Updated", Tags: []string{TagLifecycle}},
	{Key: "order_completed", Canonical: "Order Completed", Tags: []string{TagLifecycle}},
	{Key: "order_refunded", Canonical: "Order Refunded", Tags: []string{TagLifecycle}},
	{Key: "order_cancelled", Canonical: "Order Cancelled", Tags: []string{TagLifecycle}},
	{Key: "coupon_entered", Canonical: "Coupon Entered", Tags: []string{TagLifecycle}},
	{Key: "coupon_applied", Canonical: "Coupon Applied", Tags: []string{TagLifecycle}},
	{Key: "coupon_denied", Canonical: "Coupon Denied", Tags: []string{TagLifecycle}},
	{Key: "coupon_removed", Canonical: "Coupon Removed", Tags: []string{TagLifecycle}},
	{Key: "products_searched", Canonical: "Products Searched", Tags: []string{TagLifecycle}},
	{Key: "product_list_viewed", Canonical: "Product List Viewed", Tags: []string{TagLifecycle}},
	{Key: "product_list_filtered", Canonical: "Product List Filtered", Tags: []string{TagLifecycle}},
	{Key: "product_added_to_wishlist", Canonical: "Product Added to Wishlist", Tags: []string{TagLifecycle}},
	{Key: "product_removed_from_wishlist", Canonical: "Product Removed from Wishlist", Tags: []string{TagLifecycle}},
	{Key: "wishlist_product_added_to_cart", Canonical: "Wishlist Product Added to Cart", Tags: []string{TagLifecycle}},
	{Key: "product_shared", Canonical: "Product Shared", Tags: []string{TagLifecycle}},
	{Key: "cart_shared", Canonical: "Cart Shared", Tags: []string{TagLifecycle}},
	{Key: "promotion_viewed", Canonical: "Promotion Viewed", Tags: []string{TagLifecycle}},
	{Key: "promotion_clicked", Canonical: "Promotion Clicked", Tags: []string{TagLifecycle}},
	{Key: "product_reviewed", Canonical: "Product Reviewed", Tags: []string{TagLifecycle}},
	{Key: "page_loaded", Canonical: "Page Loaded", Tags: []string{TagLifecycle}},

	// Short commerce keys produced by the payload types.
	{Key: KeyAddToCart, Canonical: "Product Added", Tags: []string{TagCommerce}},
	{Key: KeySearch, Canonical: "Products Searched", Tags: []string{TagCommerce}},
	{Key: KeyListView, Canonical: "Product List Viewed", Tags: []string{TagCommerce}},
	{Key: KeyViewContent, Canonical: "Product Viewed", Tags: []string{TagCommerce}},
	{Key: KeyInitiateCheckout, Canonical: "Checkout Started", Tags: []string{TagCommerce}},
	{Key: KeyAddToWishlist, Canonical: "Product Added to Wishlist", Tags: []string{TagCommerce}},
	{Key: KeyPurchase, Canonical: "Order Completed", Tags: []string{TagCommerce}},
	{Key: KeyAddPaymentInfo, Canonical: "Payment Info Entered", Tags: []string{TagCommerce}},

	// Engagement keys.
	{Key: KeySignUp, Canonical: "Sign Up", Tags: []string{TagEngagement}},
	{Key: KeyCompleteRegistration, Canonical: "Sign Up", Tags: []string{TagEngagement}},
	{Key: KeyLogin, Canonical: "Login", Tags: []string{TagEngagement}},
	{Key: KeyAppInstall, Canonical: "App Install", Tags: []string{TagEngagement}},
	{Key: KeyDownload, Canonical: "Download", Tags: []string{TagEngagement}},
	{Key: KeyAppOpen, Canonical: "App Open", Tags: []string{TagEngagement}},
	{Key: KeyContact, Canonical: "Contact", Tags: []string{TagEngagement}},
	{Key: KeyPageView, Canonical: "Page Viewed", Tags: []string{TagEngagement}},
}

var byKey = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Key] = d
	}
	return m
}()

// CanonicalName returns the collector name for key, or key unchanged when unmapped.
func CanonicalName(key string) string {
	if d, ok := byKey[key]; ok {
		return d.Canonical
	}
	return key
}

// Lookup returns the definition for key.
func Lookup(key string) (Definition, bool) {
	d, ok := byKey[key]
	if !ok {
		return Definition{}, false
	}
	d.Tags = slices.Clone(d.Tags)
	return d, true
}

// Has returns true if key has a canonical name.
func Has(key string) bool {
	_, ok := byKey[key]
	return ok
}

// Keys returns all mapped keys in table order.
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for _, d := range definitions {
		keys = append(keys, d.Key)
	}
	return keys
}

// ListByTag returns all definitions with a given tag, in table order.
func ListByTag(tag string) []Definition {
	var result []Definition
	for _, d := range definitions {
		if slices.Contains(d.Tags, tag) {
			d.Tags = slices.Clone(d.Tags)
			result = append(result, d)
		}
	}
	return result
}

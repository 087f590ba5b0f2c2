package kepixel

import (
	"context"

	"github.com/kepixel/kepixel-go/pkg/kepixel/observability"
	"github.com/kepixel/kepixel-go/pkg/kepixel/session"
	"github.com/kepixel/kepixel-go/pkg/kepixel/transport"
	"github.com/kepixel/kepixel-go/pkg/kepixel/validate"
)

// SetEcommerceView stages a product view. It is attached to the next
// TrackPageView and then cleared.
func (t *Tracker) SetEcommerceView(sku, name string, categories []string, price float64) {
	t.session.Cart().SetView(session.EcommerceView{
		SKU:        sku,
		Name:       name,
		Categories: categories,
		Price:      price,
	})
}

// AddEcommerceItem stages a cart item. An empty sku logs a warning and the
// item is not added. A non-positive quantity counts as 1.
func (t *Tracker) AddEcommerceItem(sku, name string, categories []string, price, quantity float64) bool {
	if sku == "" {
		observability.LogValidationWarning(t.logger, validate.CheckCart, "ecommerce item has no sku, not added")
		t.metrics.RecordValidationWarning(context.Background(), validate.CheckCart)
		return false
	}
	if quantity <= 0 {
		quantity = 1
	}
	t.session.Cart().Add(session.CartItem{
		SKU:        sku,
		Name:       name,
		Categories: categories,
		Price:      price,
		Quantity:   quantity,
	})
	return true
}

// ClearEcommerceCart drops all staged items.
func (t *Tracker) ClearEcommerceCart() {
	t.session.Cart().Clear()
}

// EcommerceCart returns a copy of the staged items.
func (t *Tracker) EcommerceCart() []session.CartItem {
	return t.session.Cart().Items()
}

// TrackEcommerceCartUpdate sends the staged cart with its grand total and
// clears it. An empty cart is sent anyway after a warning. A skipped call
// leaves the cart staged.
func (t *Tracker) TrackEcommerceCartUpdate(grandTotal float64) *transport.Call {
	if call, ok := t.skipped(); ok {
		return call
	}
	items, err := t.flushCart()
	if err != nil {
		return transport.Settled(transport.Outcome{Err: err})
	}
	return t.sendBeacon(labelCartUpdate, nil, transport.BeaconData{
		"ecommerce_cart_update": 1,
		"revenue":               grandTotal,
		"ec_items":              items,
	})
}

// OrderTotals describes a completed ecommerce order.
type OrderTotals struct {
	// OrderID is required.
	OrderID    string
	GrandTotal float64

	SubTotal *float64
	Tax      *float64
	Shipping *float64
	Discount *float64
}

// TrackEcommerceOrder sends the staged cart as an order and clears it.
// A skipped call leaves the cart staged.
func (t *Tracker) TrackEcommerceOrder(o OrderTotals) (*transport.Call, error) {
	if err := validate.Require("track ecommerce order", "order_id", o.OrderID); err != nil {
		return nil, err
	}
	if call, ok := t.skipped(); ok {
		return call, nil
	}
	items, err := t.flushCart()
	if err != nil {
		return transport.Settled(transport.Outcome{Err: err}), nil
	}

	data := transport.BeaconData{
		"ecommerce_order": 1,
		"order_id":        o.OrderID,
		"revenue":         o.GrandTotal,
		"ec_items":        items,
	}
	for key, v := range map[string]*float64{
		"subtotal": o.SubTotal,
		"tax":      o.Tax,
		"shipping": o.Shipping,
		"discount": o.Discount,
	} {
		if v != nil {
			data[key] = *v
		}
	}
	return t.sendBeacon(labelOrder, nil, data), nil
}

// flushCart takes the staged items and encodes them, warning on an empty cart.
func (t *Tracker) flushCart() (string, error) {
	items := t.session.Cart().Flush()
	t.advisor.CheckCart(context.Background(), len(items))
	if items == nil {
		items = []session.CartItem{}
	}
	return encodeItems(items)
}

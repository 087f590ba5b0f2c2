package kepixel_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kepixel/kepixel-go/pkg/kepixel"
	kperrors "github.com/kepixel/kepixel-go/pkg/kepixel/errors"
	"github.com/kepixel/kepixel-go/pkg/kepixel/event"
)

func TestAddEcommerceItem(t *testing.T) {
	c := newCollector(t, http.StatusOK)
	tr := newTracker(t, c)

	assert.False(t, tr.AddEcommerceItem("", "No SKU", nil, 5, 1))
	assert.True(t, tr.AddEcommerceItem("sku-1", "Shirt", []string{"Tops"}, 10, 0))

	items := tr.EcommerceCart()
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].Quantity)

	tr.ClearEcommerceCart()
	assert.Empty(t, tr.EcommerceCart())
}

func TestTrackEcommerceOrder(t *testing.T) {
	c := newCollector(t, http.StatusOK)
	tr := newTracker(t, c)
	tr.AddEcommerceItem("sku-1", "Shirt", []string{"Tops"}, 10, 0)

	_, err := tr.TrackEcommerceOrder(kepixel.OrderTotals{GrandTotal: 10})
	require.Error(t, err)
	assert.Len(t, tr.EcommerceCart(), 1, "a rejected order leaves the cart staged")

	tax := 1.5
	call, err := tr.TrackEcommerceOrder(kepixel.OrderTotals{OrderID: "o-9", GrandTotal: 11.5, Tax: &tax})
	require.NoError(t, err)
	require.True(t, wait(t, call).OK())
	assert.Empty(t, tr.EcommerceCart())

	form := c.all()[1].Form(t)
	assert.Equal(t, "1", form.Get("ecommerce_order"))
	assert.Equal(t, "o-9", form.Get("order_id"))
	assert.Equal(t, "11.5", form.Get("revenue"))
	assert.Equal(t, "1.5", form.Get("tax"))
	assert.False(t, form.Has("shipping"))
	assert.JSONEq(t,
		`[{"productSKU":"sku-1","productName":"Shirt","categoryName":["Tops"],"price":10,"quantity":1}]`,
		form.Get("ec_items"))
}

func TestTrackEcommerceCartUpdate(t *testing.T) {
	c := newCollector(t, http.StatusOK)
	logs := &syncBuffer{}
	tr := newTracker(t, c, kepixel.WithLogger(newTextLogger(logs)))

	wait(t, tr.TrackEcommerceCartUpdate(0))
	assert.Contains(t, logs.String(), "ecommerce cart is empty")
	assert.Equal(t, "[]", c.all()[1].Form(t).Get("ec_items"))

	tr.AddEcommerceItem("sku-2", "", nil, 4, 3)
	wait(t, tr.TrackEcommerceCartUpdate(12))

	form := c.all()[3].Form(t)
	assert.Equal(t, "1", form.Get("ecommerce_cart_update"))
	assert.Equal(t, "12", form.Get("revenue"))
	assert.JSONEq(t, `[{"productSKU":"sku-2","price":4,"quantity":3}]`, form.Get("ec_items"))
	assert.Empty(t, tr.EcommerceCart())
}

func TestSetEcommerceView_AttachesToNextPageView(t *testing.T) {
	c := newCollector(t, http.StatusOK)
	tr := newTracker(t, c)

	tr.SetEcommerceView("sku-3", "Hat", []string{"Accessories"}, 19.99)
	wait(t, tr.TrackPageView(event.PageView{Name: "/hat"}))
	wait(t, tr.TrackPageView(event.PageView{Name: "/home"}))

	reqs := c.all()
	require.Len(t, reqs, 4)

	first := reqs[1].JSON(t)["properties"].(map[string]any)
	assert.Equal(t, "Page Viewed", reqs[1].JSON(t)["event"])
	assert.Equal(t, "sku-3", first["product_sku"])
	assert.Equal(t, "Hat", first["product_name"])
	assert.Equal(t, []any{"Accessories"}, first["product_category"])
	assert.Equal(t, 19.99, first["product_price"])

	second := reqs[3].JSON(t)["properties"].(map[string]any)
	assert.NotContains(t, second, "product_sku")
}

func TestSetDisabled_KeepsStagedEcommerce(t *testing.T) {
	c := newCollector(t, http.StatusOK)
	tr := newTracker(t, c)

	tr.AddEcommerceItem("sku-1", "Shirt", nil, 10, 1)
	tr.SetEcommerceView("sku-3", "Hat", nil, 19.99)
	tr.SetDisabled(true)

	update := wait(t, tr.TrackEcommerceCartUpdate(10))
	assert.True(t, update.Skipped)
	assert.ErrorIs(t, update.Err, kperrors.ErrTrackingDisabled)

	call, err := tr.TrackEcommerceOrder(kepixel.OrderTotals{OrderID: "o-1", GrandTotal: 10})
	require.NoError(t, err)
	assert.True(t, wait(t, call).Skipped)

	assert.True(t, wait(t, tr.TrackPageView(event.PageView{Name: "/hat"})).Skipped)
	assert.Len(t, tr.EcommerceCart(), 1, "skipped calls leave the cart staged")
	assert.Zero(t, c.count())

	tr.SetDisabled(false)
	wait(t, tr.TrackPageView(event.PageView{Name: "/hat"}))
	call, err = tr.TrackEcommerceOrder(kepixel.OrderTotals{OrderID: "o-1", GrandTotal: 10})
	require.NoError(t, err)
	require.True(t, wait(t, call).OK())

	reqs := c.all()
	require.Len(t, reqs, 4)
	props := reqs[1].JSON(t)["properties"].(map[string]any)
	assert.Equal(t, "sku-3", props["product_sku"])
	assert.JSONEq(t,
		`[{"productSKU":"sku-1","productName":"Shirt","price":10,"quantity":1}]`,
		reqs[3].Form(t).Get("ec_items"))
	assert.Empty(t, tr.EcommerceCart())
}

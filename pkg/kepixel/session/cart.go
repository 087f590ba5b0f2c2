package session

import "sync"

// CartItem is a product staged for the next cart update or order.
type CartItem struct {
	SKU        string   `json:"productSKU"`
	Name       string   `json:"productName,omitempty"`
	Categories []string `json:"categoryName,omitempty"`
	Price      float64  `json:"price"`
	Quantity   float64  `json:"quantity"`
}

// EcommerceView is the product attached to the next page view.
type EcommerceView struct {
	SKU        string
	Name       string
	Categories []string
	Price      float64
}

// Cart is the ecommerce staging cart.
// Items keep insertion order. A flush reads and clears in one step.
type Cart struct {
	mu    sync.Mutex
	items []CartItem
	view  *EcommerceView
}

// Add appends an item.
func (c *Cart) Add(item CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Len returns the number of staged items.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a copy of the staged items.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Clear removes all staged items.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Flush returns the staged items and clears the cart.
func (c *Cart) Flush() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.items
	c.items = nil
	return items
}

// SetView stages a product view for the next page view.
func (c *Cart) SetView(view EcommerceView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = &view
}

// TakeView returns the staged product view and clears it.
func (c *Cart) TakeView() (EcommerceView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return EcommerceView{}, false
	}
	view := *c.view
	c.view = nil
	return view, true
}

package model

import "errors"

// ErrInvalidQuantity is returned when a cart quantity is not a positive integer.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartItem is one flattened cart line.
type CartItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     Price  `json:"price"`
	Quantity  int    `json:"quantity"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Category  string `json:"category,omitempty"`
}

// Subtotal returns price times quantity.
func (i CartItem) Subtotal() Price {
	return i.Price * Price(i.Quantity)
}

// Cart is an ordered list of line items with at most one line per product.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Add merges item into the cart. An existing line for the same product has its quantity
// incremented; otherwise the item is appended.
func (c *Cart) Add(item CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

// Remove drops the line for productID and reports whether one existed.
func (c *Cart) Remove(productID int64) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() { c.Items = nil }

// Total sums line subtotals.
func (c Cart) Total() Price {
	var total Price
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	return total
}

// Count sums quantities.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Normalize coalesces duplicate product lines and drops non-positive quantities.
// It is applied to carts read back from storage, which may have been written by older clients.
func (c *Cart) Normalize() {
	items := c.Items
	c.Items = nil
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		_ = c.Add(it)
	}
}

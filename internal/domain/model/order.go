package model

import "time"

// OrderStatus is the server-owned order state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// OrderItem is one ordered product.
type OrderItem struct {
	Product  int64  `json:"product"`
	Name     string `json:"name,omitempty"`
	Price    Price  `json:"price,omitempty"`
	Quantity int    `json:"quantity"`
}

// Order is the subset of the order record the client renders.
type Order struct {
	ID              int64       `json:"id"`
	Status          OrderStatus `json:"status"`
	Items           []OrderItem `json:"items"`
	Total           Price       `json:"total"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	CreatedAt       time.Time   `json:"created_at,omitzero"`
}

// OrderInput is the checkout handoff payload.
type OrderInput struct {
	ShippingAddress string      `json:"shipping_address" validate:"required"`
	Phone           string      `json:"phone,omitempty"  validate:"omitempty,phone"`
	Items           []OrderItem `json:"items"            validate:"required,min=1,dive"`
}

// OrderItemsFromCart converts cart lines to order lines using each line's own quantity.
func OrderItemsFromCart(c Cart) []OrderItem {
	out := make([]OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, OrderItem{
			Product:  it.ProductID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	return out
}

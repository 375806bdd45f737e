package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/validation"
)

const pathOrders = "api/v1/orders/"

// OrderServiceOptions groups dependencies for OrderService.
type OrderServiceOptions struct {
	Session SessionReader // Required: API access
	Cart    *CartService  // Required: source of checkout lines
	Logger  *slog.Logger  // Optional: structured logger
}

// OrderService lists orders and hands the cart off to checkout.
type OrderService struct {
	session SessionReader
	cart    *CartService
	logger  *slog.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(opts OrderServiceOptions) *OrderService {
	if opts.Session == nil {
		panic("OrderService requires a non-nil Session")
	}
	if opts.Cart == nil {
		panic("OrderService requires a non-nil Cart")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{session: opts.Session, cart: opts.Cart, logger: logger.With("component", "orders")}
}

// List returns the caller's orders.
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	var page model.Page[model.Order]
	if err := s.session.Client().Get(ctx, pathOrders, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id int64) (model.Order, error) {
	var o model.Order
	if err := s.session.Client().Get(ctx, fmt.Sprintf("%s%d/", pathOrders, id), nil, &o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// PlaceFromCart creates an order from the current cart, then empties the cart. A failure
// to clear is logged; the order stands.
func (s *OrderService) PlaceFromCart(ctx context.Context, shippingAddress, phone string) (model.Order, error) {
	if !s.session.State().IsAuthenticated() {
		return model.Order{}, apperrors.Unauthorized("You must be logged in to place an order.")
	}
	cart, err := s.cart.Items(ctx)
	if err != nil {
		return model.Order{}, err
	}
	if len(cart.Items) == 0 {
		return model.Order{}, apperrors.ValidationField("items", "Your cart is empty.")
	}

	in := model.OrderInput{
		ShippingAddress: shippingAddress,
		Phone:           phone,
		Items:           model.OrderItemsFromCart(cart),
	}
	if err := validation.Struct(in); err != nil {
		return model.Order{}, err
	}

	var order model.Order
	if err := s.session.Client().Post(ctx, pathOrders, in, &order); err != nil {
		return model.Order{}, err
	}
	if _, err := s.cart.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "cart not cleared after order", "order_id", order.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "order placed", "order_id", order.ID, "lines", len(order.Items))
	return order, nil
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/internal/domain/model"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/testutil"
)

func TestOrderService_PlaceFromCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mug := env.api.AddProduct(testutil.NewProduct("Coffee Mug").WithPrice(1250).Build())
	lamp := env.api.AddProduct(testutil.NewProduct("Desk Lamp").WithPrice(4599).Build())
	env.loggedIn(t, testutil.NewUser(testEmail).Build())
	carts := newCartService(env)
	orders := NewOrderService(OrderServiceOptions{Session: env.session, Cart: carts})

	_, err := carts.Add(ctx, mug, 3)
	require.NoError(t, err)
	_, err = carts.Add(ctx, lamp, 1)
	require.NoError(t, err)

	order, err := orders.PlaceFromCart(ctx, "1 Main St", "+1 555 0100")

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 1, order.Items[1].Quantity)
	assert.Equal(t, model.Price(3*1250+4599), order.Total)
	assert.Empty(t, env.api.ServerCart(testEmail))

	got, err := orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	list, err := orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = orders.Get(ctx, 9999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOrderService_PlaceFromCartRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.session.Hydrate(ctx))
		orders := NewOrderService(OrderServiceOptions{Session: env.session, Cart: newCartService(env)})

		_, err := orders.PlaceFromCart(ctx, "1 Main St", "")
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("empty cart", func(t *testing.T) {
		env := newTestEnv(t)
		env.loggedIn(t, testutil.NewUser(testEmail).Build())
		orders := NewOrderService(OrderServiceOptions{Session: env.session, Cart: newCartService(env)})

		_, err := orders.PlaceFromCart(ctx, "1 Main St", "")
		require.Error(t, err)
		assert.Equal(t, "Your cart is empty.", apperrors.Message(err))
		assert.Zero(t, env.api.Calls(testutil.RouteOrderNew))
	})

	t.Run("missing address", func(t *testing.T) {
		env := newTestEnv(t)
		mug := env.api.AddProduct(testutil.NewProduct("Coffee Mug").Build())
		env.loggedIn(t, testutil.NewUser(testEmail).Build())
		carts := newCartService(env)
		_, err := carts.Add(ctx, mug, 1)
		require.NoError(t, err)
		orders := NewOrderService(OrderServiceOptions{Session: env.session, Cart: carts})

		_, err = orders.PlaceFromCart(ctx, "", "")
		require.Error(t, err)
		assert.Equal(t, "shipping_address", apperrors.GetField(err))
		assert.Len(t, env.api.ServerCart(testEmail), 1)
	})
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddCoalescesDuplicates(t *testing.T) {
	var c Cart
	item := CartItem{ProductID: 7, Name: "Mug", Price: 1250, Quantity: 1}

	require.NoError(t, c.Add(item))
	require.NoError(t, c.Add(item))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, Price(2500), c.Total())
	assert.Equal(t, 2, c.Count())
}

func TestCart_AddKeepsInsertionOrder(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(CartItem{ProductID: 2, Quantity: 1}))
	require.NoError(t, c.Add(CartItem{ProductID: 1, Quantity: 3}))
	require.NoError(t, c.Add(CartItem{ProductID: 2, Quantity: 2}))

	require.Len(t, c.Items, 2)
	assert.Equal(t, int64(2), c.Items[0].ProductID)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, int64(1), c.Items[1].ProductID)
}

func TestCart_AddRejectsNonPositiveQuantity(t *testing.T) {
	var c Cart
	assert.ErrorIs(t, c.Add(CartItem{ProductID: 1, Quantity: 0}), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(CartItem{ProductID: 1, Quantity: -2}), ErrInvalidQuantity)
	assert.Empty(t, c.Items)
}

func TestCart_Remove(t *testing.T) {
	c := Cart{Items: []CartItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}}}
	assert.True(t, c.Remove(1))
	assert.False(t, c.Remove(1))
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].ProductID)

	c.Clear()
	assert.Zero(t, c.Count())
}

func TestCart_Normalize(t *testing.T) {
	c := Cart{Items: []CartItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 0},
		{ProductID: 1, Quantity: 4},
	}}
	c.Normalize()
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestPrice_JSON(t *testing.T) {
	var item CartItem
	require.NoError(t, json.Unmarshal([]byte(`{"product_id":1,"price":"19.9","quantity":1}`), &item))
	assert.Equal(t, Price(1990), item.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"product_id":1,"price":5,"quantity":1}`), &item))
	assert.Equal(t, Price(500), item.Price)

	out, err := json.Marshal(Price(1234))
	require.NoError(t, err)
	assert.Equal(t, `"12.34"`, string(out))

	_, err = ParsePrice("abc")
	assert.Error(t, err)
	assert.Equal(t, "-0.05", Price(-5).String())
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_DecodesEnvelopeAndArray(t *testing.T) {
	var paged Page[Category]
	require.NoError(t, json.Unmarshal([]byte(`{"count":10,"next":"n","results":[{"id":1,"name":"Tea"}]}`), &paged))
	assert.Equal(t, 10, paged.Count)
	assert.Equal(t, "n", paged.Next)
	require.Len(t, paged.Results, 1)

	var bare Page[Category]
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1},{"id":2}]`), &bare))
	assert.Equal(t, 2, bare.Count)
	assert.Len(t, bare.Results, 2)
}

func TestProductFilter_Query(t *testing.T) {
	assert.Empty(t, ProductFilter{}.Query())

	q := ProductFilter{Search: " kettle ", Category: "kitchen", MinPrice: 1000, Page: 2}.Query()
	assert.Equal(t, "kettle", q.Get("search"))
	assert.Equal(t, "kitchen", q.Get("category"))
	assert.Equal(t, "10.00", q.Get("min_price"))
	assert.Equal(t, "2", q.Get("page"))
	assert.False(t, q.Has("max_price"))
}

func TestOrderItemsFromCart_UsesLineQuantities(t *testing.T) {
	c := Cart{Items: []CartItem{{ProductID: 1, Quantity: 3, Price: 100}, {ProductID: 2, Quantity: 1}}}
	items := OrderItemsFromCart(c)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

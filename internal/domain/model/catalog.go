package model

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Category is a product grouping.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is the subset of the API's product record the client renders or edits.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	Price       Price   `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// CartItem builds a cart line for qty units of the product.
func (p Product) CartItem(qty int) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		Thumbnail: p.Thumbnail,
		Category:  p.Category,
	}
}

// ProductInput is the staff-only create payload.
type ProductInput struct {
	Name        string `json:"name"                  validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	Price       Price  `json:"price"                 validate:"gt=0"`
	Stock       int    `json:"stock"                 validate:"gte=0"`
	Category    int64  `json:"category"              validate:"required"`
}

// ProductFilter controls product listing.
// Notes:
// - Ordering is passed through verbatim (e.g. "price", "-created_at").
// - Zero values are omitted from the query string.
type ProductFilter struct {
	Search   string
	Category string
	Ordering string
	MinPrice Price
	MaxPrice Price
	Page     int
}

// Query encodes the filter as URL query parameters.
func (f ProductFilter) Query() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	if f.MinPrice > 0 {
		q.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice > 0 {
		q.Set("max_price", f.MaxPrice.String())
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// Page is a paginated list response. Endpoints that return a bare array decode into a
// Page with Count set to the number of results.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// UnmarshalJSON accepts both the paginated envelope and a bare JSON array.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}
	type envelope Page[T]
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}

// ProductPage bundles a product with its reviews.
type ProductPage struct {
	Product Product
	Reviews []Review
}

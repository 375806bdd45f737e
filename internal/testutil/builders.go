// Package testutil provides testing utilities and helpers for the storefront client.
package testutil

import (
	"strings"

	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
)

// UserBuilder provides a fluent interface for building API users for testing.
type UserBuilder struct {
	user auth.User
}

// NewUser creates a UserBuilder for an active, non-staff user.
func NewUser(email string) *UserBuilder {
	local, _, _ := strings.Cut(email, "@")
	return &UserBuilder{user: auth.User{
		Email:     email,
		Username:  local,
		FirstName: "Test",
		LastName:  "User",
		IsActive:  true,
	}}
}

// WithID sets the user id.
func (b *UserBuilder) WithID(id int64) *UserBuilder {
	b.user.ID = id
	return b
}

// WithUsername sets the username.
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

// Staff marks the user as staff.
func (b *UserBuilder) Staff() *UserBuilder {
	b.user.IsStaff = true
	return b
}

// Inactive marks the account as not yet activated.
func (b *UserBuilder) Inactive() *UserBuilder {
	b.user.IsActive = false
	return b
}

// Build returns the constructed user.
func (b *UserBuilder) Build() auth.User {
	return b.user
}

// ProductBuilder provides a fluent interface for building catalog products for testing.
type ProductBuilder struct {
	product model.Product
}

// NewProduct creates a ProductBuilder with a slug derived from name and sensible defaults.
func NewProduct(name string) *ProductBuilder {
	return &ProductBuilder{product: model.Product{
		Name:     name,
		Slug:     strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		Price:    1000,
		Stock:    10,
		Category: "General",
	}}
}

// WithPrice sets the price in cents.
func (b *ProductBuilder) WithPrice(cents int64) *ProductBuilder {
	b.product.Price = model.Price(cents)
	return b
}

// WithStock sets the available stock.
func (b *ProductBuilder) WithStock(stock int) *ProductBuilder {
	b.product.Stock = stock
	return b
}

// WithCategory sets the category name.
func (b *ProductBuilder) WithCategory(name string) *ProductBuilder {
	b.product.Category = name
	return b
}

// Build returns the constructed product.
func (b *ProductBuilder) Build() model.Product {
	return b.product
}

// Package mocks provides mock implementations for testing the storefront client.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), ports.KeyAccessToken).Return([]byte("tok"), nil)
package mocks

// Generate mock for Store interface from internal/ports package.
// This creates MockStore with methods for all Store interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=store_mock.go github.com/target/storefront-go/internal/ports Store

// Generate mock for SessionHooks interface from internal/ports package.
// This creates MockSessionHooks with methods for all SessionHooks interface methods:
// Token, RefreshToken, Logout
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_hooks_mock.go github.com/target/storefront-go/internal/ports SessionHooks

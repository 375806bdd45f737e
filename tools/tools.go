//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run through `go run` or installed via `go install` and are not
// tracked in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - Regenerates internal/mocks from the ports interfaces
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock/mockgen@v0.6.0 (matches go.mod)
//   Docs: https://github.com/uber-go/mock
//
// golangci-lint - Linting; the //nolint directives in the tree target it
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest
//   Docs: https://golangci-lint.run

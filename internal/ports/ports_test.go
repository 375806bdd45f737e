package ports_test

import (
	"testing"

	"github.com/target/storefront-go/internal/mocks"
	authmocks "github.com/target/storefront-go/internal/mocks/auth"
	"github.com/target/storefront-go/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.Store = (*mocks.MockStore)(nil)
	var _ ports.Store = (*authmocks.FailingStore)(nil)
	var _ ports.SessionHooks = (*authmocks.StaticSession)(nil)
}

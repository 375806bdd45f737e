package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/adapters/memstore"
	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/testutil"
)

func testAppConfig(apiURL string) config.AppConfig {
	var cfg config.AppConfig
	cfg.API.BaseURL = apiURL
	cfg.API.Timeout = 5 * time.Second
	cfg.Storage.Backend = config.StorageMemory
	cfg.Sanitize()
	return cfg
}

func TestBuildApp_WiresOneSession(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	api.AddUser(testutil.NewUser("shopper@example.com").Build(), "pw")
	mug := api.AddProduct(testutil.NewProduct("Coffee Mug").Build())

	app, err := BuildApp(ctx, testAppConfig(api.URL()), AppOptions{
		Storage: &Storage{Store: memstore.New(), Backend: config.StorageMemory},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.Session.Hydrate(ctx))
	assert.Equal(t, auth.PhaseAnonymous, app.Session.State().Phase)

	_, err = app.Cart.Add(ctx, mug, 2)
	require.NoError(t, err)

	_, err = app.Session.Login(ctx, "shopper@example.com", "pw")
	require.NoError(t, err)

	items, err := app.Cart.MergeGuest(ctx)
	require.NoError(t, err)
	require.Len(t, items.Items, 1)
	assert.Equal(t, 2, items.Items[0].Quantity)

	assert.Equal(t, "Bearer "+app.Session.AccessToken(), api.LastAuthorization(testutil.RouteCart))
	assert.Equal(t, "ws"+strings.TrimPrefix(api.URL(), "http")+"/ws/chat/room/5/", app.Chat.RoomURL(5))
	assert.Equal(t, "light", app.Preferences.Themes()[0])
}

func TestBuildApp_InvalidBaseURL(t *testing.T) {
	cfg := testAppConfig("ftp://shop.example.com")

	_, err := BuildApp(context.Background(), cfg, AppOptions{
		Storage: &Storage{Store: memstore.New(), Backend: config.StorageMemory},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api client")
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/adapters/memstore"
	apperrors "github.com/target/storefront-go/internal/errors"
	authmocks "github.com/target/storefront-go/internal/mocks/auth"
	"github.com/target/storefront-go/internal/ports"
)

func newPreferenceService(store ports.Store) *PreferenceService {
	return NewPreferenceService(PreferenceServiceOptions{
		Store: store,
		Config: config.PreferencesConfig{
			Themes:        []string{"light", "dark"},
			Locales:       []string{"en", "fr"},
			DefaultTheme:  "light",
			DefaultLocale: "en",
		},
	})
}

func TestPreferenceService_Defaults(t *testing.T) {
	prefs := newPreferenceService(memstore.New())
	ctx := context.Background()

	theme, err := prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", theme)

	locale, err := prefs.Locale(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", locale)

	assert.Equal(t, []string{"light", "dark"}, prefs.Themes())
	assert.Equal(t, []string{"en", "fr"}, prefs.Locales())
}

func TestPreferenceService_SetAndGet(t *testing.T) {
	store := memstore.New()
	prefs := newPreferenceService(store)
	ctx := context.Background()

	require.NoError(t, prefs.SetTheme(ctx, " Dark "))
	require.NoError(t, prefs.SetLocale(ctx, "fr"))

	theme, err := prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
	locale, err := prefs.Locale(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fr", locale)

	raw, err := store.Get(ctx, ports.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(raw))
}

func TestPreferenceService_RejectsUnknownValues(t *testing.T) {
	prefs := newPreferenceService(memstore.New())
	ctx := context.Background()

	err := prefs.SetTheme(ctx, "neon")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "theme", apperrors.GetField(err))

	err = prefs.SetLocale(ctx, "xx")
	assert.Equal(t, "locale", apperrors.GetField(err))
}

func TestPreferenceService_StaleStoredValueFallsBack(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, ports.KeyTheme, []byte("sepia")))

	theme, err := newPreferenceService(store).Theme(ctx)

	require.NoError(t, err)
	assert.Equal(t, "light", theme)
}

func TestPreferenceService_StorageErrors(t *testing.T) {
	failing := &authmocks.FailingStore{
		Store:  memstore.New(),
		GetErr: errors.New("unavailable"),
		SetErr: errors.New("unavailable"),
	}
	prefs := newPreferenceService(failing)
	ctx := context.Background()

	theme, err := prefs.Theme(ctx)
	require.Error(t, err)
	assert.Equal(t, "light", theme)

	err = prefs.SetTheme(ctx, "dark")
	assert.True(t, apperrors.IsInternal(err))
}

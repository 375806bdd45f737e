package securestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/internal/adapters/memstore"
	"github.com/target/storefront-go/internal/ports"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestStore_SealsAtRest(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New()
	s, err := New(inner, testKey(), Options{})
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, ports.KeyRefreshToken, []byte("refresh-secret")))

	raw, err := inner.Get(ctx, ports.KeyRefreshToken)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("v1:")))
	assert.NotContains(t, string(raw), "refresh-secret")

	got, err := s.Get(ctx, ports.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-secret", string(got))
}

func TestStore_KeyIsBound(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New()
	s, err := New(inner, testKey(), Options{})
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, ports.KeyAccessToken, []byte("tok")))
	raw, _ := inner.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, inner.Set(ctx, ports.KeyUser, raw))

	_, err = s.Get(ctx, ports.KeyUser)
	assert.Error(t, err)
}

func TestStore_LegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New()
	require.NoError(t, inner.Set(ctx, ports.KeyTheme, []byte("dark")))

	lenient, err := New(inner, testKey(), Options{})
	require.NoError(t, err)
	got, err := lenient.Get(ctx, ports.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(got))

	strict, err := New(inner, testKey(), Options{Strict: true})
	require.NoError(t, err)
	_, err = strict.Get(ctx, ports.KeyTheme)
	assert.ErrorIs(t, err, ErrUnsealed)
}

func TestStore_MissingKeyAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(memstore.New(), testKey(), Options{})
	require.NoError(t, err)

	v, err := s.Get(ctx, ports.KeyLocale)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, ports.KeyLocale, []byte("fr")))
	require.NoError(t, s.DeleteMany(ctx, []string{ports.KeyLocale}))
	v, err = s.Get(ctx, ports.KeyLocale)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New(memstore.New(), []byte("short"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")

	_, err = New(nil, testKey(), Options{})
	assert.Error(t, err)
}

func TestDecodeKey(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(testKey())
	key, err := DecodeKey(enc)
	require.NoError(t, err)
	assert.Equal(t, testKey(), key)

	_, err = DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	_, err = DecodeKey("!!!")
	assert.Error(t, err)
}

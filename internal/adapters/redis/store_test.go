package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/internal/ports"
	"github.com/target/storefront-go/internal/testutil"
)

// newTestStore returns a store whose keys live under a prefix owned by the test.
// Tests are skipped when Redis is not available.
func newTestStore(t *testing.T, ttl time.Duration) (*Store, testutil.RedisNamespace) {
	t.Helper()
	ns := testutil.SetupTestRedis(t)
	return NewStore(ns.Client, StoreOptions{Prefix: ns.Prefix, TTL: ttl}), ns
}

func TestNewStore_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	assert.Equal(t, DefaultPrefix, NewStore(client, StoreOptions{}).prefix)
	assert.Equal(t, "x:", NewStore(client, StoreOptions{Prefix: "x:"}).prefix)
	assert.Panics(t, func() { NewStore(nil, StoreOptions{}) })
}

func TestStore_SetGetDelete(t *testing.T) {
	store, ns := newTestStore(t, 0)
	ctx := context.Background()

	v, err := store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, store.Set(ctx, ports.KeyAccessToken, []byte("tok")))
	v, err = store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(v))

	raw, err := ns.Client.Get(ctx, ns.Key(ports.KeyAccessToken)).Result()
	require.NoError(t, err)
	assert.Equal(t, "tok", raw)

	ttl, err := ns.Client.TTL(ctx, ns.Key(ports.KeyAccessToken)).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "zero TTL keeps entries until deleted")

	require.NoError(t, store.Delete(ctx, ports.KeyAccessToken))
	v, err = store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_PrefixIsolation(t *testing.T) {
	_, ns := newTestStore(t, 0)
	ctx := context.Background()
	a := NewStore(ns.Client, StoreOptions{Prefix: ns.Key("a:")})
	b := NewStore(ns.Client, StoreOptions{Prefix: ns.Key("b:")})

	require.NoError(t, a.Set(ctx, ports.KeyTheme, []byte("dark")))
	v, err := b.Get(ctx, ports.KeyTheme)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_TTLExpiration(t *testing.T) {
	store, _ := newTestStore(t, 100*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, ports.KeyGuestCart, []byte(`{"items":[]}`)))
	time.Sleep(200 * time.Millisecond)

	v, err := store.Get(ctx, ports.KeyGuestCart)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_EmptyKey(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	assert.Error(t, store.Set(ctx, "", nil))
	assert.NoError(t, store.Delete(ctx, ""))
	assert.NoError(t, store.Health(ctx))
}

func TestStore_DeleteMany(t *testing.T) {
	store, ns := newTestStore(t, 0)
	ctx := context.Background()
	for _, k := range ports.SessionKeys {
		require.NoError(t, store.Set(ctx, k, []byte("x")))
	}
	require.NoError(t, store.Set(ctx, ports.KeyLocale, []byte("en")))

	require.NoError(t, ports.DeleteKeys(ctx, store, ports.SessionKeys))

	for _, k := range ports.SessionKeys {
		n, err := ns.Client.Exists(ctx, ns.Key(k)).Result()
		require.NoError(t, err)
		assert.Zero(t, n, k)
	}
	v, err := store.Get(ctx, ports.KeyLocale)
	require.NoError(t, err)
	assert.Equal(t, "en", string(v))
}

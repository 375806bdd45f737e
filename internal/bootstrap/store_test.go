package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/adapters/filestore"
	"github.com/target/storefront-go/internal/adapters/memstore"
	"github.com/target/storefront-go/internal/ports"
	"github.com/target/storefront-go/internal/testutil"
)

func storageConfig(backend config.StorageBackend) config.AppConfig {
	var cfg config.AppConfig
	cfg.Storage.Backend = backend
	cfg.Storage.KeyPrefix = "storefront-test:"
	return cfg
}

func randomKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestBuildStore_Memory(t *testing.T) {
	st, err := BuildStore(context.Background(), storageConfig(config.StorageMemory), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	assert.IsType(t, &memstore.Store{}, st.Store)
	assert.False(t, st.Sealed)
}

func TestBuildStore_FileIsSealedWithKey(t *testing.T) {
	ctx := context.Background()
	cfg := storageConfig(config.StorageFile)
	cfg.Storage.FilePath = filepath.Join(t.TempDir(), "state.json")
	cfg.Storage.EncryptionKey = randomKey(t)

	st, err := BuildStore(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.True(t, st.Sealed)

	require.NoError(t, st.Store.Set(ctx, ports.KeyAccessToken, []byte("access-secret")))

	got, err := st.Store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-secret", string(got))

	raw, err := os.ReadFile(cfg.Storage.FilePath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access-secret")

	plain, err := filestore.New(cfg.Storage.FilePath)
	require.NoError(t, err)
	sealed, err := plain.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, "access-secret", string(sealed))
}

func TestBuildStore_Errors(t *testing.T) {
	t.Run("bad encryption key", func(t *testing.T) {
		cfg := storageConfig(config.StorageMemory)
		cfg.Storage.EncryptionKey = "too-short"
		_, err := BuildStore(context.Background(), cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "encryption key")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := BuildStore(context.Background(), storageConfig("etcd"), nil)
		require.Error(t, err)
	})

	t.Run("file without path", func(t *testing.T) {
		_, err := BuildStore(context.Background(), storageConfig(config.StorageFile), nil)
		require.Error(t, err)
	})
}

func TestBuildStore_Redis(t *testing.T) {
	ns := testutil.SetupTestRedis(t)
	ctx := context.Background()
	cfg := storageConfig(config.StorageRedis)
	cfg.Redis.URI = ns.Client.Options().Addr
	cfg.Storage.KeyPrefix = ns.Prefix

	st, err := BuildStore(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Store.Set(ctx, ports.KeyTheme, []byte("dark")))
	got, err := st.Store.Get(ctx, ports.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(got))

	raw, err := ns.Client.Get(ctx, ns.Key(ports.KeyTheme)).Result()
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)
}

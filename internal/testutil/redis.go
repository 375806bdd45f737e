package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCandidates are tried in order when REDIS_ADDR is unset: the compose service name
// in CI, a plain local Redis, then the local compose test profile.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

// RedisAddr finds a reachable Redis for tests. REDIS_ADDR, when set, is the only
// address tried.
func RedisAddr(t testing.TB) (string, bool) {
	t.Helper()
	candidates := redisCandidates
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		if err := pingRedis(addr); err != nil {
			t.Logf("redis not available at %s: %v", addr, err)
			continue
		}
		return addr, true
	}
	return "", false
}

// RedisNamespace is a client plus a key prefix owned by one test.
type RedisNamespace struct {
	Client *redis.Client
	Prefix string
}

// Key returns the raw Redis key for a store key under this namespace.
func (n RedisNamespace) Key(key string) string { return n.Prefix + key }

// SetupTestRedis connects to the test Redis and reserves a unique key prefix for the
// calling test. Every key under the prefix is removed when the test ends, so tests can
// share one database without flushing it.
func SetupTestRedis(t testing.TB) RedisNamespace {
	t.Helper()
	addr, ok := RedisAddr(t)
	if !ok {
		unavailable(t, requireRedis(), "redis", errors.New("no reachable address"))
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ns := RedisNamespace{Client: client, Prefix: redisPrefix()}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if n, err := DeletePrefix(ctx, client, ns.Prefix); err != nil {
			t.Logf("clean redis prefix %s: %v", ns.Prefix, err)
		} else if n > 0 {
			t.Logf("removed %d redis keys under %s", n, ns.Prefix)
		}
		_ = client.Close()
	})
	return ns
}

// DeletePrefix removes every key starting with prefix and reports how many were deleted.
func DeletePrefix(ctx context.Context, client redis.UniversalClient, prefix string) (int, error) {
	var deleted int
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := client.Del(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func pingRedis(addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

func redisPrefix() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("storefront-test:%d:", time.Now().UnixNano())
	}
	return "storefront-test:" + hex.EncodeToString(b) + ":"
}

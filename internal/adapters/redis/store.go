package redis

// Package redis provides a Redis-backed ports.Store so several CLI hosts can share one session.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/storefront-go/internal/ports"
)

var (
	_ ports.Store        = (*Store)(nil)
	_ ports.BatchDeleter = (*Store)(nil)
)

// DefaultPrefix namespaces storefront keys.
const DefaultPrefix = "storefront:"

// Store keeps each entry under prefix+key. A zero TTL keeps entries until deleted.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// StoreOptions groups optional settings.
type StoreOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewStore creates a Redis-backed store.
func NewStore(client redis.UniversalClient, opts StoreOptions) *Store {
	if client == nil {
		panic("redis client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Key doesn't exist
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Health checks the Redis connection.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// DeleteMany removes keys in one pipelined round trip. Each key gets its own DEL so the
// batch also works against a cluster where the keys hash to different slots.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			if k != "" {
				p.Del(ctx, s.prefix+k)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

package ports

// Package ports defines interfaces (hexagonal ports) for persistence and session access.
// Implementations live in internal/adapters; orchestration in internal/service.

import "context"

// Persisted state keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyGuestCart    = "guest_cart"
	KeyTheme        = "theme"
	KeyLocale       = "locale"
)

// SessionKeys are the keys cleared on logout.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Store is a small key-value persistence port, the Go stand-in for browser local storage.
// Get returns (nil, nil) for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// BatchDeleter is implemented by stores that can remove several keys in one round trip.
// Callers fall back to per-key Delete when a store does not implement it.
type BatchDeleter interface {
	DeleteMany(ctx context.Context, keys []string) error
}

// DeleteKeys removes keys from s, using DeleteMany when available. Every key is attempted;
// the first error is returned.
func DeleteKeys(ctx context.Context, s Store, keys []string) error {
	if bd, ok := s.(BatchDeleter); ok {
		return bd.DeleteMany(ctx, keys)
	}
	var first error
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil && first == nil {
			first = err
		}
	}
	return first
}

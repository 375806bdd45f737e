package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/adapters/filestore"
	"github.com/target/storefront-go/internal/adapters/memstore"
	"github.com/target/storefront-go/internal/adapters/postgres"
	redisstore "github.com/target/storefront-go/internal/adapters/redis"
	"github.com/target/storefront-go/internal/adapters/securestore"
	"github.com/target/storefront-go/internal/ports"
)

// Storage is the persistence layer selected by configuration.
type Storage struct {
	Store   ports.Store
	Backend config.StorageBackend
	Sealed  bool

	closers []func() error
}

// Close releases backend connections.
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildStore opens the configured backend and, when an encryption key is set, seals
// every value written through it.
func BuildStore(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st := &Storage{Backend: cfg.Storage.Backend}

	inner, err := openBackend(ctx, cfg, logger, st)
	if err != nil {
		return nil, errors.Join(err, st.Close())
	}

	if cfg.Storage.EncryptionKey == "" {
		st.Store = inner
		return st, nil
	}
	key, err := securestore.DecodeKey(cfg.Storage.EncryptionKey)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("storage encryption key: %w", err), st.Close())
	}
	sealed, err := securestore.New(inner, key, securestore.Options{})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("storage encryption: %w", err), st.Close())
	}
	st.Store = sealed
	st.Sealed = true
	return st, nil
}

//nolint:ireturn // the backend is chosen at runtime.
func openBackend(ctx context.Context, cfg config.AppConfig, logger *slog.Logger, st *Storage) (ports.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return memstore.New(), nil

	case config.StorageRedis:
		client, err := OpenRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		return redisstore.NewStore(client, redisstore.StoreOptions{Prefix: cfg.Storage.KeyPrefix}), nil

	case config.StoragePostgres:
		db, err := OpenPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		if cfg.Postgres.RunMigrationsOnStart {
			if _, err := RunMigrations(ctx, db, logger); err != nil {
				return nil, err
			}
		}
		return postgres.NewStore(db, cfg.Storage.KeyPrefix), nil

	case config.StorageFile:
		fs, err := filestore.New(cfg.Storage.FilePath)
		if err != nil {
			return nil, err
		}
		logger.Debug("using file storage", "path", fs.Path())
		return fs, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

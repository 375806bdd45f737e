// Package postgres provides a Postgres-backed ports.Store using database/sql with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/ports"
)

var (
	_ ports.Store        = (*Store)(nil)
	_ ports.BatchDeleter = (*Store)(nil)
)

// Store keeps entries in the storefront_kv table, scoped by namespace so several profiles
// can share one database.
type Store struct {
	db        *sql.DB
	namespace string
}

// NewStore creates a store. Run migrate.Run before first use.
func NewStore(db *sql.DB, namespace string) *Store {
	if db == nil {
		panic("db is required")
	}
	return &Store{db: db, namespace: namespace}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM storefront_kv WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, apperrors.MapDBError(err))
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storefront_kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM storefront_kv WHERE namespace = $1 AND key = $2`, s.namespace, key,
	); err != nil {
		return fmt.Errorf("delete %s: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

// DeleteMany removes keys in a single transaction so a logout never leaves a partial session.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			if k == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM storefront_kv WHERE namespace = $1 AND key = $2`, s.namespace, k,
			); err != nil {
				return fmt.Errorf("delete %s: %w", k, apperrors.MapDBError(err))
			}
		}
		return nil
	})
}

// withTx runs fn within a database/sql transaction.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", apperrors.MapDBError(err))
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", apperrors.MapDBError(err))
	}
	return nil
}

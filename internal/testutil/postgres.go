package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	// Registers the pgx driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/target/storefront-go/internal/migrate"
)

// TestDBConfig locates the Postgres instance used by storage tests.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The port defaults to 55432, the local
// compose test profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "storefront"),
		Password: envOr("TEST_DB_PASSWORD", "storefront"),
		DBName:   envOr("TEST_DB_NAME", "storefront"),
		SSLMode:  envOr("TEST_DB_SSLMODE", "disable"),
	}
}

// DSN renders the connection string. A non-empty schema is put first on search_path.
func (c TestDBConfig) DSN(schema string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// SetupKVDB returns a connection scoped to a fresh schema holding the migrated
// storefront_kv table. The schema is dropped when the test ends. Without a reachable
// database the test is skipped, or failed when TEST_REQUIRE_DB is set.
func SetupKVDB(t testing.TB) *sql.DB {
	t.Helper()
	cfg := DefaultTestDBConfig()

	admin, err := openPinged(cfg.DSN(""), 2*time.Second)
	if err != nil {
		unavailable(t, requireDB(), "test database", err)
	}

	schema := schemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db, err := openPinged(cfg.DSN(schema), 5*time.Second)
	t.Cleanup(func() {
		if db != nil {
			_ = db.Close()
		}
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		if _, derr := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); derr != nil {
			t.Logf("drop schema %s: %v", schema, derr)
		}
		_ = admin.Close()
	})
	if err != nil {
		t.Fatalf("open schema %s: %v", schema, err)
	}
	db.SetMaxOpenConns(4)

	if _, err := migrate.Run(ctx, db); err != nil {
		t.Fatalf("migrate schema %s: %v", schema, err)
	}
	return db
}

// CountKV returns the number of rows stored under namespace.
func CountKV(t testing.TB, db *sql.DB, namespace string) int {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT count(*) FROM storefront_kv WHERE namespace = $1", namespace).Scan(&n)
	if err != nil {
		t.Fatalf("count storefront_kv rows: %v", err)
	}
	return n
}

func openPinged(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// schemaName is a lowercase identifier safe to splice into DDL.
func schemaName() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("kv_%d", time.Now().UnixNano())
	}
	return "kv_" + hex.EncodeToString(b)
}

func unavailable(t testing.TB, required bool, what string, err error) {
	t.Helper()
	if required {
		t.Fatalf("%s not available: %v", what, err)
	}
	t.Skipf("%s not available: %v", what, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func requireDB() bool    { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Register the pgx driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/migrate"
)

const connectTimeout = 5 * time.Second

// PostgresDSN renders cfg as a pgx connection URL.
func PostgresDSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgres connects the postgres store's database and verifies it answers.
func OpenPostgres(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A CLI process issues a handful of queries per command.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	if logger != nil {
		logger.DebugContext(ctx, "database connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)
	}
	return db, nil
}

// RunMigrations creates the storage table and returns the versions applied by this call.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	applied, err := migrate.Run(ctx, db)
	if err != nil {
		return applied, fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed", "applied", len(applied))
	}
	return applied, nil
}

// OpenRedis connects the redis store's client in direct, sentinel or cluster mode.
//
//nolint:ireturn // the topology is chosen from config at runtime.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, desc, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis %s: %w", desc, err), client.Close())
	}

	if logger != nil {
		logger.DebugContext(ctx, "redis connected", "target", desc)
	}
	return client, nil
}

// redisEndpoint is REDIS_URI resolved against the separate password and DB settings.
// A password or non-zero DB embedded in a redis:// URL wins over the separate settings.
type redisEndpoint struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      *tls.Config
}

func parseRedisEndpoint(cfg config.RedisConfig) (redisEndpoint, error) {
	ep := redisEndpoint{Password: cfg.Password, DB: cfg.DB}
	raw := strings.TrimSpace(cfg.URI)
	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") {
		ep.Addr = raw
		return ep, nil
	}

	opt, err := redis.ParseURL(raw)
	if err != nil {
		return redisEndpoint{}, fmt.Errorf("parse redis url: %w", err)
	}
	ep.Addr = opt.Addr
	ep.Username = opt.Username
	ep.TLS = opt.TLSConfig
	if opt.Password != "" {
		ep.Password = opt.Password
	}
	if opt.DB != 0 {
		ep.DB = opt.DB
	}
	return ep, nil
}

// newRedisClient builds an unconnected client and a credential-free description of it.
//
//nolint:ireturn // see OpenRedis.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	ep, err := parseRedisEndpoint(cfg)
	if err != nil {
		return nil, "", err
	}

	switch {
	case cfg.UseCluster:
		addrs := normalizeAddrs(cfg.ClusterNodes)
		if len(addrs) == 0 && ep.Addr != "" {
			addrs = []string{ep.Addr}
		}
		if len(addrs) == 0 {
			return nil, "", errors.New("redis cluster mode needs REDIS_CLUSTER_NODES or REDIS_URI")
		}
		// Cluster mode has no DB index.
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:     addrs,
			Username:  ep.Username,
			Password:  ep.Password,
			TLSConfig: ep.TLS,
		}), "cluster:" + strings.Join(addrs, ","), nil

	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel mode needs REDIS_SENTINEL_NODES")
		}
		if strings.TrimSpace(cfg.SentinelMasterName) == "" {
			return nil, "", errors.New("redis sentinel mode needs REDIS_SENTINEL_MASTER_NAME")
		}
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    nodes,
			SentinelPassword: cfg.SentinelPassword,
			Username:         ep.Username,
			Password:         ep.Password,
			DB:               ep.DB,
			TLSConfig:        ep.TLS,
		}), "sentinel:" + cfg.SentinelMasterName, nil

	default:
		if ep.Addr == "" {
			return nil, "", errors.New("redis needs REDIS_URI")
		}
		return redis.NewClient(&redis.Options{
			Addr:      ep.Addr,
			Username:  ep.Username,
			Password:  ep.Password,
			DB:        ep.DB,
			TLSConfig: ep.TLS,
		}), fmt.Sprintf("%s/%d", ep.Addr, ep.DB), nil
	}
}

func normalizeAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

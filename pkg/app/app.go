// Package app assembles repositories, services and the router from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/cache"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/config"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/services"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

type App struct {
	Router  *handler.Router
	Repo    ports.LinkRepository
	Metrics *metrics.Prometheus
}

// New opens the configured store and wires the HTTP surface on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	repo, err := OpenRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		client, err := newRedisClient(ctx, cfg.RedisURL, cfg.DBTimeout, logger)
		if err != nil {
			repo.Close()
			return nil, err
		}
		repo = cache.NewLinkCache(repo, client, cfg.CacheTTL, cfg.DBTimeout, logger)
	}

	m := metrics.NewPrometheus()
	router := handler.NewRouter(handler.Dependencies{
		Links:          services.NewLinkService(repo, logger),
		Auth:           services.NewAuthService(repo),
		Metrics:        m,
		MetricsHandler: m.Handler(),
		Logger:         logger,
	})

	return &App{Router: router, Repo: repo, Metrics: m}, nil
}

// Close waits for in-flight statistic writes, then releases the store.
func (a *App) Close() error {
	a.Router.Wait()
	return a.Repo.Close()
}

// OpenRepository selects the adapter from the database URL. Postgres schemas
// are migrated before the pool is opened.
func OpenRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.LinkRepository, error) {
	switch cfg.Driver() {
	case config.DriverPostgres:
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		repo, err := postgres.NewPostgresRepository(ctx, cfg.DatabaseURL, cfg.DBTimeout, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("using postgres repository", "max_conns", cfg.DBMaxConns, "timeout", cfg.DBTimeout)
		return repo, nil
	default:
		repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL, cfg.DBTimeout, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("using sqlite repository", "max_conns", cfg.DBMaxConns, "timeout", cfg.DBTimeout)
		return repo, nil
	}
}

// newRedisClient caps the client's socket timeouts at the store deadline.
func newRedisClient(ctx context.Context, redisURL string, timeout time.Duration, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.PoolTimeout = timeout
	opts.ContextTimeoutEnabled = true
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Lookups fall through to the repository while redis is down.
		logger.Warn("redis unreachable, link cache degraded", "error", err)
	} else {
		logger.Info("link cache enabled", "addr", opts.Addr)
	}
	return client, nil
}

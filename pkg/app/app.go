// Package app assembles the bookshelf service from configuration: storage,
// cache, rate limiting, health checks and the HTTP servers.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimburion/bookshelf/pkg/book"
	"github.com/nimburion/bookshelf/pkg/cache"
	"github.com/nimburion/bookshelf/pkg/config"
	"github.com/nimburion/bookshelf/pkg/health"
	"github.com/nimburion/bookshelf/pkg/middleware/ratelimit"
	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/observability/metrics"
	"github.com/nimburion/bookshelf/pkg/repository/document"
	"github.com/nimburion/bookshelf/pkg/server"
	"github.com/nimburion/bookshelf/pkg/store/mongodb"
	redisstore "github.com/nimburion/bookshelf/pkg/store/redis"
)

// Components holds the wired service graph. Close, or the ShutdownHooks,
// release every connection Build opened.
type Components struct {
	Service         *book.Service
	Handler         *book.Handler
	HealthRegistry  *health.Registry
	MetricsRegistry *metrics.Registry
	RateLimiter     ratelimit.RateLimiter

	StartupHooks  []server.LifecycleHook
	ShutdownHooks []server.LifecycleHook
}

// Build connects the configured backends and wires the book service on top.
// On error, anything already opened is closed before returning.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (_ *Components, err error) {
	c := &Components{
		HealthRegistry:  health.NewRegistry(),
		MetricsRegistry: metrics.NewRegistry(),
	}
	defer func() {
		if err != nil {
			if closeErr := c.Close(context.Background()); closeErr != nil {
				log.Error("failed to release partially built components", "error", closeErr)
			}
		}
	}()

	exec, err := c.buildExecutor(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	docRepo, err := book.NewDocumentRepository(exec, cfg.Database.Collection)
	if err != nil {
		return nil, err
	}

	var repo book.Repository = docRepo
	store, err := c.buildCache(cfg.Cache, log)
	if err != nil {
		return nil, err
	}
	if store != nil {
		repo = book.NewCachedRepository(repo, store, cfg.Cache.TTL, log)
	}

	if cfg.RateLimit.Enabled {
		if c.RateLimiter, err = c.buildRateLimiter(cfg.RateLimit, log); err != nil {
			return nil, err
		}
	}

	c.Service = book.NewService(repo, log)
	c.Handler = book.NewHandler(c.Service, log)

	log.Info("service components built",
		"database_type", cfg.Database.Type,
		"cache_type", cfg.Cache.Type,
		"rate_limit", rateLimitMode(cfg.RateLimit),
	)
	return c, nil
}

func (c *Components) buildExecutor(cfg config.DatabaseConfig, log logger.Logger) (document.Executor, error) {
	switch cfg.Type {
	case config.DatabaseTypeMemory:
		exec := document.NewMemoryExecutor()
		c.HealthRegistry.Register(health.NewPingChecker("repository"))
		c.addCloser("close-repository", exec.Close)
		return exec, nil

	case config.DatabaseTypeMongoDB:
		adapter, err := mongodb.NewAdapter(mongodb.Config{
			URL:              cfg.URL,
			Database:         cfg.DatabaseName,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.QueryTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		exec, err := document.NewMongoDBExecutor(adapter)
		if err != nil {
			_ = adapter.Close()
			return nil, err
		}
		c.HealthRegistry.Register(health.NewDatabaseChecker("mongodb", adapter))
		c.addCloser("close-repository", exec.Close)

		collection := cfg.Collection
		if collection == "" {
			collection = book.DefaultCollection
		}
		c.StartupHooks = append(c.StartupHooks, server.LifecycleHook{
			Name: "ensure-indexes",
			Fn: func(ctx context.Context) error {
				return adapter.EnsureIndexes(ctx,
					mongodb.Index{Collection: collection, Field: "author"},
					mongodb.Index{Collection: collection, Field: "year"},
				)
			},
		})
		return exec, nil
	}
	return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
}

// buildCache returns a nil store when caching is disabled.
func (c *Components) buildCache(cfg config.CacheConfig, log logger.Logger) (cache.Store, error) {
	switch cfg.Type {
	case "", config.CacheTypeNone:
		return nil, nil

	case config.CacheTypeInMemory:
		store := cache.NewInMemoryStore()
		c.addCloser("close-cache", store.Close)
		return store, nil

	case config.CacheTypeRedis:
		adapter, err := redisstore.NewAdapter(redisstore.Config{
			URL:              cfg.URL,
			MaxConns:         cfg.MaxConns,
			OperationTimeout: cfg.OperationTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect cache redis: %w", err)
		}
		c.addCloser("close-cache", adapter.Close)
		c.HealthRegistry.Register(health.NewCacheChecker("cache", adapter))

		store, err := cache.NewRedisStore(adapter.Client(), cfg.Prefix, cfg.OperationTimeout)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported cache type %q", cfg.Type)
}

func (c *Components) buildRateLimiter(cfg config.RateLimitConfig, log logger.Logger) (ratelimit.RateLimiter, error) {
	switch cfg.Type {
	case "", config.RateLimitTypeLocal:
		return ratelimit.NewTokenBucketLimiter(cfg.RequestsPerSecond, cfg.Burst), nil

	case config.RateLimitTypeRedis:
		adapter, err := redisstore.NewAdapter(redisstore.Config{
			URL:              cfg.Redis.URL,
			MaxConns:         cfg.Redis.MaxConns,
			OperationTimeout: cfg.Redis.OperationTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect rate limit redis: %w", err)
		}
		c.addCloser("close-rate-limit-store", adapter.Close)
		c.HealthRegistry.Register(health.NewCacheChecker("rate_limit", adapter))

		limiter, err := ratelimit.NewRedisRateLimiter(adapter.Client(), ratelimit.RedisConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
			Window:            cfg.Window,
			Prefix:            cfg.Redis.Prefix,
			OperationTimeout:  cfg.Redis.OperationTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return limiter, nil
	}
	return nil, fmt.Errorf("unsupported rate limit type %q", cfg.Type)
}

// addCloser registers a shutdown hook. Hooks run in reverse registration
// order so the repository is closed after the layers wrapping it.
func (c *Components) addCloser(name string, closeFn func() error) {
	hook := server.LifecycleHook{
		Name: name,
		Fn:   func(context.Context) error { return closeFn() },
	}
	c.ShutdownHooks = append([]server.LifecycleHook{hook}, c.ShutdownHooks...)
}

// Close runs every shutdown hook and joins their errors.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	for _, hook := range c.ShutdownHooks {
		if err := hook.Fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
		}
	}
	c.ShutdownHooks = nil
	return errors.Join(errs...)
}

// Run builds the service and serves it until ctx is cancelled or the process
// receives SIGINT/SIGTERM.
func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	components, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := &server.RunHTTPServersOptions{
		Config:          cfg,
		Logger:          log,
		HealthRegistry:  components.HealthRegistry,
		MetricsRegistry: components.MetricsRegistry,
		RateLimiter:     components.RateLimiter,
		StartupHooks:    components.StartupHooks,
		ShutdownHooks:   components.ShutdownHooks,
	}
	servers, err := server.BuildHTTPServers(opts)
	if err != nil {
		_ = components.Close(context.Background())
		return fmt.Errorf("build http servers: %w", err)
	}
	components.Handler.RegisterRoutes(servers.Public.Router())

	return server.RunHTTPServersWithSignals(ctx, servers, opts)
}

// CheckDependencies connects to every configured backend once and reports
// the checks that fail.
func CheckDependencies(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	components, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := components.Close(context.Background()); closeErr != nil {
			log.Error("failed to close dependencies", "error", closeErr)
		}
	}()

	result := components.HealthRegistry.Check(ctx)
	if result.IsHealthy() {
		return nil
	}
	var failing []string
	for _, check := range result.Checks {
		if check.Status != health.StatusHealthy {
			failing = append(failing, fmt.Sprintf("%s: %s", check.Name, check.Error))
		}
	}
	return fmt.Errorf("unhealthy dependencies: %s", strings.Join(failing, "; "))
}

func rateLimitMode(cfg config.RateLimitConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return cfg.Type
}

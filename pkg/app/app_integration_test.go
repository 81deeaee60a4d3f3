package app

import (
	"context"
	"testing"

	"github.com/nimburion/bookshelf/pkg/book"
	"github.com/nimburion/bookshelf/pkg/config"
	"github.com/nimburion/bookshelf/pkg/testutil"
)

func TestIntegration_MongoWithRedisCacheAndLimiter(t *testing.T) {
	mongoURL := testutil.StartMongo(t)
	redisURL := testutil.StartRedis(t)

	cfg := config.DefaultConfig()
	cfg.Database.URL = mongoURL
	cfg.Database.DatabaseName = "bookshelf_app_test"
	cfg.Cache.Type = config.CacheTypeRedis
	cfg.Cache.URL = redisURL
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Type = config.RateLimitTypeRedis
	cfg.RateLimit.Redis.URL = redisURL

	ctx := context.Background()
	components, err := Build(ctx, cfg, &testutil.MockLogger{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() {
		if err := components.Close(ctx); err != nil {
			t.Errorf("close: %v", err)
		}
	})

	for _, hook := range components.StartupHooks {
		if err := hook.Fn(ctx); err != nil {
			t.Fatalf("startup hook %s: %v", hook.Name, err)
		}
	}

	title := "Parable of the Sower"
	id, err := components.Service.Create(ctx, book.Input{Title: &title})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		got, err := components.Service.Get(ctx, id)
		if err != nil {
			t.Fatalf("get #%d: %v", i, err)
		}
		if got.Title == nil || *got.Title != title {
			t.Fatalf("get #%d: unexpected book %+v", i, got)
		}
	}

	result := components.HealthRegistry.Check(ctx)
	if !result.IsHealthy() {
		t.Fatalf("expected healthy dependencies, got %+v", result)
	}
	if names := components.HealthRegistry.List(); len(names) != 3 {
		t.Errorf("expected mongodb, cache and rate_limit checks, got %v", names)
	}
	if !components.RateLimiter.Allow(ctx, "203.0.113.9") {
		t.Error("expected first request to be allowed")
	}

	if err := CheckDependencies(ctx, cfg, &testutil.MockLogger{}); err != nil {
		t.Fatalf("check dependencies: %v", err)
	}
}

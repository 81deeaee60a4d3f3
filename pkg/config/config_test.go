package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/pflag"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.HTTP.Port != 4000 {
		t.Errorf("expected HTTP port 4000, got %d", cfg.HTTP.Port)
	}
	if cfg.Management.Port != 9090 {
		t.Errorf("expected management port 9090, got %d", cfg.Management.Port)
	}
	if cfg.Database.URL != "mongodb://127.0.0.1:27017" {
		t.Errorf("unexpected database url %s", cfg.Database.URL)
	}
	if cfg.Database.DatabaseName != "graphql-book" || cfg.Database.Collection != "books" {
		t.Errorf("unexpected database %s/%s", cfg.Database.DatabaseName, cfg.Database.Collection)
	}
	if cfg.Cache.Type != CacheTypeNone {
		t.Errorf("expected caching disabled, got %s", cfg.Cache.Type)
	}
	if cfg.HTTP.RequestTimeout != 15*time.Second || cfg.HTTP.MaxRequestBodyBytes != 1<<20 {
		t.Errorf("unexpected request limits %s / %d", cfg.HTTP.RequestTimeout, cfg.HTTP.MaxRequestBodyBytes)
	}
	if !cfg.HTTP.Compression.Enabled || cfg.HTTP.Compression.MinSize != 1024 {
		t.Errorf("unexpected compression defaults %+v", cfg.HTTP.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewViperLoader("", "BOOKSHELF_TEST_DEFAULTS").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 4000 || cfg.Database.Type != DatabaseTypeMongoDB {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.HTTP.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  port: 8081
database:
  type: memory
cache:
  type: inmemory
  ttl: 2m
observability:
  log_level: debug
  request_logging:
    excluded_path_prefixes: ["/health", " ", "/internal"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewViperLoader(path, "BOOKSHELF_TEST_FILE").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.Type != DatabaseTypeMemory {
		t.Errorf("database.type = %s", cfg.Database.Type)
	}
	if cfg.Cache.Type != CacheTypeInMemory || cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("log_level = %s", cfg.Observability.LogLevel)
	}
	if got := strings.Join(cfg.Observability.RequestLogging.ExcludedPathPrefixes, ","); got != "/health,/internal" {
		t.Errorf("excluded prefixes = %q", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := NewViperLoader(filepath.Join(t.TempDir(), "missing.yaml"), "").Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOOKSHELF_HTTP_PORT", "5000")
	t.Setenv("BOOKSHELF_DB_URL", "mongodb://db:27017")
	t.Setenv("BOOKSHELF_CACHE_TYPE", "Redis")
	t.Setenv("BOOKSHELF_CACHE_URL", "redis://cache:6379/0")
	t.Setenv("BOOKSHELF_REQUEST_LOGGING_EXCLUDED_PATH_PREFIXES", "/health,/metrics")
	t.Setenv("BOOKSHELF_HTTP_REQUEST_TIMEOUT", "3s")
	t.Setenv("BOOKSHELF_HTTP_MAX_REQUEST_BODY_BYTES", "2048")
	t.Setenv("BOOKSHELF_HTTP_COMPRESSION_ENABLED", "false")

	cfg, err := NewViperLoader("", "").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "mongodb://db:27017" {
		t.Errorf("database.url = %s", cfg.Database.URL)
	}
	if cfg.Cache.Type != CacheTypeRedis || cfg.Cache.URL != "redis://cache:6379/0" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if got := strings.Join(cfg.Observability.RequestLogging.ExcludedPathPrefixes, ","); got != "/health,/metrics" {
		t.Errorf("excluded prefixes = %q", got)
	}
	if cfg.HTTP.RequestTimeout != 3*time.Second || cfg.HTTP.MaxRequestBodyBytes != 2048 {
		t.Errorf("request limits = %s / %d", cfg.HTTP.RequestTimeout, cfg.HTTP.MaxRequestBodyBytes)
	}
	if cfg.HTTP.Compression.Enabled {
		t.Error("expected compression to be disabled by env")
	}
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("Port", "4100")
	t.Setenv("MONGODB_URI", "mongodb://legacy:27017")

	cfg, err := NewViperLoader("", "BOOKSHELF_TEST_LEGACY").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 4100 {
		t.Errorf("http.port = %d, want legacy Port", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "mongodb://legacy:27017" {
		t.Errorf("database.url = %s, want MONGODB_URI", cfg.Database.URL)
	}

	t.Setenv("BOOKSHELF_TEST_LEGACY_HTTP_PORT", "4200")
	cfg, err = NewViperLoader("", "BOOKSHELF_TEST_LEGACY").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 4200 {
		t.Errorf("http.port = %d, prefixed variable should win", cfg.HTTP.Port)
	}
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("BOOKSHELF_TEST_FLAGS_HTTP_PORT", "5000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("log-level", "", "")
	if err := flags.Parse([]string{"--port", "6000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := NewViperLoader("", "BOOKSHELF_TEST_FLAGS").WithFlags(flags).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 6000 {
		t.Errorf("http.port = %d, flag should win", cfg.HTTP.Port)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("log_level = %q, unset flag must not override default", cfg.Observability.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "valid default",
			mutate: func(*Config) {},
		},
		{
			name: "memory database needs no url",
			mutate: func(c *Config) {
				c.Database.Type = DatabaseTypeMemory
				c.Database.URL = ""
			},
		},
		{
			name:    "bad ports",
			mutate:  func(c *Config) { c.HTTP.Port = 0; c.Management.Port = 70000 },
			wantErr: []string{"http.port", "management.port"},
		},
		{
			name:    "port clash",
			mutate:  func(c *Config) { c.Management.Port = c.HTTP.Port },
			wantErr: []string{"must differ"},
		},
		{
			name:    "unknown database",
			mutate:  func(c *Config) { c.Database.Type = "postgres" },
			wantErr: []string{"invalid database.type"},
		},
		{
			name:    "mongodb scheme",
			mutate:  func(c *Config) { c.Database.URL = "http://localhost" },
			wantErr: []string{"mongodb:// or mongodb+srv://"},
		},
		{
			name:    "redis cache without url",
			mutate:  func(c *Config) { c.Cache.Type = CacheTypeRedis },
			wantErr: []string{"cache.url"},
		},
		{
			name: "rate limit redis",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.Type = RateLimitTypeRedis
				c.RateLimit.RequestsPerSecond = 0
			},
			wantErr: []string{"requests_per_second", "rate_limit.redis.url"},
		},
		{
			name: "negative request limits",
			mutate: func(c *Config) {
				c.HTTP.RequestTimeout = -time.Second
				c.HTTP.MaxRequestBodyBytes = -1
				c.HTTP.Compression.MinSize = -1
			},
			wantErr: []string{"http.request_timeout", "http.max_request_body_bytes", "http.compression.min_size"},
		},
		{
			name: "zero request limits disable them",
			mutate: func(c *Config) {
				c.HTTP.RequestTimeout = 0
				c.HTTP.MaxRequestBodyBytes = 0
				c.HTTP.Compression.MinSize = 0
			},
		},
		{
			name: "observability",
			mutate: func(c *Config) {
				c.Observability.LogLevel = "loud"
				c.Observability.TracingSampleRate = 2
			},
			wantErr: []string{"log_level", "tracing_sample_rate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.URL = "mongodb://admin:s3cret@db:27017"
	cfg.Cache.URL = "redis://:hunter2@cache:6379/0"

	redacted := cfg.Redacted()
	if strings.Contains(redacted.Database.URL, "s3cret") || strings.Contains(redacted.Cache.URL, "hunter2") {
		t.Errorf("credentials leaked: %s %s", redacted.Database.URL, redacted.Cache.URL)
	}
	if cfg.Database.URL != "mongodb://admin:s3cret@db:27017" {
		t.Error("Redacted() modified the receiver")
	}
}

func TestPortValidationProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("http.port is accepted exactly within 1..65535", prop.ForAll(
		func(port int) bool {
			cfg := DefaultConfig()
			cfg.Management.Enabled = false
			cfg.HTTP.Port = port
			valid := cfg.Validate() == nil
			return valid == (port >= 1 && port <= 65535)
		},
		gen.IntRange(-100, 70000),
	))

	properties.TestingRun(t)
}

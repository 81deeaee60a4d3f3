// Package config loads bookshelf configuration from defaults, an optional
// YAML file, environment variables and command-line flags.
package config

import "time"

// Database type constants
const (
	// DatabaseTypeMongoDB stores books in MongoDB.
	DatabaseTypeMongoDB = "mongodb"
	// DatabaseTypeMemory keeps books in process memory. Data is lost on exit.
	DatabaseTypeMemory = "memory"
)

// Cache type constants
const (
	CacheTypeNone     = "none"
	CacheTypeInMemory = "inmemory"
	CacheTypeRedis    = "redis"
)

// Rate limit backend constants
const (
	RateLimitTypeLocal = "local"
	RateLimitTypeRedis = "redis"
)

// Config is the root configuration structure.
type Config struct {
	Service       ServiceConfig       `mapstructure:"service" yaml:"service"`
	HTTP          HTTPConfig          `mapstructure:"http" yaml:"http"`
	Management    ManagementConfig    `mapstructure:"management" yaml:"management"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Cache         CacheConfig         `mapstructure:"cache" yaml:"cache"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit" yaml:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// RequestTimeout bounds each request's context. Zero disables it.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// MaxRequestBodyBytes rejects larger bodies with 413. Zero disables it.
	MaxRequestBodyBytes int64             `mapstructure:"max_request_body_bytes" yaml:"max_request_body_bytes"`
	Compression         CompressionConfig `mapstructure:"compression" yaml:"compression"`
}

// CompressionConfig configures gzip/brotli response compression.
type CompressionConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// MinSize is the smallest body, in bytes, that gets compressed.
	MinSize int `mapstructure:"min_size" yaml:"min_size"`
}

// ManagementConfig configures the management server
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// DatabaseConfig configures the book store.
type DatabaseConfig struct {
	Type           string        `mapstructure:"type" yaml:"type"` // mongodb, memory
	URL            string        `mapstructure:"url" yaml:"url"`
	DatabaseName   string        `mapstructure:"database_name" yaml:"database_name"`
	Collection     string        `mapstructure:"collection" yaml:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
}

// CacheConfig configures the book lookup cache.
type CacheConfig struct {
	Type             string        `mapstructure:"type" yaml:"type"` // none, inmemory, redis
	URL              string        `mapstructure:"url" yaml:"url"`
	MaxConns         int           `mapstructure:"max_conns" yaml:"max_conns"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
	TTL              time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Prefix           string        `mapstructure:"prefix" yaml:"prefix"`
}

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	Enabled           bool                 `mapstructure:"enabled" yaml:"enabled"`
	Type              string               `mapstructure:"type" yaml:"type"` // local, redis
	RequestsPerSecond int                  `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int                  `mapstructure:"burst" yaml:"burst"`
	Window            time.Duration        `mapstructure:"window" yaml:"window"`
	Redis             RateLimitRedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RateLimitRedisConfig configures the Redis-backed rate limiter backend.
type RateLimitRedisConfig struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	MaxConns         int           `mapstructure:"max_conns" yaml:"max_conns"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
	Prefix           string        `mapstructure:"prefix" yaml:"prefix"`
}

// ObservabilityConfig configures logging, metrics, and tracing
type ObservabilityConfig struct {
	LogLevel          string               `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string               `mapstructure:"log_format" yaml:"log_format"` // json, text
	ServiceName       string               `mapstructure:"service_name" yaml:"service_name"`
	TracingEnabled    bool                 `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	TracingSampleRate float64              `mapstructure:"tracing_sample_rate" yaml:"tracing_sample_rate"`
	TracingEndpoint   string               `mapstructure:"tracing_endpoint" yaml:"tracing_endpoint"`
	RequestLogging    RequestLoggingConfig `mapstructure:"request_logging" yaml:"request_logging"`
}

// RequestLoggingConfig configures HTTP request logging middleware behavior.
type RequestLoggingConfig struct {
	Enabled              bool     `mapstructure:"enabled" yaml:"enabled"`
	LogStart             bool     `mapstructure:"log_start" yaml:"log_start"`
	ExcludedPathPrefixes []string `mapstructure:"excluded_path_prefixes" yaml:"excluded_path_prefixes"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
// The public port and database name match the service's historical defaults.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "bookshelf",
			Environment: "production",
		},
		HTTP: HTTPConfig{
			Port:                4000,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        30 * time.Second,
			IdleTimeout:         120 * time.Second,
			ShutdownTimeout:     30 * time.Second,
			RequestTimeout:      15 * time.Second,
			MaxRequestBodyBytes: 1 << 20,
			Compression: CompressionConfig{
				Enabled: true,
				MinSize: 1024,
			},
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Type:           DatabaseTypeMongoDB,
			URL:            "mongodb://127.0.0.1:27017",
			DatabaseName:   "graphql-book",
			Collection:     "books",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   10 * time.Second,
		},
		Cache: CacheConfig{
			Type:             CacheTypeNone,
			MaxConns:         10,
			OperationTimeout: 500 * time.Millisecond,
			TTL:              time.Minute,
			Prefix:           "bookshelf",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			Type:              RateLimitTypeLocal,
			RequestsPerSecond: 100,
			Burst:             200,
			Window:            time.Second,
			Redis: RateLimitRedisConfig{
				MaxConns:         10,
				OperationTimeout: 500 * time.Millisecond,
				Prefix:           "ratelimit",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingEnabled:    false,
			TracingSampleRate: 0.1,
			TracingEndpoint:   "localhost:4317",
			RequestLogging: RequestLoggingConfig{
				Enabled:              true,
				ExcludedPathPrefixes: []string{"/health", "/ready", "/metrics"},
			},
		},
	}
}

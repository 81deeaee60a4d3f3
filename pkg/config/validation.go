package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
)

func (c *Config) normalize() {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	c.Cache.Type = strings.ToLower(strings.TrimSpace(c.Cache.Type))
	if c.Cache.Type == "" {
		c.Cache.Type = CacheTypeNone
	}
	c.RateLimit.Type = strings.ToLower(strings.TrimSpace(c.RateLimit.Type))
	c.Observability.RequestLogging.ExcludedPathPrefixes = normalizeStringSlice(c.Observability.RequestLogging.ExcludedPathPrefixes)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.HTTP.RequestTimeout < 0 {
		errs = append(errs, errors.New("http.request_timeout must not be negative"))
	}
	if c.HTTP.MaxRequestBodyBytes < 0 {
		errs = append(errs, errors.New("http.max_request_body_bytes must not be negative"))
	}
	if c.HTTP.Compression.MinSize < 0 {
		errs = append(errs, errors.New("http.compression.min_size must not be negative"))
	}
	if c.Management.Enabled {
		if c.Management.Port < 1 || c.Management.Port > 65535 {
			errs = append(errs, fmt.Errorf("management.port must be between 1 and 65535, got %d", c.Management.Port))
		} else if c.Management.Port == c.HTTP.Port {
			errs = append(errs, errors.New("management.port must differ from http.port"))
		}
	}

	switch c.Database.Type {
	case DatabaseTypeMongoDB:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for MongoDB"))
		} else if !strings.HasPrefix(c.Database.URL, "mongodb://") && !strings.HasPrefix(c.Database.URL, "mongodb+srv://") {
			errs = append(errs, errors.New("database.url must use the mongodb:// or mongodb+srv:// scheme"))
		}
		if c.Database.DatabaseName == "" {
			errs = append(errs, errors.New("database.database_name is required for MongoDB"))
		}
	case DatabaseTypeMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid database.type: %q (must be one of: %s, %s)", c.Database.Type, DatabaseTypeMongoDB, DatabaseTypeMemory))
	}

	switch c.Cache.Type {
	case CacheTypeNone:
	case CacheTypeInMemory, CacheTypeRedis:
		if c.Cache.Type == CacheTypeRedis && c.Cache.URL == "" {
			errs = append(errs, errors.New("cache.url is required when cache.type is redis"))
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, errors.New("cache.ttl must be greater than 0 when caching is enabled"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid cache.type: %q (must be one of: none, inmemory, redis)", c.Cache.Type))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, errors.New("rate_limit.requests_per_second must be greater than 0"))
		}
		if c.RateLimit.Burst < 0 {
			errs = append(errs, errors.New("rate_limit.burst cannot be negative"))
		}
		switch c.RateLimit.Type {
		case RateLimitTypeLocal:
		case RateLimitTypeRedis:
			if c.RateLimit.Redis.URL == "" {
				errs = append(errs, errors.New("rate_limit.redis.url is required when rate_limit.type is redis"))
			}
		default:
			errs = append(errs, fmt.Errorf("invalid rate_limit.type: %q (must be one of: local, redis)", c.RateLimit.Type))
		}
	}

	if _, err := logger.ParseLogLevel(c.Observability.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("observability.log_level: %w", err))
	}
	if _, err := logger.ParseLogFormat(c.Observability.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("observability.log_format: %w", err))
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		errs = append(errs, errors.New("observability.tracing_sample_rate must be between 0 and 1"))
	}
	if c.Observability.TracingEnabled && c.Observability.TracingEndpoint == "" {
		errs = append(errs, errors.New("observability.tracing_endpoint is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy with credentials in connection URLs masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Database.URL = redactURL(c.Database.URL)
	out.Cache.URL = redactURL(c.Cache.URL)
	out.RateLimit.Redis.URL = redactURL(c.RateLimit.Redis.URL)
	out.Observability.RequestLogging.ExcludedPathPrefixes = append([]string(nil), c.Observability.RequestLogging.ExcludedPathPrefixes...)
	return &out
}

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "xxxxx"
	}
	return u.Redacted()
}

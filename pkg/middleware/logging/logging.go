package logging

import (
	"net"
	"strings"
	"time"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// Config configures request logging.
type Config struct {
	Enabled bool
	// LogStart emits a "request started" entry before the handler runs.
	LogStart bool
	// ExcludedPathPrefixes are never logged.
	ExcludedPathPrefixes []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		LogStart: false,
	}
}

// Logging creates middleware with default configuration.
func Logging(log logger.Logger) router.MiddlewareFunc {
	return WithConfig(log, DefaultConfig())
}

// WithConfig logs one entry per request: "request completed" or, when the
// handler returned an error, "request failed".
func WithConfig(log logger.Logger, cfg Config) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			req := c.Request()
			if !cfg.Enabled || excluded(req.URL.Path, cfg.ExcludedPathPrefixes) {
				return next(c)
			}

			reqLog := log.WithContext(req.Context())
			start := time.Now()
			if cfg.LogStart {
				reqLog.Info("request started",
					"method", req.Method,
					"path", req.URL.Path,
					"remote_addr", remoteHost(req.RemoteAddr),
				)
			}

			err := next(c)

			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", remoteHost(req.RemoteAddr),
			}
			if err != nil {
				reqLog.Error("request failed", append(fields, "error", err.Error())...)
				return err
			}
			reqLog.Info("request completed", fields...)
			return nil
		}
	}
}

func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

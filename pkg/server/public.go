package server

import (
	"github.com/nimburion/bookshelf/pkg/config"
	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/middleware/compression"
	"github.com/nimburion/bookshelf/pkg/middleware/logging"
	"github.com/nimburion/bookshelf/pkg/middleware/metrics"
	"github.com/nimburion/bookshelf/pkg/middleware/ratelimit"
	"github.com/nimburion/bookshelf/pkg/middleware/recovery"
	"github.com/nimburion/bookshelf/pkg/middleware/requestid"
	"github.com/nimburion/bookshelf/pkg/middleware/requestsize"
	"github.com/nimburion/bookshelf/pkg/middleware/timeout"
	"github.com/nimburion/bookshelf/pkg/middleware/tracing"
	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// PublicAPIServer serves application traffic.
type PublicAPIServer struct {
	*Server
}

// NewPublicAPIServer applies the standard middleware stack to r, in order:
//
//  1. request id
//  2. OpenTelemetry server span, when tracing is enabled
//  3. request logging
//  4. brotli/gzip response compression
//  5. panic recovery
//  6. Prometheus HTTP metrics
//  7. rate limiting, when limiter is non-nil
//  8. request body size limit
//  9. request deadline
//
// Unmatched paths and methods answer with the JSON error envelope. Routes
// must be registered on r after this call.
func NewPublicAPIServer(
	cfg config.HTTPConfig,
	obs config.ObservabilityConfig,
	r router.Router,
	log logger.Logger,
	limiter ratelimit.RateLimiter,
) *PublicAPIServer {
	logCfg := obs.RequestLogging

	r.Use(requestid.RequestID())
	if obs.TracingEnabled {
		r.Use(tracing.Tracing(tracing.Config{
			TracerName:           obs.ServiceName,
			ExcludedPathPrefixes: logCfg.ExcludedPathPrefixes,
		}))
	}
	r.Use(
		logging.WithConfig(log, logging.Config{
			Enabled:              logCfg.Enabled,
			LogStart:             logCfg.LogStart,
			ExcludedPathPrefixes: logCfg.ExcludedPathPrefixes,
		}),
		compression.Middleware(compression.Config{
			Enabled:      cfg.Compression.Enabled,
			EnableGzip:   true,
			EnableBrotli: true,
			MinSize:      cfg.Compression.MinSize,
		}),
		recovery.Recovery(log),
		metrics.Metrics(),
	)
	if limiter != nil {
		r.Use(ratelimit.RateLimit(limiter, ratelimit.Config{}))
	}
	r.Use(
		requestsize.Middleware(cfg.MaxRequestBodyBytes),
		timeout.Middleware(timeout.Config{Timeout: cfg.RequestTimeout}),
	)
	r.NotFound(func(c router.Context) error {
		return controller.Error(c, controller.NewRouteNotFoundError(c.Request().Method, c.Request().URL.Path))
	})
	r.MethodNotAllowed(func(c router.Context) error {
		return controller.Error(c, controller.NewMethodNotAllowedError(c.Request().Method, c.Request().URL.Path))
	})

	return &PublicAPIServer{
		Server: NewServer(Config{
			Port:            cfg.Port,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			IdleTimeout:     cfg.IdleTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		}, r, log),
	}
}

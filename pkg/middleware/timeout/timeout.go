// Package timeout bounds request handling with a context deadline.
package timeout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// Config configures request timeout middleware behavior.
type Config struct {
	// Timeout is the per-request deadline. Non-positive disables the middleware.
	Timeout              time.Duration
	ExcludedPathPrefixes []string
}

// Middleware attaches a deadline to the request context. When the handler
// fails because the deadline passed and nothing has been written yet, the
// client receives 504 with code request.timeout.
func Middleware(cfg Config) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if cfg.Timeout <= 0 || excluded(c.Request().URL.Path, cfg.ExcludedPathPrefixes) {
				return next(c)
			}

			reqCtx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(reqCtx))
			err := next(c)
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
				return err
			}
			if c.Response().Written() {
				return err
			}
			return controller.Error(c, controller.NewTimeoutError("request timed out"))
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

package recovery

import (
	"errors"
	"runtime/debug"

	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/observability/logger"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

var errPanic = errors.New("handler panicked")

// Recovery turns a handler panic into a logged error and a 500 response.
func Recovery(log logger.Logger) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.WithContext(c.Request().Context()).Error("panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				if c.Response().Written() {
					err = errPanic
					return
				}
				err = controller.Error(c, errPanic)
			}()

			return next(c)
		}
	}
}

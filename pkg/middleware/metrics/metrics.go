// Package metrics records Prometheus HTTP metrics for the public API.
package metrics

import (
	"time"

	"github.com/nimburion/bookshelf/pkg/observability/metrics"
	"github.com/nimburion/bookshelf/pkg/server/router"
)

// Metrics labels requests by route template, so /books/:id is one series
// however many ids are requested.
func Metrics() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			done := metrics.TrackInFlight()
			defer done()

			start := time.Now()
			err := next(c)
			metrics.RecordHTTPMetrics(c.Request().Method, c.Route(), c.Response().Status(), time.Since(start))
			return err
		}
	}
}

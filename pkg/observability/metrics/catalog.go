package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filterResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_resolutions_total",
			Help:      "Filtered list queries by resolved strategy",
		},
		[]string{"strategy"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Book cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordFilterResolution counts one filtered list query under its strategy.
func RecordFilterResolution(strategy string) {
	filterResolutionsTotal.WithLabelValues(strategy).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

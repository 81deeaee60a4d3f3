package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPMetrics(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/books/:id", "404"))
	RecordHTTPMetrics("GET", "/books/:id", 404, 10*time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/books/:id", "404"))

	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordHTTPMetrics_Unmatched(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", UnmatchedRoute, "404"))
	RecordHTTPMetrics("GET", "", 404, time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", UnmatchedRoute, "404"))

	if after-before != 1 {
		t.Fatalf("expected unmatched counter to increase by 1, got %v", after-before)
	}
}

func TestTrackInFlight(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsInFlight)
	done := TrackInFlight()
	if got := testutil.ToFloat64(httpRequestsInFlight); got != before+1 {
		t.Fatalf("in flight = %v, want %v", got, before+1)
	}
	done()
	if got := testutil.ToFloat64(httpRequestsInFlight); got != before {
		t.Fatalf("in flight = %v, want %v", got, before)
	}
}

func TestCatalogCounters(t *testing.T) {
	tests := []struct {
		name    string
		record  func()
		counter prometheus.Counter
	}{
		{"strategy", func() { RecordFilterResolution("by_ids") }, filterResolutionsTotal.WithLabelValues("by_ids")},
		{"cache hit", func() { RecordCacheLookup(true) }, cacheLookupsTotal.WithLabelValues("hit")},
		{"cache miss", func() { RecordCacheLookup(false) }, cacheLookupsTotal.WithLabelValues("miss")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(tt.counter)
			tt.record()
			if got := testutil.ToFloat64(tt.counter); got != before+1 {
				t.Fatalf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRegistryHandler(t *testing.T) {
	reg := NewRegistry()
	RecordFilterResolution("no_match")

	server := httptest.NewServer(reg.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{"bookshelf_filter_resolutions_total", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "custom_total", Help: "custom"})
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(c); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

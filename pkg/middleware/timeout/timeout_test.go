package timeout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nimburion/bookshelf/pkg/server/router"
	ginrouter "github.com/nimburion/bookshelf/pkg/server/router/gin"
)

func TestMiddleware_DeadlineExceededReturns504(t *testing.T) {
	r := ginrouter.NewRouter()
	r.Use(Middleware(Config{Timeout: 5 * time.Millisecond}))
	r.GET("/books", func(c router.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected status %d, got %d", http.StatusGatewayTimeout, rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "request.timeout" {
		t.Errorf("expected code request.timeout, got %v", body["code"])
	}
}

func TestMiddleware_Bypassed(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		path string
	}{
		{name: "disabled", cfg: Config{}, path: "/books"},
		{name: "excluded path", cfg: Config{Timeout: time.Millisecond, ExcludedPathPrefixes: []string{"/health"}}, path: "/health/live"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ginrouter.NewRouter()
			r.Use(Middleware(tt.cfg))
			r.GET(tt.path, func(c router.Context) error {
				if _, ok := c.Request().Context().Deadline(); ok {
					t.Error("expected no deadline on the request context")
				}
				return c.String(http.StatusOK, "ok")
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}
		})
	}
}

func TestMiddleware_WrittenResponseIsKept(t *testing.T) {
	r := ginrouter.NewRouter()
	r.Use(Middleware(Config{Timeout: 5 * time.Millisecond}))
	r.GET("/books", func(c router.Context) error {
		<-c.Request().Context().Done()
		_ = c.String(http.StatusServiceUnavailable, "storage busy")
		return c.Request().Context().Err()
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected handler status to be kept, got %d", rec.Code)
	}
}

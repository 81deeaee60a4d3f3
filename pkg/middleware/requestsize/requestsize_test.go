package requestsize

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/server/router"
	ginrouter "github.com/nimburion/bookshelf/pkg/server/router/gin"
)

func newRouter(maxBytes int64) *ginrouter.GinRouter {
	r := ginrouter.NewRouter()
	r.Use(Middleware(maxBytes))
	r.POST("/books", func(c router.Context) error {
		var body map[string]interface{}
		if err := c.Bind(&body); err != nil {
			return controller.Error(c, controller.BindError(err))
		}
		return c.JSON(http.StatusCreated, body)
	})
	r.POST("/raw", func(c router.Context) error {
		if _, err := io.ReadAll(c.Request().Body); err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})
	return r
}

func post(r http.Handler, path, body string, chunked bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if chunked {
		req.ContentLength = -1
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	large := `{"title":"` + strings.Repeat("x", 64) + `"}`

	tests := []struct {
		name     string
		maxBytes int64
		path     string
		body     string
		chunked  bool
		want     int
	}{
		{name: "within limit", maxBytes: 128, path: "/books", body: `{"title":"Kindred"}`, want: http.StatusCreated},
		{name: "declared length over limit", maxBytes: 16, path: "/books", body: large, want: http.StatusRequestEntityTooLarge},
		{name: "streamed body over limit via bind", maxBytes: 16, path: "/books", body: large, chunked: true, want: http.StatusRequestEntityTooLarge},
		{name: "streamed body over limit via raw read", maxBytes: 16, path: "/raw", body: large, chunked: true, want: http.StatusRequestEntityTooLarge},
		{name: "disabled", maxBytes: 0, path: "/books", body: large, want: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newRouter(tt.maxBytes), tt.path, tt.body, tt.chunked)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want != http.StatusRequestEntityTooLarge {
				return
			}
			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["code"] != "request.too_large" {
				t.Errorf("expected code request.too_large, got %v", body["code"])
			}
		})
	}
}

package gin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nimburion/bookshelf/pkg/server/router"
)

func perform(r router.Router, method, path, body, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGinRouter_Methods(t *testing.T) {
	tests := []struct {
		method string
		add    func(r router.Router, h router.HandlerFunc)
	}{
		{http.MethodGet, func(r router.Router, h router.HandlerFunc) { r.GET("/m", h) }},
		{http.MethodPost, func(r router.Router, h router.HandlerFunc) { r.POST("/m", h) }},
		{http.MethodPut, func(r router.Router, h router.HandlerFunc) { r.PUT("/m", h) }},
		{http.MethodPatch, func(r router.Router, h router.HandlerFunc) { r.PATCH("/m", h) }},
		{http.MethodDelete, func(r router.Router, h router.HandlerFunc) { r.DELETE("/m", h) }},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			r := NewRouter()
			tt.add(r, func(c router.Context) error { return c.String(http.StatusOK, tt.method) })

			rec := perform(r, tt.method, "/m", "", "")
			if rec.Code != http.StatusOK || rec.Body.String() != tt.method {
				t.Fatalf("got %d %q", rec.Code, rec.Body.String())
			}
		})
	}

	if rec := perform(NewRouter(), http.MethodGet, "/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGinRouter_ParamsQueryAndRoute(t *testing.T) {
	r := NewRouter()
	r.GET("/books/:id", func(c router.Context) error {
		return c.String(http.StatusOK, c.Param("id")+"|"+c.Query("limit")+"|"+c.Route())
	})

	rec := perform(r, http.MethodGet, "/books/abc?limit=2", "", "")
	if got := rec.Body.String(); got != "abc|2|/books/:id" {
		t.Fatalf("body = %q", got)
	}
}

func TestGinRouter_MiddlewareOrder(t *testing.T) {
	r := NewRouter()
	var order []string
	mark := func(name string) router.MiddlewareFunc {
		return func(next router.HandlerFunc) router.HandlerFunc {
			return func(c router.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	r.Use(mark("global"))
	api := r.Group("/api", mark("group"))
	api.GET("/x", func(c router.Context) error {
		order = append(order, "handler")
		return c.String(http.StatusOK, "ok")
	}, mark("route"))

	perform(r, http.MethodGet, "/api/x", "", "")
	want := []string{"global", "group", "route", "handler"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestGinRouter_UnwrittenErrorBecomes500(t *testing.T) {
	r := NewRouter()
	r.GET("/err", func(c router.Context) error { return errors.New("boom") })
	r.GET("/written", func(c router.Context) error {
		_ = c.String(http.StatusTeapot, "short")
		return errors.New("after write")
	})

	if rec := perform(r, http.MethodGet, "/err", "", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec := perform(r, http.MethodGet, "/written", "", ""); rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}

func TestGinContext_Bind(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}
	r := NewRouter()
	r.POST("/bind", func(c router.Context) error {
		var p payload
		if err := c.Bind(&p); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, p)
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json", `{"title":"Dune"}`, "application/json; charset=utf-8", http.StatusOK},
		{"empty body", "", "application/json", http.StatusBadRequest},
		{"wrong content type", `{"title":"Dune"}`, "text/plain", http.StatusBadRequest},
		{"malformed", `{"title":`, "application/json", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(r, http.MethodPost, "/bind", tt.body, tt.contentType)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestGinResponseWriter_Status(t *testing.T) {
	r := NewRouter()
	var status int
	var written bool
	r.GET("/s", func(c router.Context) error {
		err := c.JSON(http.StatusCreated, map[string]string{"ok": "yes"})
		status = c.Response().Status()
		written = c.Response().Written()
		return err
	})
	perform(r, http.MethodGet, "/s", "", "")
	if status != http.StatusCreated || !written {
		t.Fatalf("status=%d written=%v", status, written)
	}
}

func TestGinRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	r := NewRouter()
	var seen []string
	r.Use(func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			seen = append(seen, c.Request().URL.Path)
			return next(c)
		}
	})
	r.GET("/books", func(c router.Context) error { return c.String(http.StatusOK, "ok") })
	r.NotFound(func(c router.Context) error {
		return c.String(http.StatusNotFound, "no route "+c.Request().URL.Path)
	})
	r.MethodNotAllowed(func(c router.Context) error {
		return c.String(http.StatusMethodNotAllowed, "no method "+c.Request().Method)
	})

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/authors", http.StatusNotFound, "no route /authors"},
		{http.MethodDelete, "/books", http.StatusMethodNotAllowed, "no method DELETE"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := perform(r, tt.method, tt.path, "", "")
			if rec.Code != tt.wantStatus || rec.Body.String() != tt.wantBody {
				t.Fatalf("got %d %q, want %d %q", rec.Code, rec.Body.String(), tt.wantStatus, tt.wantBody)
			}
		})
	}

	if len(seen) != 2 {
		t.Fatalf("expected middleware to run for unmatched requests, saw %v", seen)
	}
}

package recovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimburion/bookshelf/pkg/controller"
	"github.com/nimburion/bookshelf/pkg/middleware/requestid"
	"github.com/nimburion/bookshelf/pkg/server/router"
	ginrouter "github.com/nimburion/bookshelf/pkg/server/router/gin"
	"github.com/nimburion/bookshelf/pkg/testutil"
)

func TestRecovery(t *testing.T) {
	log := &testutil.MockLogger{}
	r := ginrouter.NewRouter()
	r.Use(requestid.RequestID(), Recovery(log))
	r.GET("/panic", func(c router.Context) error { panic("kaboom") })
	r.GET("/ok", func(c router.Context) error { return c.String(http.StatusOK, "fine") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(requestid.RequestIDHeader, "req-panic")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body controller.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Error != "internal_server_error" || body.RequestID != "req-panic" {
		t.Fatalf("unexpected body: %+v", body)
	}

	entry, ok := log.Find("panic recovered")
	if !ok {
		t.Fatal("expected panic to be logged")
	}
	if entry.Fields["panic"] != "kaboom" {
		t.Fatalf("panic field = %v", entry.Fields["panic"])
	}
	if _, ok := entry.Fields["stack"]; !ok {
		t.Fatal("expected stack trace field")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

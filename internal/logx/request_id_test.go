package logx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Fatalf("RequestIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("RequestIDFromContext() on empty ctx = %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = RequestIDFromGin(c)
		c.Status(http.StatusOK)
	})

	// Caller-supplied id is kept and echoed back.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	r.ServeHTTP(w, req)
	if seen != "caller-id" {
		t.Fatalf("handler saw request id %q", seen)
	}
	if got := w.Header().Get("X-Request-ID"); got != "caller-id" {
		t.Fatalf("response header = %q", got)
	}

	// A missing id is generated.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "caller-id" {
		t.Fatalf("generated request id = %q", seen)
	}
	if w.Header().Get("X-Request-ID") != seen {
		t.Fatal("generated id not echoed in response header")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())

	var fromGin, fromCtx string
	router.GET("/test", func(c *gin.Context) {
		fromGin = RequestIDFromContext(c)
		if v, ok := c.Request.Context().Value(RequestIDKey).(string); ok {
			fromCtx = v
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	if fromGin == "" {
		t.Error("Expected a generated request id")
	}
	if fromCtx != fromGin {
		t.Errorf("Expected request context id %q to match gin context id %q", fromCtx, fromGin)
	}
	if got := w.Header().Get(HeaderRequestID); got != fromGin {
		t.Errorf("Expected response header %q, got %q", fromGin, got)
	}
}

func TestRequestID_ReusesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		if id := RequestIDFromContext(c); id != "req-from-gateway" {
			t.Errorf("Expected forwarded request id, got %q", id)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "req-from-gateway")
	router.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "req-from-gateway" {
		t.Errorf("Expected response header req-from-gateway, got %q", got)
	}
}

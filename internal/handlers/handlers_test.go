package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shopmesh/orders-service/internal/errors"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
	if resp["service"] != "orders-service" {
		t.Errorf("Expected service 'orders-service', got %v", resp["service"])
	}
}

func TestReady_NoDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestLive(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Live(c)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Version(c)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["service"] != "orders-service" {
		t.Errorf("Expected service 'orders-service', got %v", resp["service"])
	}
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", errors.ErrNotFound, http.StatusNotFound},
		{"validation", errors.NewValidationError("items", "at least one item is required"), http.StatusBadRequest},
		{"invalid state", errors.NewInvalidOrderState("order is not in PENDING status"), http.StatusConflict},
		{"product unavailable", errors.NewProductUnavailable(7), http.StatusConflict},
		{"insufficient stock", errors.NewInsufficientStock(7, "Widget"), http.StatusConflict},
		{"payment failed", errors.NewPaymentFailed("ORD-20240101120000-DEADBEEF"), http.StatusPaymentRequired},
		{"unexpected", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleError(c, tt.err)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		value string
		ok    bool
		id    int64
	}{
		{"valid id", "42", true, 42},
		{"zero rejected", "0", false, 0},
		{"negative rejected", "-5", false, 0},
		{"non-numeric rejected", "abc", false, 0},
		{"empty rejected", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, ok := parseID(c, "id")

			if ok != tt.ok {
				t.Errorf("parseID(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if id != tt.id {
				t.Errorf("parseID(%q) id = %d, want %d", tt.value, id, tt.id)
			}
			if !tt.ok && w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400 for %q, got %d", tt.value, w.Code)
			}
		})
	}
}

func TestParsePaging(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("defaults", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/orders", nil)

		limit, offset := parsePaging(c)
		if limit != 20 {
			t.Errorf("Expected default limit 20, got %d", limit)
		}
		if offset != 0 {
			t.Errorf("Expected default offset 0, got %d", offset)
		}
	})

	t.Run("explicit values", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/orders?limit=50&offset=100", nil)

		limit, offset := parsePaging(c)
		if limit != 50 {
			t.Errorf("Expected limit 50, got %d", limit)
		}
		if offset != 100 {
			t.Errorf("Expected offset 100, got %d", offset)
		}
	})

	t.Run("garbage ignored", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/orders?limit=abc&offset=xyz", nil)

		limit, offset := parsePaging(c)
		if limit != 20 || offset != 0 {
			t.Errorf("Expected defaults for garbage input, got limit=%d offset=%d", limit, offset)
		}
	})
}

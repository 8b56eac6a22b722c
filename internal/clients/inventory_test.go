package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/middleware"
)

func newInventoryClient(baseURL string) *HTTPInventoryClient {
	return NewHTTPInventoryClient(config.ServiceConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	}, logging.NewLogger("inventory-client-test"))
}

func TestInventoryClient_GetProductsByIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/batch" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var ids []int64
		if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("Expected 2 ids, got %d", len(ids))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": 1, "name": "Widget", "sku": "WID-001", "price": "10.50", "quantity": 100, "active": true},
			{"id": 2, "name": "Gadget", "sku": "GAD-002", "price": "3.25", "quantity": 50, "active": true},
		})
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	snaps, err := client.GetProductsByIDs(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("GetProductsByIDs() error = %v", err)
	}

	if len(snaps) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Name != "Widget" || !snaps[0].Active {
		t.Errorf("Unexpected first snapshot: %+v", snaps[0])
	}
}

func TestInventoryClient_GetProductsByIDs_FallbackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	snaps, err := client.GetProductsByIDs(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("Expected fallback result, got error %v", err)
	}

	if len(snaps) != 3 {
		t.Fatalf("Expected a fallback snapshot per id, got %d", len(snaps))
	}
	for _, snap := range snaps {
		if snap.Active {
			t.Errorf("Expected fallback snapshot for product %d to be inactive", snap.ID)
		}
	}
}

func TestInventoryClient_ReserveStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/7/reserve" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("quantity") != "3" {
			t.Errorf("Expected quantity=3, got %s", r.URL.Query().Get("quantity"))
		}
		json.NewEncoder(w).Encode(true)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	ok, err := client.ReserveStock(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("ReserveStock() error = %v", err)
	}
	if !ok {
		t.Error("Expected reservation to succeed")
	}
}

func TestInventoryClient_ReserveStock_Denied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(false)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	ok, err := client.ReserveStock(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("ReserveStock() error = %v", err)
	}
	if ok {
		t.Error("Expected reservation to be denied")
	}
}

func TestInventoryClient_ReserveStock_DeniedOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	ok, err := client.ReserveStock(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("Expected fallback denial, got error %v", err)
	}
	if ok {
		t.Error("Expected reservation to be denied when inventory is unreachable")
	}
}

func TestInventoryClient_ReleaseStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/7/release" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		// Release responds with an empty body.
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	if err := client.ReleaseStock(context.Background(), 7, 3); err != nil {
		t.Fatalf("ReleaseStock() error = %v", err)
	}
}

func TestInventoryClient_ReleaseStock_FailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	if err := client.ReleaseStock(context.Background(), 7, 3); err == nil {
		t.Error("Expected release failure to surface as an error")
	}
}

func TestInventoryClient_CheckStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(true)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	available, err := client.CheckStock(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("CheckStock() error = %v", err)
	}
	if !available {
		t.Error("Expected stock to be available")
	}
}

func TestInventoryClient_PropagatesRequestID(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(middleware.HeaderRequestID)
		json.NewEncoder(w).Encode(true)
	}))
	defer srv.Close()

	client := newInventoryClient(srv.URL)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-abc-123")
	if _, err := client.ReserveStock(ctx, 7, 1); err != nil {
		t.Fatalf("ReserveStock() error = %v", err)
	}

	if gotHeader != "req-abc-123" {
		t.Errorf("Expected request id header req-abc-123, got %q", gotHeader)
	}
}

func TestFallbackInventoryClient(t *testing.T) {
	fallback := NewFallbackInventoryClient()
	ctx := context.Background()

	snaps, err := fallback.GetProductsByIDs(ctx, []int64{1, 2})
	if err != nil {
		t.Fatalf("GetProductsByIDs() error = %v", err)
	}
	for _, snap := range snaps {
		if snap.Active {
			t.Errorf("Expected inactive snapshot for product %d", snap.ID)
		}
		if !snap.Price.IsZero() {
			t.Errorf("Expected zero price for product %d, got %s", snap.ID, snap.Price)
		}
	}

	if ok, _ := fallback.ReserveStock(ctx, 1, 1); ok {
		t.Error("Expected fallback to deny reservations")
	}
	if err := fallback.ReleaseStock(ctx, 1, 1); err != nil {
		t.Errorf("Expected fallback release to be a no-op, got %v", err)
	}
	if ok, _ := fallback.CheckStock(ctx, 1, 1); ok {
		t.Error("Expected fallback to report no stock")
	}
}

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/models"
)

// InventoryClient exposes the product service's stock operations. Transport
// failures never escape this boundary: implementations degrade to fallback
// values (snapshot inactive, reservation denied) so the caller only ever sees
// business outcomes. ReleaseStock is the one exception; its error lets the
// caller log a failed compensation while continuing.
type InventoryClient interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.ProductSnapshot, error)
	ReserveStock(ctx context.Context, productID int64, quantity int) (bool, error)
	ReleaseStock(ctx context.Context, productID int64, quantity int) error
	CheckStock(ctx context.Context, productID int64, quantity int) (bool, error)
}

// HTTPInventoryClient implements InventoryClient against the product service.
// A circuit breaker guards every call; when it opens, or a call fails, values
// come from the fallback client instead.
type HTTPInventoryClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	fallback   *FallbackInventoryClient
	logger     *logging.Logger
}

// NewHTTPInventoryClient creates an inventory client with a bounded timeout.
func NewHTTPInventoryClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPInventoryClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "inventory-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPInventoryClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		fallback:   NewFallbackInventoryClient(),
		logger:     logger,
	}
}

// GetProductsByIDs fetches catalog snapshots for the given product ids in one
// batched call. Missing ids are absent from the result, not an error. On
// remote failure every requested id comes back as an inactive snapshot.
func (c *HTTPInventoryClient) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.ProductSnapshot, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchProducts(ctx, ids)
	})
	if err != nil {
		c.logger.Warn("Inventory unavailable, using fallback snapshots", logging.Fields{
			"product_ids": ids,
			"error":       err.Error(),
		})
		return c.fallback.GetProductsByIDs(ctx, ids)
	}
	return result.([]models.ProductSnapshot), nil
}

// ReserveStock atomically decrements available stock for a product. A false
// result means insufficient stock; remote failure degrades to the same denial.
func (c *HTTPInventoryClient) ReserveStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postStockOp(ctx, productID, quantity, "reserve")
	})
	if err != nil {
		c.logger.Warn("Inventory unavailable, denying reservation", logging.Fields{
			"product_id": productID,
			"quantity":   quantity,
			"error":      err.Error(),
		})
		return c.fallback.ReserveStock(ctx, productID, quantity)
	}
	return result.(bool), nil
}

// ReleaseStock increments available stock for a product. Idempotent on the
// inventory side; safe to call for reservations that were already released.
func (c *HTTPInventoryClient) ReleaseStock(ctx context.Context, productID int64, quantity int) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postStockOp(ctx, productID, quantity, "release")
	})
	if err != nil {
		c.logger.Warn("Failed to release stock", logging.Fields{
			"product_id": productID,
			"quantity":   quantity,
			"error":      err.Error(),
		})
		return err
	}
	return nil
}

// CheckStock reports whether the requested quantity is currently available.
func (c *HTTPInventoryClient) CheckStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/api/products/%d/stock?quantity=%d", c.baseURL, productID, quantity)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false, err
		}
		setHeaders(ctx, req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return false, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
		}

		var available bool
		if err := json.NewDecoder(resp.Body).Decode(&available); err != nil {
			return false, err
		}
		return available, nil
	})
	if err != nil {
		return c.fallback.CheckStock(ctx, productID, quantity)
	}
	return result.(bool), nil
}

func (c *HTTPInventoryClient) fetchProducts(ctx context.Context, ids []int64) ([]models.ProductSnapshot, error) {
	body, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/products/batch", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var snapshots []models.ProductSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (c *HTTPInventoryClient) postStockOp(ctx context.Context, productID int64, quantity int, op string) (bool, error) {
	url := fmt.Sprintf("%s/api/products/%d/%s?quantity=%d", c.baseURL, productID, op, quantity)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return false, err
	}
	setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}

	var ok bool
	if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
		if err == io.EOF {
			// The release endpoint responds with an empty body.
			return true, nil
		}
		return false, err
	}
	return ok, nil
}

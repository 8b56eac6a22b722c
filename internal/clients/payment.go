package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/middleware"
	"github.com/shopmesh/orders-service/internal/models"
)

// ChargeRequest is the outbound payload for charging an order's total.
type ChargeRequest struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

// PaymentClient exposes the payment service's charge and refund operations.
// A declined charge is a FAILED result, never an error; fatal protocol errors
// degrade to the same FAILED result at this boundary. Refunds are best-effort
// and the caller must check the returned status rather than assume success.
type PaymentClient interface {
	Charge(ctx context.Context, req *ChargeRequest) (*models.PaymentResult, error)
	Refund(ctx context.Context, paymentID int64) (*models.PaymentResult, error)
}

// HTTPPaymentClient implements PaymentClient against the payment service,
// guarded by a circuit breaker with fallback results on failure.
type HTTPPaymentClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	fallback   *FallbackPaymentClient
	logger     *logging.Logger
}

// NewHTTPPaymentClient creates a payment client with a bounded timeout.
func NewHTTPPaymentClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPPaymentClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "payment-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPPaymentClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		fallback:   NewFallbackPaymentClient(),
		logger:     logger,
	}
}

// Charge submits a payment for the order's stored total. Remote failure or an
// open breaker yields a FAILED result, leaving the order retryable.
func (c *HTTPPaymentClient) Charge(ctx context.Context, req *ChargeRequest) (*models.PaymentResult, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postCharge(ctx, req)
	})
	if err != nil {
		c.logger.Warn("Payment service unavailable, treating charge as failed", logging.Fields{
			"order_id":     req.OrderID,
			"order_number": req.OrderNumber,
			"error":        err.Error(),
		})
		return c.fallback.Charge(ctx, req)
	}
	return result.(*models.PaymentResult), nil
}

// Refund requests a refund of a completed payment. Remote failure yields a
// REFUND_FAILED result; money reconciliation then happens out-of-band.
func (c *HTTPPaymentClient) Refund(ctx context.Context, paymentID int64) (*models.PaymentResult, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postRefund(ctx, paymentID)
	})
	if err != nil {
		c.logger.Warn("Payment service unavailable, refund not confirmed", logging.Fields{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return c.fallback.Refund(ctx, paymentID)
	}
	return result.(*models.PaymentResult), nil
}

func (c *HTTPPaymentClient) postCharge(ctx context.Context, req *ChargeRequest) (*models.PaymentResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/payments", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}

	var result models.PaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPPaymentClient) postRefund(ctx context.Context, paymentID int64) (*models.PaymentResult, error) {
	url := fmt.Sprintf("%s/api/payments/%d/refund", c.baseURL, paymentID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}

	var result models.PaymentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if requestID := ctx.Value(middleware.RequestIDKey); requestID != nil {
		if id, ok := requestID.(string); ok {
			req.Header.Set(middleware.HeaderRequestID, id)
		}
	}
}

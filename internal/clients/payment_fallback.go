package clients

import (
	"context"

	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/models"
)

var (
	_ PaymentClient = (*HTTPPaymentClient)(nil)
	_ PaymentClient = (*FallbackPaymentClient)(nil)
)

// FallbackPaymentClient is the degraded-mode payment client used when the
// payment service is unreachable. Charges come back FAILED so the order stays
// PENDING and retryable; refunds come back REFUND_FAILED so the cancellation
// saga records the miss instead of assuming the money moved.
type FallbackPaymentClient struct {
	logger *logging.Logger
}

// NewFallbackPaymentClient creates the degraded-mode client.
func NewFallbackPaymentClient() *FallbackPaymentClient {
	return &FallbackPaymentClient{logger: logging.NewLogger("payment-fallback")}
}

// Charge reports the charge as FAILED.
func (c *FallbackPaymentClient) Charge(ctx context.Context, req *ChargeRequest) (*models.PaymentResult, error) {
	c.logger.Warn("Fallback: unable to process payment", logging.Fields{
		"order_id":     req.OrderID,
		"order_number": req.OrderNumber,
	})

	return &models.PaymentResult{
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount,
		Status:      models.PaymentStatusFailed,
	}, nil
}

// Refund reports the refund as failed.
func (c *FallbackPaymentClient) Refund(ctx context.Context, paymentID int64) (*models.PaymentResult, error) {
	c.logger.Warn("Fallback: unable to refund payment", logging.Fields{
		"payment_id": paymentID,
	})

	return &models.PaymentResult{
		ID:     paymentID,
		Status: models.PaymentStatusRefundFailed,
	}, nil
}

package models

import "github.com/shopspring/decimal"

// ProductSnapshot is the catalog view of a product at one point in time.
// Unit prices copied from a snapshot into an order item are never updated
// when the catalog price changes later.
type ProductSnapshot struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Active   bool            `json:"active"`
}

// PaymentResult is the outcome of a charge or refund at the payment service.
type PaymentResult struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// PaymentStatus is the payment service's verdict on a charge or refund.
type PaymentStatus string

const (
	PaymentStatusCompleted    PaymentStatus = "COMPLETED"
	PaymentStatusFailed       PaymentStatus = "FAILED"
	PaymentStatusRefunded     PaymentStatus = "REFUNDED"
	PaymentStatusRefundFailed PaymentStatus = "REFUND_FAILED"
	PaymentStatusUnknown      PaymentStatus = "UNKNOWN"
)

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root for a customer order. Items have no lifecycle
// outside their parent; the aggregate is always loaded and saved as one unit.
type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          int64       `json:"user_id"`
	Items           []OrderItem `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus `json:"status"`
	ShippingAddress string      `json:"shipping_address"`
	PaymentID       *int64      `json:"payment_id,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order. Name, SKU and unit price are snapshots
// captured at reservation time and never re-priced afterwards.
type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CalculateTotalAmount recomputes the order total as the sum of item subtotals.
func (o *Order) CalculateTotalAmount() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total
}

// CanCancel reports whether the cancellation saga may run against this order.
// Physically fulfilled orders cannot be undone by stock release and refund.
func (o *Order) CanCancel() bool {
	return o.Status != OrderStatusShipped && o.Status != OrderStatusDelivered &&
		!o.Status.IsTerminal()
}

// NewOrderNumber generates the client-visible order identifier:
// ORD-<14-digit timestamp>-<8 uppercase hex chars>.
func NewOrderNumber() string {
	timestamp := time.Now().Format("20060102150405")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + timestamp + "-" + suffix
}

// CreateOrderRequest is the inbound payload for order creation. Prices are
// deliberately absent; unit prices are resolved server-side at reservation time.
type CreateOrderRequest struct {
	UserID          int64              `json:"user_id" binding:"required"`
	Items           []OrderItemRequest `json:"items" binding:"required"`
	ShippingAddress string             `json:"shipping_address"`
	Notes           string             `json:"notes"`
}

// OrderItemRequest is one requested line: a product reference and a quantity.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// UpdateOrderStatusRequest is the inbound payload for a status transition.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// OrderListFilter selects orders for paged listing.
type OrderListFilter struct {
	UserID *int64
	Status *OrderStatus
	Limit  int
	Offset int
}

// OrderPage is one page of a listing result.
type OrderPage struct {
	Orders []*Order `json:"orders"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

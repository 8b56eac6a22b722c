package repository

import (
	"context"
	"errors"

	"github.com/shopmesh/orders-service/internal/models"
)

// ErrStatusConflict is returned when a guarded status update finds the order
// in a different status than the caller observed. The caller decides whether
// to reload or reject.
var ErrStatusConflict = errors.New("order status changed concurrently")

// OrderRepository is the durable order store. Save operations persist the
// whole aggregate (order plus items) in one unit; downstream inventory and
// payment calls are never part of that transaction.
type OrderRepository interface {
	// Create persists a new order aggregate and returns it with its id assigned.
	Create(ctx context.Context, order *models.Order) (*models.Order, error)

	// GetByID loads an order aggregate by internal id.
	GetByID(ctx context.Context, id int64) (*models.Order, error)

	// GetByOrderNumber loads an order aggregate by its client-visible number.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)

	// UpdateStatus moves an order from expectedStatus to newStatus. The update
	// is guarded: if the stored status no longer equals expectedStatus the
	// write is rejected with ErrStatusConflict and nothing changes.
	UpdateStatus(ctx context.Context, id int64, expectedStatus, newStatus models.OrderStatus) (*models.Order, error)

	// SetPayment records a successful charge: paymentId plus the PENDING→PAID
	// transition in one guarded write.
	SetPayment(ctx context.Context, id int64, paymentID int64, expectedStatus, newStatus models.OrderStatus) (*models.Order, error)

	// List returns a page of orders matching the filter plus the total count.
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
}

// OrderCache defines read-through caching for orders.
type OrderCache interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id int64) error
	GetByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	SetByUserID(ctx context.Context, userID int64, orders []*models.Order) error
	InvalidateByUserID(ctx context.Context, userID int64) error
}

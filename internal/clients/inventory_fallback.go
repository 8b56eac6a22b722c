package clients

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/models"
)

// Ensure both implementations satisfy the contract.
var (
	_ InventoryClient = (*HTTPInventoryClient)(nil)
	_ InventoryClient = (*FallbackInventoryClient)(nil)
)

// FallbackInventoryClient is the degraded-mode inventory client used when the
// product service is unreachable. It answers with inactive zero-stock
// snapshots and denies every reservation, so an inventory outage fails order
// creation the same way insufficient stock does.
type FallbackInventoryClient struct {
	logger *logging.Logger
}

// NewFallbackInventoryClient creates the degraded-mode client.
func NewFallbackInventoryClient() *FallbackInventoryClient {
	return &FallbackInventoryClient{logger: logging.NewLogger("inventory-fallback")}
}

// GetProductsByIDs returns an inactive, zero-priced snapshot per requested id.
func (c *FallbackInventoryClient) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.ProductSnapshot, error) {
	c.logger.Warn("Fallback: unable to get products", logging.Fields{"product_ids": ids})

	snapshots := make([]models.ProductSnapshot, 0, len(ids))
	for _, id := range ids {
		snapshots = append(snapshots, models.ProductSnapshot{
			ID:       id,
			Name:     "Product Unavailable",
			Price:    decimal.Zero,
			Quantity: 0,
			Active:   false,
		})
	}
	return snapshots, nil
}

// ReserveStock always denies the reservation.
func (c *FallbackInventoryClient) ReserveStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	c.logger.Warn("Fallback: unable to reserve stock", logging.Fields{"product_id": productID})
	return false, nil
}

// ReleaseStock is a no-op; the release is retried out-of-band by the
// inventory side once it recovers.
func (c *FallbackInventoryClient) ReleaseStock(ctx context.Context, productID int64, quantity int) error {
	c.logger.Warn("Fallback: unable to release stock", logging.Fields{"product_id": productID})
	return nil
}

// CheckStock reports no availability.
func (c *FallbackInventoryClient) CheckStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	c.logger.Warn("Fallback: unable to check stock", logging.Fields{"product_id": productID})
	return false, nil
}

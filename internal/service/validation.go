package service

import (
	"github.com/shopmesh/orders-service/internal/errors"
	"github.com/shopmesh/orders-service/internal/models"
)

const maxPageSize = 100

// ValidateCreateOrderRequest validates an order creation request.
func ValidateCreateOrderRequest(req *models.CreateOrderRequest) error {
	if req.UserID <= 0 {
		return errors.NewValidationError("user_id", "user ID is required")
	}

	if len(req.Items) == 0 {
		return errors.NewValidationError("items", "at least one item is required")
	}

	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return errors.NewValidationError("items", "product ID is required for item")
		}
		if item.Quantity <= 0 {
			return errors.NewValidationError("items", "quantity must be positive")
		}
	}

	return nil
}

// ValidateOrderListFilter validates and normalizes a list filter.
func ValidateOrderListFilter(filter *models.OrderListFilter) error {
	if filter.Limit < 0 {
		return errors.NewValidationError("limit", "limit cannot be negative")
	}

	if filter.Offset < 0 {
		return errors.NewValidationError("offset", "offset cannot be negative")
	}

	if filter.Limit == 0 {
		filter.Limit = 20
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	if filter.Status != nil && !filter.Status.IsValid() {
		return errors.NewValidationError("status", "invalid order status")
	}

	return nil
}

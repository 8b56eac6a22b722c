package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a requested resource does not exist.
var ErrNotFound = errors.New("resource not found")

// ValidationError indicates a malformed or semantically invalid request.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProductUnavailableError indicates a product is missing from the catalog or inactive.
type ProductUnavailableError struct {
	ProductID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product not found or inactive: %d", e.ProductID)
}

// NewProductUnavailable creates a product unavailability error.
func NewProductUnavailable(productID int64) *ProductUnavailableError {
	return &ProductUnavailableError{ProductID: productID}
}

// InsufficientStockError indicates a stock reservation was denied.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
}

// NewInsufficientStock creates a stock rejection error.
func NewInsufficientStock(productID int64, productName string) *InsufficientStockError {
	return &InsufficientStockError{ProductID: productID, ProductName: productName}
}

// InvalidOrderStateError indicates an illegal status transition or an operation
// attempted against an order in the wrong state.
type InvalidOrderStateError struct {
	Message string
}

func (e *InvalidOrderStateError) Error() string {
	return e.Message
}

// NewInvalidOrderState creates an invalid-state error.
func NewInvalidOrderState(format string, args ...interface{}) *InvalidOrderStateError {
	return &InvalidOrderStateError{Message: fmt.Sprintf(format, args...)}
}

// PaymentFailedError indicates a declined or unprocessable charge. The order
// stays PENDING and the payment can be retried.
type PaymentFailedError struct {
	OrderNumber string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed for order: %s", e.OrderNumber)
}

// NewPaymentFailed creates a payment failure error.
func NewPaymentFailed(orderNumber string) *PaymentFailedError {
	return &PaymentFailedError{OrderNumber: orderNumber}
}

// IsNotFound reports whether err is the not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

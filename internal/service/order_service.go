package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopmesh/orders-service/internal/clients"
	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/errors"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/models"
	"github.com/shopmesh/orders-service/internal/repository"
)

// EventPublisher fans order lifecycle events out to the message bus. Delivery
// is best-effort; publish failures are logged and never fail the saga.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus models.OrderStatus) error
	PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error
}

// OrderService orchestrates the order lifecycle sagas: creation with
// reserve-all-or-compensate, payment, cancellation with release and refund,
// and validated status transitions. Each saga instance is one sequential run
// of remote calls; concurrent sagas for the same order are serialized by the
// repository's guarded status writes.
type OrderService struct {
	orderRepo       repository.OrderRepository
	orderCache      repository.OrderCache
	inventoryClient clients.InventoryClient
	paymentClient   clients.PaymentClient
	eventPublisher  EventPublisher
	config          *config.Config
	logger          *logging.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	orderCache repository.OrderCache,
	inventoryClient clients.InventoryClient,
	paymentClient clients.PaymentClient,
	eventPublisher EventPublisher,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		orderCache:      orderCache,
		inventoryClient: inventoryClient,
		paymentClient:   paymentClient,
		eventPublisher:  eventPublisher,
		config:          cfg,
		logger:          logging.NewLogger("order-service"),
	}
}

// reservation is one entry of the reserved-so-far log built during the
// forward pass of order creation. The log is scoped to a single saga
// invocation and consumed in the same order during compensation.
type reservation struct {
	productID int64
	quantity  int
}

// CreateOrder runs the create-order saga: resolve product snapshots, reserve
// stock item by item in request order, then persist the PENDING order. Any
// failure after the first successful reservation releases exactly what this
// invocation reserved before the error is surfaced.
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	s.logger.Info("Creating order", logging.Fields{
		"user_id":    req.UserID,
		"item_count": len(req.Items),
	})

	if err := ValidateCreateOrderRequest(req); err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	snapshots, err := s.inventoryClient.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error("Failed to resolve product snapshots", logging.Fields{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		return nil, err
	}

	snapshotsByID := make(map[int64]models.ProductSnapshot, len(snapshots))
	for _, snap := range snapshots {
		snapshotsByID[snap.ID] = snap
	}

	reserved := make([]reservation, 0, len(req.Items))
	items := make([]models.OrderItem, 0, len(req.Items))

	for _, itemReq := range req.Items {
		snap, ok := snapshotsByID[itemReq.ProductID]
		if !ok || !snap.Active {
			s.compensateReservations(ctx, reserved)
			return nil, errors.NewProductUnavailable(itemReq.ProductID)
		}

		ok, err := s.inventoryClient.ReserveStock(ctx, itemReq.ProductID, itemReq.Quantity)
		if err != nil || !ok {
			s.compensateReservations(ctx, reserved)
			return nil, errors.NewInsufficientStock(snap.ID, snap.Name)
		}

		reserved = append(reserved, reservation{productID: itemReq.ProductID, quantity: itemReq.Quantity})

		items = append(items, models.OrderItem{
			ProductID:   snap.ID,
			ProductName: snap.Name,
			ProductSKU:  snap.SKU,
			Quantity:    itemReq.Quantity,
			UnitPrice:   snap.Price,
			Subtotal:    snap.Price.Mul(decimal.NewFromInt(int64(itemReq.Quantity))),
		})
	}

	order := &models.Order{
		OrderNumber:     models.NewOrderNumber(),
		UserID:          req.UserID,
		Items:           items,
		Status:          models.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}
	order.CalculateTotalAmount()

	order, err = s.orderRepo.Create(ctx, order)
	if err != nil {
		// Reserved stock without an order record is the worst failure mode;
		// compensate before surfacing the persistence error.
		s.logger.Error("Failed to persist order, releasing reservations", logging.Fields{
			"user_id": req.UserID,
			"error":   err.Error(),
		})
		s.compensateReservations(ctx, reserved)
		return nil, err
	}

	s.cacheOrder(ctx, order)
	s.publishCreated(ctx, order)
	ordersCreatedTotal.Inc()

	s.logger.Info("Order created successfully", logging.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount.String(),
	})

	return order, nil
}

// ProcessPayment runs the pay-order saga. Only PENDING orders can be charged,
// which also rejects double payments: the first successful charge moves the
// order to PAID. The charged amount is always the stored order total.
func (s *OrderService) ProcessPayment(ctx context.Context, orderID int64, paymentMethod string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPending {
		return nil, errors.NewInvalidOrderState("order is not in PENDING status")
	}

	s.logger.Info("Processing payment", logging.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"amount":       order.TotalAmount.String(),
		"method":       paymentMethod,
	})

	result, err := s.paymentClient.Charge(ctx, &clients.ChargeRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		PaymentMethod: paymentMethod,
	})
	if err != nil || result.Status != models.PaymentStatusCompleted {
		// Reservations are kept: a failed payment leaves the order PENDING
		// and retryable without losing the customer's cart.
		paymentsTotal.WithLabelValues("failed").Inc()
		return nil, errors.NewPaymentFailed(order.OrderNumber)
	}

	previousStatus := order.Status
	order, err = s.orderRepo.SetPayment(ctx, order.ID, result.ID, models.OrderStatusPending, models.OrderStatusPaid)
	if err == repository.ErrStatusConflict {
		return nil, errors.NewInvalidOrderState("order is not in PENDING status")
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, order)
	s.publishStatusChanged(ctx, order, previousStatus)
	paymentsTotal.WithLabelValues("completed").Inc()

	s.logger.Info("Payment processed successfully", logging.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"payment_id":   *order.PaymentID,
	})

	return order, nil
}

// UpdateOrderStatus runs the generic status-update saga: the transition is
// validated against the state machine, then applied with the loaded status
// re-checked at write time so a concurrent mutation loses cleanly.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.IsValid() {
		return nil, errors.NewValidationError("status", "invalid order status")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, errors.NewInvalidOrderState(
			"invalid status transition from %s to %s", order.Status, newStatus)
	}

	previousStatus := order.Status
	order, err = s.orderRepo.UpdateStatus(ctx, orderID, previousStatus, newStatus)
	if err == repository.ErrStatusConflict {
		return nil, errors.NewInvalidOrderState(
			"invalid status transition from %s to %s", previousStatus, newStatus)
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, order)
	s.publishStatusChanged(ctx, order, previousStatus)

	s.logger.Info("Order status updated", logging.Fields{
		"order_number": order.OrderNumber,
		"new_status":   order.Status,
	})

	return order, nil
}

// CancelOrder runs the cancellation saga. The cancellation is claimed first
// with a guarded status write, so of two concurrent cancel requests only one
// proceeds to release stock and refund; the refund is attempted at most once
// per successful payment. Individual release failures are logged and never
// block the rest of the cancellation.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanCancel() {
		return nil, errors.NewInvalidOrderState("cannot cancel order in %s status", order.Status)
	}

	previousStatus := order.Status
	order, err = s.orderRepo.UpdateStatus(ctx, orderID, previousStatus, models.OrderStatusCancelled)
	if err == repository.ErrStatusConflict {
		return nil, errors.NewInvalidOrderState("cannot cancel order in %s status", previousStatus)
	}
	if err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if err := s.inventoryClient.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			// Best-effort compensation: the release is idempotent and retried
			// out-of-band by the inventory side.
			compensationFailuresTotal.Inc()
			s.logger.Error("Failed to release stock during cancellation", logging.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
				"error":      err.Error(),
			})
		}
	}

	if order.PaymentID != nil {
		result, err := s.paymentClient.Refund(ctx, *order.PaymentID)
		if err == nil && result.Status == models.PaymentStatusRefunded {
			refunded, err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled, models.OrderStatusRefunded)
			if err != nil {
				s.logger.Error("Refund succeeded but status update failed", logging.Fields{
					"order_id": order.ID,
					"error":    err.Error(),
				})
			} else {
				order = refunded
			}
		} else {
			// The cancellation stands; money reconciliation happens out-of-band.
			compensationFailuresTotal.Inc()
			s.logger.Error("Failed to refund payment for cancelled order", logging.Fields{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
				"payment_id":   *order.PaymentID,
			})
		}
	}

	s.invalidateCache(ctx, order)
	s.publishCancelled(ctx, order)
	ordersCancelledTotal.Inc()

	s.logger.Info("Order cancelled", logging.Fields{
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})

	return order, nil
}

// ConfirmPayment applies an asynchronous payment confirmation from the
// message bus. A second confirmation, or one racing the synchronous pay
// path, loses the guarded write and is skipped.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID int64, paymentID int64) error {
	order, err := s.orderRepo.SetPayment(ctx, orderID, paymentID, models.OrderStatusPending, models.OrderStatusPaid)
	if err == repository.ErrStatusConflict {
		s.logger.Debug("Payment confirmation skipped, order no longer pending", logging.Fields{
			"order_id": orderID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	s.invalidateCache(ctx, order)
	s.publishStatusChanged(ctx, order, models.OrderStatusPending)
	paymentsTotal.WithLabelValues("completed").Inc()
	return nil
}

// GetOrder retrieves an order by internal id, read-through cached.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	if s.config.Features.EnableOrderCaching {
		if order, err := s.orderCache.Get(ctx, orderID); err == nil && order != nil {
			return order, nil
		}
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.cacheOrder(ctx, order)
	return order, nil
}

// GetOrderByNumber retrieves an order by its client-visible order number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetByOrderNumber(ctx, orderNumber)
}

// GetUserOrders retrieves a page of a user's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64, limit, offset int) (*models.OrderPage, error) {
	if s.config.Features.EnableOrderCaching && offset == 0 {
		if orders, err := s.orderCache.GetByUserID(ctx, userID); err == nil && orders != nil {
			return &models.OrderPage{Orders: orders, Total: len(orders), Limit: limit}, nil
		}
	}

	filter := &models.OrderListFilter{UserID: &userID, Limit: limit, Offset: offset}
	page, err := s.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.config.Features.EnableOrderCaching && offset == 0 {
		s.orderCache.SetByUserID(ctx, userID, page.Orders)
	}

	return page, nil
}

// ListOrders retrieves a page of orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, filter *models.OrderListFilter) (*models.OrderPage, error) {
	if err := ValidateOrderListFilter(filter); err != nil {
		return nil, err
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.OrderPage{
		Orders: orders,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// compensateReservations releases every reservation made so far by this saga
// invocation, in the order they were made. Failures are logged and counted;
// compensation never aborts.
func (s *OrderService) compensateReservations(ctx context.Context, reserved []reservation) {
	if len(reserved) == 0 {
		return
	}

	compensationsTotal.Inc()
	s.logger.Warn("Rolling back stock reservations", logging.Fields{
		"reserved_count": len(reserved),
	})

	for _, res := range reserved {
		if err := s.inventoryClient.ReleaseStock(ctx, res.productID, res.quantity); err != nil {
			compensationFailuresTotal.Inc()
			s.logger.Error("Failed to release stock", logging.Fields{
				"product_id": res.productID,
				"quantity":   res.quantity,
				"error":      err.Error(),
			})
		}
	}
}

func (s *OrderService) cacheOrder(ctx context.Context, order *models.Order) {
	if !s.config.Features.EnableOrderCaching {
		return
	}
	if err := s.orderCache.Set(ctx, order); err != nil {
		s.logger.Warn("Failed to cache order", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
	s.orderCache.InvalidateByUserID(ctx, order.UserID)
}

func (s *OrderService) invalidateCache(ctx context.Context, order *models.Order) {
	if !s.config.Features.EnableOrderCaching {
		return
	}
	s.orderCache.Delete(ctx, order.ID)
	s.orderCache.InvalidateByUserID(ctx, order.UserID)
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order) {
	if !s.config.Features.EnableOrderEvents {
		return
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.Warn("Failed to publish order created event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	if !s.config.Features.EnableOrderEvents {
		return
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order, previous); err != nil {
		s.logger.Warn("Failed to publish status change event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *OrderService) publishCancelled(ctx context.Context, order *models.Order) {
	if !s.config.Features.EnableOrderEvents {
		return
	}
	reason := fmt.Sprintf("order %s cancelled", order.OrderNumber)
	if err := s.eventPublisher.PublishOrderCancelled(ctx, order, reason); err != nil {
		s.logger.Warn("Failed to publish order cancelled event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

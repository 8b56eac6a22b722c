package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopmesh/orders-service/internal/errors"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
// Items are stored as a JSONB column on the orders row, so the aggregate is
// written and read atomically without a join.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger,
	}
}

var _ OrderRepository = (*PostgresOrderRepository)(nil)

const orderColumns = `
	id, order_number, user_id, items, total_amount, status,
	shipping_address, payment_id, notes, created_at, updated_at
`

// Create persists a new order aggregate in one insert.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.logger.Debug("Creating new order", logging.Fields{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
	})

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	query := `
		INSERT INTO orders (
			order_number, user_id, items, total_amount, status,
			shipping_address, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err = r.db.QueryRowContext(ctx, query,
		order.OrderNumber,
		order.UserID,
		itemsJSON,
		order.TotalAmount,
		order.Status,
		order.ShippingAddress,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{
			"order_number": order.OrderNumber,
			"user_id":      order.UserID,
			"error":        err.Error(),
		})
		return nil, err
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount.String(),
	})

	return order, nil
}

// GetByID retrieves an order by its internal identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.queryOrder(ctx, query, id)
}

// GetByOrderNumber retrieves an order by its client-visible order number.
func (r *PostgresOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	return r.queryOrder(ctx, query, orderNumber)
}

// UpdateStatus applies a guarded status transition. The WHERE clause re-checks
// the status the caller validated against, so two concurrent mutations of the
// same order cannot both win.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, expectedStatus, newStatus models.OrderStatus) (*models.Order, error) {
	r.logger.Debug("Updating order status", logging.Fields{
		"order_id":   id,
		"from":       expectedStatus,
		"new_status": newStatus,
	})

	query := `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, expectedStatus, newStatus, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	if err := r.checkGuardedWrite(ctx, id, result); err != nil {
		return nil, err
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": newStatus,
	})

	return r.GetByID(ctx, id)
}

// SetPayment stores the payment id and moves the order to its paid status in
// one guarded write.
func (r *PostgresOrderRepository) SetPayment(ctx context.Context, id int64, paymentID int64, expectedStatus, newStatus models.OrderStatus) (*models.Order, error) {
	r.logger.Debug("Recording payment on order", logging.Fields{
		"order_id":   id,
		"payment_id": paymentID,
	})

	query := `
		UPDATE orders
		SET payment_id = $3, status = $4, updated_at = $5
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, expectedStatus, paymentID, newStatus, time.Now())
	if err != nil {
		r.logger.Error("Failed to record payment", logging.Fields{
			"order_id":   id,
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := r.checkGuardedWrite(ctx, id, result); err != nil {
		return nil, err
	}

	r.logger.Info("Payment recorded", logging.Fields{
		"order_id":   id,
		"payment_id": paymentID,
		"new_status": newStatus,
	})

	return r.GetByID(ctx, id)
}

// List retrieves a page of orders matching the filter, newest first.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	baseQuery := ` FROM orders WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		baseQuery += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	selectQuery := "SELECT " + orderColumns + baseQuery +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	r.logger.Debug("Orders listed", logging.Fields{
		"count": len(orders),
		"total": total,
	})

	return orders, total, nil
}

func (r *PostgresOrderRepository) queryOrder(ctx context.Context, query string, arg interface{}) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{"error": err.Error()})
		return nil, err
	}
	return order, nil
}

// checkGuardedWrite distinguishes a missing order from a lost optimistic race
// when a guarded update touched no rows.
func (r *PostgresOrderRepository) checkGuardedWrite(ctx context.Context, id int64, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return errors.ErrNotFound
	}

	r.logger.Warn("Guarded status update lost a concurrent race", logging.Fields{"order_id": id})
	return ErrStatusConflict
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON []byte
	var paymentID sql.NullInt64
	var shippingAddress, notes sql.NullString

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&itemsJSON,
		&order.TotalAmount,
		&order.Status,
		&shippingAddress,
		&paymentID,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}

	if shippingAddress.Valid {
		order.ShippingAddress = shippingAddress.String
	}
	if notes.Valid {
		order.Notes = notes.String
	}
	if paymentID.Valid {
		order.PaymentID = &paymentID.Int64
	}

	return &order, nil
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/models"
	"github.com/shopmesh/orders-service/internal/service"
)

const (
	paymentCompleted = "payment.completed"
	paymentFailed    = "payment.failed"
	paymentRefunded  = "payment.refunded"
)

// PaymentEvent is the payment service's event wire format.
type PaymentEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	OrderID   int64     `json:"order_id"`
	PaymentID int64     `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentConsumer consumes payment events and applies them to orders.
// Confirmations arriving after the synchronous pay path already moved the
// order lose the guarded write and are dropped, so redelivery is safe.
type PaymentConsumer struct {
	reader       *kafka.Reader
	orderService *service.OrderService
	logger       *logging.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewPaymentConsumer creates a consumer for the payments topic.
func NewPaymentConsumer(cfg config.KafkaConfig, orderService *service.OrderService) *PaymentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 1e6,
		MaxWait:  time.Second,
	})

	return &PaymentConsumer{
		reader:       reader,
		orderService: orderService,
		logger:       logging.NewLogger("payment-consumer"),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start consumes payment events until Stop is called or the context is
// cancelled. It blocks; run it in its own goroutine.
func (c *PaymentConsumer) Start(ctx context.Context) {
	defer close(c.doneCh)

	c.logger.Info("Payment consumer started")

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to read payment event", logging.Fields{
				"error": err.Error(),
			})
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// Stop shuts the consumer down and waits for the read loop to exit.
func (c *PaymentConsumer) Stop() error {
	close(c.stopCh)
	err := c.reader.Close()
	<-c.doneCh
	c.logger.Info("Payment consumer stopped")
	return err
}

func (c *PaymentConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to decode payment event", logging.Fields{
			"offset": msg.Offset,
			"error":  err.Error(),
		})
		return
	}

	c.logger.Debug("Payment event received", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	})

	switch event.Type {
	case paymentCompleted:
		if err := c.orderService.ConfirmPayment(ctx, event.OrderID, event.PaymentID); err != nil {
			c.logger.Error("Failed to apply payment confirmation", logging.Fields{
				"event_id": event.ID,
				"order_id": event.OrderID,
				"error":    err.Error(),
			})
		}
	case paymentRefunded:
		if _, err := c.orderService.UpdateOrderStatus(ctx, event.OrderID, models.OrderStatusRefunded); err != nil {
			c.logger.Error("Failed to apply refund", logging.Fields{
				"event_id": event.ID,
				"order_id": event.OrderID,
				"error":    err.Error(),
			})
		}
	case paymentFailed:
		// The order stays PENDING and can be retried; nothing to apply.
		c.logger.Info("Payment failed for order", logging.Fields{
			"event_id": event.ID,
			"order_id": event.OrderID,
		})
	default:
		c.logger.Warn("Unknown payment event type", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
	}
}

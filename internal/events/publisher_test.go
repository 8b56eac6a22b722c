package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopmesh/orders-service/internal/middleware"
	"github.com/shopmesh/orders-service/internal/models"
)

func TestNewEvent(t *testing.T) {
	order := &models.Order{
		ID:          7,
		OrderNumber: "ORD-20240101120000-DEADBEEF",
		UserID:      42,
	}

	data, _ := json.Marshal(order)
	event := newEvent(context.Background(), EventTypeOrderCreated, order, data)

	if event.ID == "" {
		t.Error("Expected a generated event id")
	}
	if event.Type != EventTypeOrderCreated {
		t.Errorf("Expected type %s, got %s", EventTypeOrderCreated, event.Type)
	}
	if event.OrderID != 7 || event.UserID != 42 {
		t.Errorf("Unexpected event identity: order=%d user=%d", event.OrderID, event.UserID)
	}
	if event.OrderNumber != order.OrderNumber {
		t.Errorf("Expected order number %s, got %s", order.OrderNumber, event.OrderNumber)
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected a timestamp")
	}
	if event.CorrelationID != "" {
		t.Errorf("Expected empty correlation id without request context, got %q", event.CorrelationID)
	}

	other := newEvent(context.Background(), EventTypeOrderCreated, order, data)
	if other.ID == event.ID {
		t.Error("Expected distinct event ids")
	}
}

func TestNewEvent_CorrelationIDFromContext(t *testing.T) {
	order := &models.Order{ID: 7, OrderNumber: "ORD-20240101120000-DEADBEEF", UserID: 42}

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-abc-123")
	event := newEvent(ctx, EventTypeOrderCancelled, order, nil)

	if event.CorrelationID != "req-abc-123" {
		t.Errorf("Expected correlation id req-abc-123, got %q", event.CorrelationID)
	}
}

func TestPaymentEventDecoding(t *testing.T) {
	payload := []byte(`{"id":"evt-1","type":"payment.completed","order_id":7,"payment_id":77,"timestamp":"2024-01-01T12:00:00Z"}`)

	var event PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("Failed to decode payment event: %v", err)
	}

	if event.Type != paymentCompleted {
		t.Errorf("Expected type payment.completed, got %s", event.Type)
	}
	if event.OrderID != 7 || event.PaymentID != 77 {
		t.Errorf("Unexpected identifiers: order=%d payment=%d", event.OrderID, event.PaymentID)
	}
}

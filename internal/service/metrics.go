package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created and persisted as PENDING.",
	})

	ordersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders moved to CANCELLED or REFUNDED by the cancellation saga.",
	})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_payments_total",
		Help: "Payment attempts by result.",
	}, []string{"result"})

	compensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_compensations_total",
		Help: "Create-order sagas that rolled back stock reservations.",
	})

	compensationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_compensation_failures_total",
		Help: "Release or refund calls that failed during a compensating step.",
	})
)

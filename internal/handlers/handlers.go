package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/errors"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/service"
)

// Handlers holds all HTTP handlers for the orders service.
type Handlers struct {
	orderService *service.OrderService
	config       *config.Config
	db           *sql.DB
	logger       *logging.Logger
}

// NewHandlers creates a new handlers instance. db may be nil, in which case
// the readiness probe skips the database check.
func NewHandlers(orderService *service.OrderService, cfg *config.Config, db *sql.DB) *Handlers {
	return &Handlers{
		orderService: orderService,
		config:       cfg,
		db:           db,
		logger:       logging.NewLogger("handlers"),
	}
}

func handleError(c *gin.Context, err error) {
	if errors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	switch e := err.(type) {
	case *errors.ValidationError:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   e.Message,
			"details": e.Details,
		})
	case *errors.InvalidOrderStateError:
		c.JSON(http.StatusConflict, gin.H{"error": e.Message})
	case *errors.ProductUnavailableError:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.InsufficientStockError:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.PaymentFailedError:
		c.JSON(http.StatusPaymentRequired, gin.H{"error": e.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

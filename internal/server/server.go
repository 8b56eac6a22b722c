package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/handlers"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/middleware"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	handlers   *handlers.Handlers
	httpServer *http.Server
	logger     *logging.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(cfg *config.Config, h *handlers.Handlers) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		logger:   logging.NewLogger("server"),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orders := s.router.Group("/api/orders")
	{
		orders.POST("", s.handlers.CreateOrder)
		orders.GET("", s.handlers.ListOrders)
		orders.GET("/:id", s.handlers.GetOrder)
		orders.GET("/number/:orderNumber", s.handlers.GetOrderByNumber)
		orders.GET("/user/:userId", s.handlers.GetUserOrders)
		orders.GET("/status/:status", s.handlers.GetOrdersByStatus)
		orders.PUT("/:id/status", s.handlers.UpdateOrderStatus)
		orders.POST("/:id/pay", s.handlers.PayOrder)
		orders.POST("/:id/cancel", s.handlers.CancelOrder)
	}
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logging.Fields{
		"addr": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

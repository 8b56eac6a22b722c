package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/shopmesh/orders-service/internal/clients"
	"github.com/shopmesh/orders-service/internal/config"
	"github.com/shopmesh/orders-service/internal/events"
	"github.com/shopmesh/orders-service/internal/handlers"
	"github.com/shopmesh/orders-service/internal/logging"
	"github.com/shopmesh/orders-service/internal/repository"
	"github.com/shopmesh/orders-service/internal/server"
	"github.com/shopmesh/orders-service/internal/service"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger("orders-service")
	logger.Info("Starting orders-service", logging.Fields{
		"port": cfg.Server.Port,
	})

	db, err := initDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	orderRepo := repository.NewPostgresOrderRepository(db, logging.NewLogger("order-repository"))
	orderCache := repository.NewRedisOrderCache(cfg.Redis)

	inventoryClient := clients.NewHTTPInventoryClient(cfg.InventoryService, logging.NewLogger("inventory-client"))
	paymentClient := clients.NewHTTPPaymentClient(cfg.PaymentService, logging.NewLogger("payment-client"))

	eventPublisher := events.NewKafkaPublisher(cfg.Kafka, logging.NewLogger("event-publisher"))
	defer eventPublisher.Close()

	orderService := service.NewOrderService(
		orderRepo,
		orderCache,
		inventoryClient,
		paymentClient,
		eventPublisher,
		cfg,
	)

	h := handlers.NewHandlers(orderService, cfg, db)
	srv := server.NewServer(cfg, h)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", logging.Fields{"error": err.Error()})
		}
	}()

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	paymentConsumer := events.NewPaymentConsumer(cfg.Kafka, orderService)
	go paymentConsumer.Start(consumerCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelConsumer()
	if err := paymentConsumer.Stop(); err != nil {
		logger.Error("Payment consumer shutdown error", logging.Fields{"error": err.Error()})
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config, logger *logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/velora-store/velora-backend-go/cart"
	"github.com/velora-store/velora-backend-go/config"
	"github.com/velora-store/velora-backend-go/database"
	"github.com/velora-store/velora-backend-go/events"
	"github.com/velora-store/velora-backend-go/handlers"
	"github.com/velora-store/velora-backend-go/metrics"
	"github.com/velora-store/velora-backend-go/orders"
	"github.com/velora-store/velora-backend-go/payment"
	"github.com/velora-store/velora-backend-go/routes"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	// Initialize Echo
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Connect to MongoDB
	if err := database.ConnectDB(); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Cart persistence: Redis when configured, process memory otherwise
	var cartStorage cart.Storage
	if addr := config.GetEnv("REDIS_ADDR", ""); addr != "" {
		cartStorage = cart.NewRedisStorage(addr)
		log.Println("🛒 Cart storage: redis at " + addr)
	} else {
		cartStorage = cart.NewMemoryStorage()
		log.Println("🛒 Cart storage: in-memory (set REDIS_ADDR to persist carts)")
	}

	gateway, err := payment.NewStripeGateway(config.GetEnv("STRIPE_SECRET_KEY", ""))
	if err != nil {
		log.Fatal("Failed to initialize payment gateway:", err)
	}

	storeMetrics := metrics.New()
	repo := orders.NewMongoRepository(database.Orders())
	orderSvc := orders.NewService(repo, gateway, storeMetrics)

	// Lifecycle event fan-out; runs without Kafka when no brokers are set
	publisher := events.NewKafkaPublisher(
		config.GetEnvList("KAFKA_BROKERS"),
		config.GetEnv("KAFKA_ORDER_TOPIC", "velora.orders"),
	)
	listener := events.NewOrderEventListener(database.Orders(), publisher)
	if err := listener.Start(); err != nil {
		// Change streams need a replica set; the store still works
		// without the event fan-out.
		log.Printf("⚠️ Order event listener disabled: %v", err)
	}

	h := handlers.New(orderSvc, cartStorage, gateway, listener, database.Products(), database.Customers())

	// Setup routes
	routes.SetupRoutes(e, h, storeMetrics)

	// Start the server
	port := config.GetEnv("PORT", "3000")
	fmt.Printf("Server starting on port %s...\n", port)
	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	listener.Stop()
	if err := publisher.Close(); err != nil {
		log.Printf("Failed to close event publisher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}

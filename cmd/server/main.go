package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gersemi/storefront/internal"
	"github.com/gersemi/storefront/internal/events"
	"github.com/gersemi/storefront/internal/handler/storefront"
	"github.com/gersemi/storefront/internal/middleware"
	"github.com/gersemi/storefront/internal/repository"
	"github.com/gersemi/storefront/internal/router"
	"github.com/gersemi/storefront/internal/routes"
	"github.com/gersemi/storefront/internal/service"
	"github.com/gersemi/storefront/internal/telemetry"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	// Business metrics
	telemetry.InitBusinessMetrics()

	// Event publisher; without a broker configured, events are dropped
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NatsUrl != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NatsUrl)
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsUrl)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS publisher initialized")
	}

	// Initialize services
	catalogService := service.NewCatalogService(store, logger)
	cartService := service.NewCartService(store, logger, cfg.Store.Currency)
	mergeService := service.NewMergeService(store, logger)
	orderService := service.NewOrderService(store, logger, publisher, cfg.Store.CourierFeeCents)
	checkoutService := service.NewCheckoutService(store, cartService, orderService, logger)

	// Expired-session sweeper
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := store.DeleteExpiredSessions(ctx); err != nil {
				logger.Warn("session sweep failed", "error", err)
			} else if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
		}
	}()

	// Router and routes
	secure := cfg.Env == "prod"
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)
	routes.Register(r, routes.Handlers{
		Products: storefront.NewProductHandler(catalogService),
		Cart:     storefront.NewCartHandler(cartService, mergeService, secure),
		Checkout: storefront.NewCheckoutHandler(checkoutService, cartService),
		Orders:   storefront.NewOrderHandler(orderService),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

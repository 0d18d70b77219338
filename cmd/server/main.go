/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the kitchen stock server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present), then environment and flags
  2. Build the zap logger
  3. Initialize SQLite store and open the kitchen session
  4. Optionally seed the house menus into an empty database
  5. Start the stock monitor
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (environment variable in brackets):
  -port              HTTP server port (default: 8080) [KITCHEN_PORT]
  -db                SQLite database path (default: kitchen.db) [KITCHEN_DB]
                     Use ":memory:" for in-memory database
  -log-level         debug, info, warn, error [KITCHEN_LOG_LEVEL]
  -log-format        json or console [KITCHEN_LOG_FORMAT]
  -vat-rounding      half-away-from-zero or half-even [KITCHEN_VAT_ROUNDING]
  -seed              seed house menus into an empty database [KITCHEN_SEED]
  -monitor-interval  stock monitor interval, 0 disables [KITCHEN_MONITOR_INTERVAL]
  -low-stock         low-stock threshold (default: 5) [KITCHEN_LOW_STOCK]
  -cors-origins      comma-separated CORS origins [KITCHEN_CORS_ORIGINS]

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the stock monitor
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database and demo data
  ./server -db="./data/kitchen.db" -seed

  # Run with in-memory database and readable logs
  ./server -db=":memory:" -seed -log-format=console

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/kitchen-engine/api"
	"github.com/warp/kitchen-engine/menu"
	"github.com/warp/kitchen-engine/restaurant"
	"github.com/warp/kitchen-engine/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to read .env", zap.Error(envErr))
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	session, err := restaurant.Open(ctx, store, restaurant.Options{
		Logger:   logger.Named("kitchen"),
		Rounding: cfg.Rounding,
	})
	if err != nil {
		return fmt.Errorf("open kitchen: %w", err)
	}

	if cfg.Seed && len(session.Menus()) == 0 && len(session.Ingredients()) == 0 {
		menus := menu.HouseMenus()
		if err := session.Seed(ctx, menus, menu.HouseStock(menus)); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("seeded house menus", zap.Int("menus", len(menus)))
	}

	handler := api.NewHandler(session, logger.Named("api"))

	if cfg.MonitorInterval > 0 {
		monitor := api.NewStockMonitor(session, logger.Named("monitor"))
		monitor.CheckInterval = cfg.MonitorInterval
		monitor.Threshold = cfg.LowStockThreshold
		monitor.Start()
		defer monitor.Stop()
		handler.Monitor = monitor
	}

	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.AllowedOrigins})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("db", cfg.DBPath),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

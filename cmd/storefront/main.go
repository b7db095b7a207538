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

	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/api"
	"github.com/analytica/storefront/internal/api/handlers"
	"github.com/analytica/storefront/internal/backend"
	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/logging"
	"github.com/analytica/storefront/internal/navigation"
	"github.com/analytica/storefront/internal/repository"
	"github.com/analytica/storefront/internal/repository/postgres"
	"github.com/analytica/storefront/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Flow audit log
	repos := repository.NewLogRepositories(logger)
	if cfg.AuditFlow {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to audit database", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			logger.Fatal("Failed to prepare audit schema", zap.Error(err))
		}
		repos = postgres.NewRepositories(db, logger)
		logger.Info("Recording order flow events in Postgres")
	}

	// Backend clients
	timeout := cfg.Services.Timeout
	cookie := cfg.Session.CookieName
	shopping := backend.NewShoppingClient(backend.NewClient("shopping", cfg.Services.ShoppingURL, cookie, timeout, logger))
	checkout := backend.NewCheckoutClient(backend.NewClient("checkout", cfg.Services.CheckoutURL, cookie, timeout, logger))
	payment := backend.NewPaymentClient(backend.NewClient("payment", cfg.Services.PaymentURL, cookie, timeout, logger))
	auth := backend.NewAuthClient(backend.NewClient("auth", cfg.Services.AuthURL, cookie, timeout, logger))

	// Services
	counter := service.NewCartCounter()
	guard := service.NewInFlight()
	deps := &handlers.Deps{
		Carts:      service.NewCartService(shopping, shopping, counter, logger),
		Flows:      service.NewOrderFlowService(service.NewOrderBuilder(cfg.Order), checkout, payment, repos.FlowEvent, guard, logger),
		Counter:    counter,
		Guard:      guard,
		Nav:        navigation.NewController(cfg.Order.ConfirmationDelay),
		Auth:       auth,
		CookieName: cookie,
		Logger:     logger,
	}

	router, err := api.NewRouter(cfg, deps, logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	// No WriteTimeout: the cart count stream stays open
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Storefront starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down storefront")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

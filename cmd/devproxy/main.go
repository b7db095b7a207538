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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/config"
	"github.com/analytica/storefront/internal/devproxy"
	"github.com/analytica/storefront/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	routes := devproxy.DefaultRoutes(cfg)
	proxy, err := devproxy.New(routes, cfg.Proxy.StorefrontURL, logger)
	if err != nil {
		logger.Fatal("Invalid proxy routes", zap.Error(err))
	}

	for _, r := range routes {
		logger.Info("Route", zap.String("prefix", r.Prefix), zap.String("service", r.Service), zap.String("target", r.Target))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Proxy.Port,
		Handler:           devproxy.NewRouter(proxy, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Dev proxy starting",
			zap.String("port", cfg.Proxy.Port),
			zap.String("storefront", cfg.Proxy.StorefrontURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Proxy forced to shutdown", zap.Error(err))
	}
}

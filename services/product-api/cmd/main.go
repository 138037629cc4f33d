package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/services/product-api/app"
	"github.com/nimeshabuddhika/product-api/services/product-api/configs"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logger before config so config failures are reported in the same format
	env := os.Getenv("APP_ENV")
	logger, err := pkg.NewLogger(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if pkg.IsProductionEnv(env) {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := app.NewApp(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", zap.Error(err))
		return 1
	}
	defer cleanup()

	// Start a server in goroutine to allow signal handling
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Product API started", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	// Timeout context for draining in-flight requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		return 1
	}
	return 0
}

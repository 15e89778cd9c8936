package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/pokr/internal/config"
	"github.com/xiaot623/pokr/internal/hub"
	"github.com/xiaot623/pokr/internal/policy"
	"github.com/xiaot623/pokr/internal/repository"
	"github.com/xiaot623/pokr/internal/service"
	transport "github.com/xiaot623/pokr/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger(os.Stdout)

	logger.Info("starting pokr",
		"env", cfg.Env,
		"http_port", cfg.HTTPPort,
		"db_driver", cfg.Database.Driver,
	)

	// Initialize store
	db, err := repository.NewStore(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize policy engine
	policyEngine, err := policy.NewDefaultEngine(ctx)
	if err != nil {
		logger.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	// Initialize hub
	h := hub.NewHub(hub.WithSendBuffer(cfg.WebSocket.SendBuffer), hub.WithLogger(logger))
	go h.Run(ctx)

	// Initialize service
	svc := service.New(db, h, policyEngine, logger)

	server := transport.NewServer(cfg, svc, h, logger)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}()

	logger.Info("api started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("pokr stopped")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/marketfeed/internal/bus"
	"github.com/rickgao/marketfeed/internal/config"
	"github.com/rickgao/marketfeed/internal/database"
	"github.com/rickgao/marketfeed/internal/gateway"
	"github.com/rickgao/marketfeed/internal/relay"
	"github.com/rickgao/marketfeed/internal/store"
	"github.com/rickgao/marketfeed/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/gateway.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gateway",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Database.Validate(); err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.NewPostgres(pool, store.DefaultWriteTimeout, logger)
	if err := st.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Connect to the event bus
	b := bus.NewRedis(bus.RedisConfig{
		Addr:     cfg.Bus.Addr,
		Password: cfg.Bus.Password,
		DB:       cfg.Bus.DB,
	}, logger)
	defer b.Close()

	if err := b.Ping(ctx); err != nil {
		logger.Warn("bus unreachable at startup, live streams will fail until it recovers", "error", err)
	}

	// Start the server
	srv := gateway.NewServer(gateway.Config{
		Addr:         fmt.Sprintf(":%d", cfg.Gateway.Port),
		WriteTimeout: cfg.Gateway.WriteTimeout,
		Relay: relay.Config{
			SubscribeAttempts: cfg.Gateway.SubscribeAttempts,
			SubscribeBaseWait: cfg.Gateway.SubscribeBaseWait,
			WriteTimeout:      store.DefaultWriteTimeout,
		},
	}, b, st, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start gateway", "error", err)
		os.Exit(1)
	}

	logger.Info("gateway running",
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Gateway.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("gateway shutdown failed", "error", err)
	}

	logger.Info("gateway stopped")
}

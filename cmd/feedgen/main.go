package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/marketfeed/internal/bus"
	"github.com/rickgao/marketfeed/internal/config"
	"github.com/rickgao/marketfeed/internal/generator"
	"github.com/rickgao/marketfeed/internal/price"
	"github.com/rickgao/marketfeed/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/feedgen.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting feedgen",
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

	logger.Info("configuration loaded",
		"symbols", len(cfg.Symbols),
		"bus_addr", cfg.Bus.Addr,
	)

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

	// Connect to the event bus
	b := bus.NewRedis(bus.RedisConfig{
		Addr:     cfg.Bus.Addr,
		Password: cfg.Bus.Password,
		DB:       cfg.Bus.DB,
	}, logger)
	defer b.Close()

	// Seed the price process
	proc := price.NewProcess(cfg.Generator.Seed, cfg.Generator.MaxTradeVolume)
	for _, s := range cfg.Symbols {
		if err := proc.AddSymbol(s.Symbol, s.StartPrice, s.Volatility); err != nil {
			logger.Error("failed to add symbol", "symbol", s.Symbol, "error", err)
			os.Exit(1)
		}
	}

	// Start the generator
	gen := generator.New(generator.Config{
		TradeProbability:  *cfg.Generator.TradeProbability,
		MinCycleDelay:     cfg.Generator.MinCycleDelay,
		MaxCycleDelay:     cfg.Generator.MaxCycleDelay,
		ReconnectBaseWait: cfg.Generator.ReconnectBaseWait,
		ReconnectMaxWait:  cfg.Generator.ReconnectMaxWait,
		Seed:              cfg.Generator.Seed,
	}, proc, b, logger)

	if err := gen.Start(ctx); err != nil {
		logger.Error("failed to start generator", "error", err)
		os.Exit(1)
	}

	logger.Info("feedgen running")

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gen.Stop(shutdownCtx); err != nil {
		logger.Error("generator shutdown failed", "error", err)
	}

	stats := gen.Stats()
	logger.Info("feedgen stopped",
		"cycles", stats.Cycles,
		"quotes_published", stats.QuotesPublished,
		"trades_published", stats.TradesPublished,
		"publish_errors", stats.PublishErrors,
	)
}

// Package main is the entry point for the swap pool bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/sbswap/swappool/business/bot"
	botDI "github.com/sbswap/swappool/business/bot/di"
	"github.com/sbswap/swappool/business/exchange"
	"github.com/sbswap/swappool/business/pool"
	poolDI "github.com/sbswap/swappool/business/pool/di"
	"github.com/sbswap/swappool/business/supply"
	"github.com/sbswap/swappool/internal/config"
	"github.com/sbswap/swappool/internal/health"
	"github.com/sbswap/swappool/internal/logger"
	"github.com/sbswap/swappool/internal/metrics"
	"github.com/sbswap/swappool/internal/monolith"
	"github.com/sbswap/swappool/internal/web"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("swappool %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting swap pool bot",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Start health check server on port 8081
	healthServer := health.NewServer(8081, version)
	healthServer.RegisterCheck("database", func(ctx context.Context) (bool, string) {
		if err := mono.DB().PingContext(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	// Define modules in dependency order
	modules := []monolith.Module{
		&pool.Module{},     // Must be first - owns the balances
		&supply.Module{},   // Depends on pool for the ledger
		&exchange.Module{}, // Depends on pool and supply
		&bot.Module{},      // Depends on everything - owns the gateway
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	// Start modules
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	// Live price ticker, fed by ledger balance changes
	if cfg.Web.Enabled {
		ticker := web.NewTicker(cfg.Web.Port, log)
		if err := ticker.Start(); err != nil {
			log.Warn(ctx, "failed to start price ticker", "error", err)
		} else {
			log.Info(ctx, "price ticker started", "port", cfg.Web.Port)
			defer ticker.Stop(ctx)

			ledger := poolDI.GetLedger(mono.Services())
			engine := poolDI.GetEngine(mono.Services())
			ledger.Subscribe(func(asset string, balance decimal.Decimal) {
				from, ok := ledger.AssetByName(asset)
				if !ok {
					return
				}
				to := ledger.Other(from)
				price := engine.SpotPrice(balance, ledger.GetBalance(to.Name()), to)
				ticker.Publish(web.PriceUpdate{
					Asset:   asset,
					Price:   price.String(),
					Balance: balance.String(),
					Time:    time.Now().Unix(),
				})
			})
		}
	}

	log.Info(ctx, "all modules started, listening for pool traffic")

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")

	if err := botDI.GetGateway(mono.Services()).Close(); err != nil {
		log.Error(ctx, "error closing gateway", "error", err)
	}

	return nil
}

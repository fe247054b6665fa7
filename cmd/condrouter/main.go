// Package main is the entry point for the conditional market router.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/condrouter/business/blockchain"
	blockchainDI "github.com/fd1az/condrouter/business/blockchain/di"
	"github.com/fd1az/condrouter/business/markets"
	marketsDI "github.com/fd1az/condrouter/business/markets/di"
	"github.com/fd1az/condrouter/business/positions"
	"github.com/fd1az/condrouter/business/resolution"
	"github.com/fd1az/condrouter/business/trading"
	"github.com/fd1az/condrouter/internal/apm"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/health"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/metrics"
	"github.com/fd1az/condrouter/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	serve := flag.Bool("serve", false, "Serve health and metrics until interrupted")
	runDemo := flag.Bool("demo", true, "Create markets, route trades, resolve and redeem on the simulated ledger")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("condrouter %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *serve, *runDemo); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, serve, runDemo bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, traceID)
	log.Info(ctx, "starting condrouter",
		"version", version,
		"environment", cfg.App.Environment,
	)

	traceProvider, err := apm.NewTraceProvider(cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := traceProvider.Stop(); err != nil {
			log.Warn(ctx, "trace provider shutdown", "error", err)
		}
	}()

	meterProvider, err := metrics.NewProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&positions.Module{},
		&resolution.Module{},
		&markets.Module{},
		&blockchain.Module{},
		&trading.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if serve {
		return runServer(ctx, cfg, mono, meterProvider, log)
	}
	if runDemo {
		return newDemo(mono).run(ctx)
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, mono monolith.Monolith, mp *metrics.Provider, log *logger.Logger) error {
	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version, log)
	healthServer.RegisterCheck("clock", func(ctx context.Context) (bool, string) {
		clock := blockchainDI.GetClock(mono.Services())
		if _, err := clock.Now(ctx); err != nil {
			return false, err.Error()
		}
		return true, string(clock.Source())
	})
	healthServer.RegisterCheck("markets", func(ctx context.Context) (bool, string) {
		list, err := marketsDI.GetRepository(mono.Services()).List(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, fmt.Sprintf("%d markets", len(list))
	})
	healthServer.Start()
	defer shutdown(log, "health server", healthServer.Stop)

	mp.Serve()

	log.Info(ctx, "serving, waiting for shutdown signal")
	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return nil
}

func shutdown(log logger.LoggerInterface, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn(ctx, name+" shutdown", "error", err)
	}
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/axgate/llmgw/internal/infrastructure/auth"
	"github.com/axgate/llmgw/internal/infrastructure/breaker"
	"github.com/axgate/llmgw/internal/infrastructure/cache"
	"github.com/axgate/llmgw/internal/infrastructure/config"
	"github.com/axgate/llmgw/internal/infrastructure/dispatcher"
	"github.com/axgate/llmgw/internal/infrastructure/logger"
	"github.com/axgate/llmgw/internal/infrastructure/persistence"
	"github.com/axgate/llmgw/internal/infrastructure/ratelimit"
	"github.com/axgate/llmgw/internal/infrastructure/resolver"
	"github.com/axgate/llmgw/internal/infrastructure/selector"
	"github.com/axgate/llmgw/internal/infrastructure/sticky"
	"github.com/axgate/llmgw/internal/infrastructure/telemetry"
	httpserver "github.com/axgate/llmgw/internal/interfaces/http"

	"github.com/axgate/llmgw/internal/domain/entity"
)

const (
	appName    = "llmgw"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("%s v%s\n", appName, appVersion)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	log, err := logger.NewLogger(logger.Config{Level: "info", Format: "json", OutputPath: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting gateway", zap.String("name", appName), zap.String("version", appVersion))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, stop, err := build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to wire gateway", zap.Error(err))
	}

	if err := srv.Start(ctx); err != nil {
		log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	close(stop)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Gateway stopped successfully")
}

// build wires every collaborator in dependency order — db, repositories,
// cache, breaker/rate-limiter/stickiness, resolver, selector strategies,
// telemetry, dispatcher, then the HTTP server — and returns a channel the
// caller closes on shutdown to stop the rate limiter's background loop.
func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*httpserver.Server, chan struct{}, error) {
	db, err := persistence.NewDBConnection(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	models := persistence.NewGormModelRepository(db)
	bindings := persistence.NewGormBindingRepository(db)
	providers := persistence.NewGormProviderRepository(db)
	authKeys := persistence.NewGormAuthKeyRepository(db)
	chatLogs := persistence.NewGormChatLogRepository(db)
	chatIO := persistence.NewGormChatIORepository(db)

	store, err := buildCacheStore(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("build cache store: %w", err)
	}

	health := breaker.NewStore(cfg.Breaker.ToBreakerConfig())

	stop := make(chan struct{})
	limiter := ratelimit.NewLimiter(log, stop)
	locks := sticky.New(store, log)

	res := resolver.New(models, bindings, providers, store, health)
	strategies := map[entity.Strategy]selector.Strategy{
		entity.StrategyLottery: selector.Lottery{},
		entity.StrategyRotor:   selector.NewRotor(),
	}

	metrics := telemetry.NewMetrics()
	var tracer *telemetry.Tracer
	if cfg.Telemetry.TracingEnabled {
		tracer = telemetry.NewTracer(telemetry.NewTracerProvider())
	}
	sink := telemetry.NewSink(chatLogs, chatIO, metrics, log).WithIOTruncateBytes(cfg.Telemetry.IOTruncateBytes)

	httpClient := &http.Client{Timeout: 120 * time.Second}
	disp := dispatcher.New(res, strategies, health, limiter, locks, httpClient, sink, metrics, tracer, log)

	authenticator := auth.New(authKeys, log)

	srv := httpserver.NewServer(httpserver.Config{
		Host: cfg.Gateway.Host,
		Port: cfg.Gateway.Port,
		Mode: "production",
	}, authenticator, disp, models, metrics, log)

	return srv, stop, nil
}

func buildCacheStore(cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisStore(cfg.Cache.Redis, log)
	}
	return cache.NewMemoryStore(), nil
}

func printUsage() {
	fmt.Printf(`%s v%s

Usage:
  gateway           Start the gateway server (default)
  gateway version   Show version
  gateway help      Show this help

Environment:
  LLMGW_*           Configuration overrides (see config.yaml)
`, appName, appVersion)
}

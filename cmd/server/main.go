package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brigade/internal/api"
	"brigade/internal/audit"
	"brigade/internal/cache"
	"brigade/internal/catalog"
	"brigade/internal/config"
	"brigade/internal/database"
	"brigade/internal/monitoring"
	"brigade/internal/order"
	"brigade/internal/station"
	"brigade/internal/workflow"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.Open(cfg.Database.Dialect, cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	if cfg.Seed {
		if err := database.Seed(db); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	}

	// Cache store: Redis when configured, in-process otherwise
	var store cache.Store
	if cfg.Redis.Addr != "" {
		redisStore := cache.NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
		if err := redisStore.Ping(ctx); err != nil {
			log.Fatal("failed to reach redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		store = redisStore
		log.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = cache.NewMemory()
		log.Info("using in-memory cache")
	}

	// Audit recorder: AMQP when a broker is configured
	var recorder audit.Recorder
	if cfg.Broker.URL != "" {
		publisher, err := audit.DialAMQP(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			log.Fatal("failed to connect to broker", zap.Error(err))
		}
		defer publisher.Close()
		recorder = publisher
		log.Info("audit events published to broker", zap.String("exchange", cfg.Broker.Exchange))
	} else {
		recorder = audit.NewLogRecorder(log)
	}

	metrics := monitoring.NewMetrics()

	// Core services
	accessor := catalog.NewAccessor(db, store, cfg.Cache.ProductTTL, log, metrics)
	registry := station.NewRegistry(db, store, cfg.Cache.StationTTL, log)
	deriver := workflow.NewDeriver(accessor, registry, log)
	orders := order.NewService(db, accessor, deriver, recorder, store, cfg.Cache.StatsTTL, log, metrics)

	server := api.NewServer(orders, registry, log)

	// Metrics server on its own port
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		log.Info("starting metrics server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, metrics.Handler()); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}

		cancel()
	}()

	log.Info("starting API server", zap.Int("port", cfg.Server.Port))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("API server error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

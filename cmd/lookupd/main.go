package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lookup-labs/doclookup/internal/cache"
	"github.com/lookup-labs/doclookup/internal/index"
	"github.com/lookup-labs/doclookup/internal/ingest"
	"github.com/lookup-labs/doclookup/internal/server"
	"github.com/lookup-labs/doclookup/pkg/config"
	"github.com/lookup-labs/doclookup/pkg/health"
	"github.com/lookup-labs/doclookup/pkg/kafka"
	"github.com/lookup-labs/doclookup/pkg/logger"
	"github.com/lookup-labs/doclookup/pkg/metrics"
	"github.com/lookup-labs/doclookup/pkg/middleware"
	pkgredis "github.com/lookup-labs/doclookup/pkg/redis"
	"github.com/lookup-labs/doclookup/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting lookup service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := index.NewStore()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var lookupCache *cache.LookupCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		err := resilience.Retry(ctx, "redis-connect", resilience.RetryConfig{}, func() error {
			var connErr error
			redisClient, connErr = pkgredis.NewClient(cfg.Redis)
			return connErr
		})
		if err != nil {
			slog.Warn("redis unavailable, lookup caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			lookupCache = cache.New(redisClient, cfg.Redis)
			slog.Info("lookup cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	if cfg.Kafka.Enabled {
		handler := ingest.HandleEvent(store, lookupCache, m)
		kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.DocumentTopic, handler)
		ingestConsumer := ingest.New(kafkaConsumer)
		go func() {
			if err := ingestConsumer.Start(ctx); err != nil {
				slog.Error("ingest consumer error", "error", err)
			}
		}()
		slog.Info("kafka ingestion enabled",
			"topic", cfg.Kafka.DocumentTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", store.DocCount(), store.TermCount()),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusUp, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(store, lookupCache, m)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", h.Register)
	mux.HandleFunc("DELETE /api/v1/documents", h.Remove)
	mux.HandleFunc("GET /api/v1/lookup", h.Lookup)
	mux.HandleFunc("POST /api/v1/index/clear", h.Clear)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("lookup service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("lookup service stopped")
}

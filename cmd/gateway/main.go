package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hookbridge/hookbridge/internal/backend"
	"github.com/hookbridge/hookbridge/internal/callback"
	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/deliverylog"
	"github.com/hookbridge/hookbridge/internal/gateway"
	"github.com/hookbridge/hookbridge/internal/httputil"
	"github.com/hookbridge/hookbridge/internal/ratelimit"
	"github.com/hookbridge/hookbridge/internal/telemetry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/gateway.yaml", "path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configPath, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	cfg := loader.Config()

	// Rebuild the logger with the configured level and format.
	logger = newLogger(cfg.Telemetry)
	slog.SetDefault(logger)

	// Connect to PostgreSQL (optional delivery audit log)
	var dbPool *pgxpool.Pool
	if cfg.Database.Host != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			logger.Warn("failed to create database pool (delivery log disabled)", "error", err)
		} else if err := pool.Ping(context.Background()); err != nil {
			logger.Warn("database not reachable (delivery log disabled)", "error", err)
			pool.Close()
		} else {
			logger.Info("database connected")
			dbPool = pool
			defer pool.Close()
		}
	}

	// Connect to Redis (optional rate limiting)
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (rate limiting fails open)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	metrics := telemetry.NewMetrics()
	invoker := backend.NewHTTPClient(cfg.Backend)
	loader.OnReload(func() {
		// Endpoint settings are re-read per request; the backend client
		// keeps its connection pool across reloads.
		logger.Info("configuration reloaded")
	})

	handler := gateway.NewHandler(
		loader.Config,
		invoker,
		callback.NewSender(logger, metrics),
		deliverylog.NewStore(dbPool),
		metrics,
	)

	limiter := ratelimit.NewLimiter(rdb)
	quota := ratelimit.NewQuotaTracker(rdb)

	// Router setup
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Unknown paths are a caller mistake, not a missing resource.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteRoutingError(w, w.Header().Get("X-Request-ID"),
			"Invalid path. Use /chatflow/<app_id>, /workflow/<app_id>, /single-chatflow or /single-workflow")
	})

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter, quota, func() *config.RateLimitConfig {
			rl := loader.Config().RateLimit
			return &rl
		}, metrics))
		r.HandleFunc("/chatflow/{app_id}", handler.Serve)
		r.HandleFunc("/workflow/{app_id}", handler.Serve)
		r.HandleFunc("/single-chatflow", handler.Serve)
		r.HandleFunc("/single-workflow", handler.Serve)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func newLogger(cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func generateRequestID() string {
	now := time.Now()
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}

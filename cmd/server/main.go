package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	specpkg "github.com/docqr/docqr/api"
	"github.com/docqr/docqr/internal/api"
	"github.com/docqr/docqr/internal/auth"
	"github.com/docqr/docqr/internal/config"
	"github.com/docqr/docqr/internal/database"
	"github.com/docqr/docqr/internal/metrics"
	"github.com/docqr/docqr/internal/ratelimit"
)

const redisPingTimeout = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool()); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenCodec(cfg.TokenSigningKey)
	if !tokens.Signed() {
		slog.Warn("TOKEN_SIGNING_KEY not set; bearer tokens are accepted for any active user id")
	}

	userRepo := auth.NewRepository(db.Pool())
	authService := auth.NewService(userRepo, tokens, cfg.BcryptCost)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := authService.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("failed to bootstrap admin user", "error", err)
			os.Exit(1)
		}
	}

	store, closeStore := newRateStore(ctx, cfg)
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:           db,
		RateStore:          store,
		AuthService:        authService,
		UserRepo:           userRepo,
		Metrics:            metrics.New(registry),
		OpenAPISpec:        specpkg.OpenAPISpec,
		Version:            cfg.Version,
		Production:         cfg.IsProduction(),
		AppURL:             cfg.AppURL,
		FrontendURL:        cfg.FrontendURL,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StoreTimeout:       cfg.StoreTimeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting docqr server", "port", cfg.Port, "version", cfg.Version, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newRateStore returns the Redis store when REDIS_URL is set and reachable,
// otherwise an in-memory store with its janitor running until ctx ends.
func newRateStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func()) {
	if cfg.RedisURL != "" {
		store, rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err == nil {
			slog.Info("rate limiter using redis")
			return store, func() { _ = rdb.Close() }
		}
		slog.Warn("redis unavailable; rate limiter falling back to memory", "error", err)
	}

	store := ratelimit.NewMemoryStore()
	store.StartJanitor(ctx, cfg.RateLimitJanitorInterval)
	slog.Info("rate limiter using memory store")
	return store, func() {}
}

func connectRedis(ctx context.Context, url string) (*ratelimit.RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	store := ratelimit.NewRedisStore(rdb)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := store.Ping(pingCtx); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("pinging redis: %w", err)
	}

	return store, rdb, nil
}

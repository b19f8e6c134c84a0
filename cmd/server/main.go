package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/chronicles/internal/account"
	"github.com/sujalbistaa/chronicles/internal/analytics"
	"github.com/sujalbistaa/chronicles/internal/blog"
	"github.com/sujalbistaa/chronicles/internal/config"
	"github.com/sujalbistaa/chronicles/internal/db"
	routes "github.com/sujalbistaa/chronicles/internal/http"
	"github.com/sujalbistaa/chronicles/internal/logging"
	"github.com/sujalbistaa/chronicles/internal/metrics"
	"github.com/sujalbistaa/chronicles/internal/sentiment"
	"github.com/sujalbistaa/chronicles/internal/store"
	"github.com/sujalbistaa/chronicles/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Database
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	slog.Info("Running database migrations...")
	if err := db.Migrate(database); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	st := store.NewGorm(database)

	// 2. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 3. Analytics cache
	cache, closeCache := newCache(ctx, cfg)
	defer closeCache()
	stats := analytics.NewService(st, cache, cfg.AnalyticsCacheTTL, m)

	// 4. WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// 5. Services
	blogs := blog.NewService(st, sentiment.NewClassifier(),
		blog.WithMetrics(m),
		blog.WithNotifier(blog.Notifiers{hub, stats}),
	)
	env := &routes.Env{
		Blogs:     blogs,
		Accounts:  account.NewDirectory(st),
		Analytics: stats,
		Store:     st,
		Metrics:   m,
	}

	// 6. Router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(ctx, router, env, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		AdminToken: cfg.AdminToken,
		RateLimit:  rate.Limit(cfg.WriteRateLimit),
		RateBurst:  cfg.WriteRateBurst,
		Hub:        hub,
		Gatherer:   reg,
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}

	slog.Info("Server exiting")
}

// newCache returns a redis-backed cache when REDIS_URL is set and reachable,
// otherwise an in-process one.
func newCache(ctx context.Context, cfg *config.Config) (analytics.Cache, func()) {
	noop := func() {}
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, using in-memory analytics cache")
		return analytics.NewMemoryCache(clockwork.NewRealClock()), noop
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("Invalid REDIS_URL, using in-memory analytics cache", "error", err)
		return analytics.NewMemoryCache(clockwork.NewRealClock()), noop
	}

	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis unreachable, using in-memory analytics cache", "error", err)
		_ = rdb.Close()
		return analytics.NewMemoryCache(clockwork.NewRealClock()), noop
	}

	slog.Info("Analytics cache backed by redis", "addr", opts.Addr)
	return analytics.NewRedisCache(rdb, "chronicles:analytics:"), func() { _ = rdb.Close() }
}

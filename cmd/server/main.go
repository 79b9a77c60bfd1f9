package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/id"
	"github.com/aidanHorne978/Automated-Cypress-Testing/common/llm"
	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
	"github.com/aidanHorne978/Automated-Cypress-Testing/common/otel"
	"github.com/aidanHorne978/Automated-Cypress-Testing/core/config"
	"github.com/aidanHorne978/Automated-Cypress-Testing/core/db"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/browser"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/generation"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/middleware"
	httprouter "github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/router"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/ratelimit"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/service"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "cypressgen starting", "env", cfg.Env, "model", cfg.OpenAI.Model)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	generationStore, cleanup, err := setupStore(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up generation store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	limiter, err := setupLimiter(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up rate limiter", "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.New(llm.Config{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.OpenAI.Model,
		MaxTokens: cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	capturer := browser.NewCapturer(browser.Config{
		NavTimeout:  cfg.Browser.NavTimeout,
		MaxElements: cfg.Browser.MaxElements,
	})

	services := &service.Services{
		Generation: service.NewGenerationService(generation.NewGenerator(llmClient), generationStore, llmClient.Model()),
		Snapshots:  capturer,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, limiter)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation holds the connection for several model round trips.
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// setupStore picks postgres when DATABASE_URL is set and falls back to the
// in-memory store otherwise.
func setupStore(ctx context.Context, cfg config.Config) (store.GenerationStore, func(), error) {
	if !cfg.DBEnabled() {
		slog.InfoContext(ctx, "no database configured, history kept in memory")
		return store.NewMemoryStore(0), func() {}, nil
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}

	pg := store.NewPostgresStore(database.Pool())
	if err := pg.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	slog.InfoContext(ctx, "database connected")
	return pg, database.Close, nil
}

// setupLimiter picks redis when REDIS_URL is set so the window survives
// restarts and is shared across replicas.
func setupLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, error) {
	limitCfg := ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	}

	if !cfg.RedisEnabled() {
		slog.InfoContext(ctx, "no redis configured, rate limiting per process")
		return ratelimit.NewMemoryLimiter(limitCfg), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "redis connected")
	return ratelimit.NewRedisLimiter(client, limitCfg), nil
}

func setupRouter(cfg config.Config, services *service.Services, limiter ratelimit.Limiter) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		IsProduction: cfg.IsProduction(),
		Limiter:      limiter,
	})

	return router
}

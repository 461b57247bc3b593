package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/math-practice/internal/api"
	"github.com/terra-clan/math-practice/internal/bkt"
	"github.com/terra-clan/math-practice/internal/cleanup"
	"github.com/terra-clan/math-practice/internal/config"
	"github.com/terra-clan/math-practice/internal/feedback"
	"github.com/terra-clan/math-practice/internal/llm"
	"github.com/terra-clan/math-practice/internal/practice"
	"github.com/terra-clan/math-practice/internal/sections"
	"github.com/terra-clan/math-practice/internal/services"
	"github.com/terra-clan/math-practice/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting math-practice",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"sections_dir", cfg.Sections.Dir,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	registry := services.NewRegistry()

	repo, err := newRepository(initCtx, cfg, registry)
	if err != nil {
		slog.Error("failed to create repository", "error", err)
		os.Exit(1)
	}

	// Optional feedback cache
	var cache feedback.Cache = feedback.NopCache{}
	if cfg.Redis.Address != "" {
		redisProvider, err := services.NewRedisProvider(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to create redis provider", "error", err)
			os.Exit(1)
		}
		registry.Register("redis", redisProvider)
		cache = feedback.NewRedisCache(redisProvider.Client())
		slog.Info("feedback cache enabled", "address", cfg.Redis.Address, "ttl", cfg.Feedback.CacheTTL)
	}

	// AI backend
	openaiProvider := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	provider := llm.NewBulkheadProvider(openaiProvider, cfg.LLM.MaxConcurrent, cfg.LLM.Timeout)
	slog.Info("ai backend configured",
		"base_url", cfg.LLM.BaseURL,
		"model", openaiProvider.DefaultModel(),
		"max_concurrent", cfg.LLM.MaxConcurrent,
	)

	loader := sections.NewLoader(cfg.Sections.Dir, cfg.Sections.Extensions)
	slog.Info("section folder configured", "dir", loader.Dir(), "extensions", loader.Extensions())

	manager := practice.NewManager(
		loader,
		repo,
		bkt.NewClassifier(nil),
		feedback.NewService(provider, cache, cfg.Feedback.CacheTTL),
		practice.Options{
			DefaultAPIKey: cfg.LLM.APIKey,
			// the provider's model after its own defaulting
			DefaultModel: openaiProvider.DefaultModel(),
		},
	)

	// Initial load; GET /exercises reloads again on every read
	if _, err := manager.Reload(initCtx); err != nil {
		slog.Warn("initial exercise load failed", "error", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval, cfg.Cleanup.SessionMaxAge)
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, manager, registry, cfg.Timer)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}
	if err := registry.CloseAll(); err != nil {
		slog.Error("service registry close error", "error", err)
	}

	slog.Info("math-practice stopped")
}

// newRepository builds the configured store. Postgres also runs migrations and
// registers a health check provider.
func newRepository(ctx context.Context, cfg *config.Config, registry *services.Registry) (storage.Repository, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		slog.Info("using in-memory storage")
		return storage.NewMemoryRepository(), nil
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:      cfg.Database.DSN,
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.RunMigrations(ctx, repo.Pool(), storage.Migrations(cfg.Database.MigrationsDir)); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("database connected successfully")

	postgresProvider, err := services.NewPostgresProvider(ctx, cfg.Database.DSN)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to create postgres provider: %w", err)
	}
	registry.Register("postgres", postgresProvider)

	if version, err := postgresProvider.ServerVersion(ctx); err == nil {
		slog.Info("postgres server", "version", version)
	}

	return repo, nil
}

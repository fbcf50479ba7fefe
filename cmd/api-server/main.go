// Package main API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"livro-ai-api/internal/application/generation"
	"livro-ai-api/internal/config"
	"livro-ai-api/internal/domain/repository"
	"livro-ai-api/internal/infrastructure/llm"
	"livro-ai-api/internal/infrastructure/persistence/memory"
	"livro-ai-api/internal/infrastructure/persistence/postgres"
	redisinfra "livro-ai-api/internal/infrastructure/persistence/redis"
	"livro-ai-api/internal/interfaces/http/handler"
	"livro-ai-api/internal/interfaces/http/middleware"
	"livro-ai-api/internal/interfaces/http/router"
	"livro-ai-api/pkg/logger"
	"livro-ai-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-server",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
		"storage_backend", cfg.Storage.Backend,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 仓储：按配置选择 postgres 或 memory 后端，上层行为一致
	var (
		userRepo repository.UserRepository
		bookRepo repository.BookRepository
		pgClient *postgres.Client
	)
	switch cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		pgClient, err = postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			logger.Fatal(ctx, "failed to connect postgres", err)
		}
		defer pgClient.Close()
		if err := pgClient.AutoMigrate(); err != nil {
			logger.Fatal(ctx, "failed to migrate schema", err)
		}
		userRepo = postgres.NewUserRepository(pgClient)
		bookRepo = postgres.NewBookRepository(pgClient)
	case config.StorageBackendMemory:
		userRepo = memory.NewUserStore()
		bookRepo = memory.NewBookStore()
	}

	// Redis：缓存与限流；memory 后端下连接失败时降级为直读
	var (
		cache       *redisinfra.Cache
		limiter     middleware.RateLimiter
		redisClient *redisinfra.Client
	)
	redisClient, err = redisinfra.NewClient(&cfg.Cache.Redis)
	if err != nil {
		if cfg.Storage.Backend == config.StorageBackendPostgres {
			logger.Fatal(ctx, "failed to connect redis", err)
		}
		log.Warn("redis unavailable, cache and rate limit disabled", "error", err)
	} else {
		defer redisClient.Close()
		cache = redisinfra.NewCache(redisClient)
		limiter = redisinfra.NewRateLimiter(redisClient)
	}

	// 生成编排
	factory := llm.NewEinoFactory(cfg)
	sessions := generation.NewManager(factory, cfg.LLM.DefaultProvider)
	orchestrator := generation.NewOrchestrator(sessions)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg.Security.JWT, userRepo, orchestrator),
		Book:      handler.NewBookHandler(bookRepo, cache, orchestrator),
		Workspace: handler.NewWorkspaceHandler(orchestrator),
		Health:    handler.NewHealthHandler(pgClient, redisClient),
	}

	r := router.New(cfg, handlers, limiter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

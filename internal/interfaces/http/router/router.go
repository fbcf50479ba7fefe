// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"livro-ai-api/internal/config"
	"livro-ai-api/internal/interfaces/http/handler"
	"livro-ai-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Auth      *handler.AuthHandler
	Book      *handler.BookHandler
	Workspace *handler.WorkspaceHandler
	Health    *handler.HealthHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.RateLimiter
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}

	r.engine.Use(middleware.Auth(middleware.AuthConfig{
		Secret:    r.cfg.Security.JWT.Secret,
		Issuer:    r.cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
	}))

	r.engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:           r.cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: r.cfg.Security.RateLimit.RequestsPerSecond,
	}, r.limiter))
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.handlers.Auth.Register)
			auth.POST("/login", r.handlers.Auth.Login)
			auth.POST("/refresh", r.handlers.Auth.RefreshToken)
			auth.POST("/logout", r.handlers.Auth.Logout)
		}

		v1.GET("/users/me", r.handlers.Auth.Me)
		v1.GET("/genres", r.handlers.Workspace.ListGenres)

		books := v1.Group("/books")
		{
			books.GET("", r.handlers.Book.List)
			books.POST("", r.handlers.Book.Save)
			books.GET("/:id", r.handlers.Book.Get)
			books.DELETE("/:id", r.handlers.Book.Delete)
			books.POST("/:id/load", r.handlers.Book.Load)
		}

		workspace := v1.Group("/workspace")
		{
			workspace.GET("", r.handlers.Workspace.Workspace)
			workspace.GET("/render", r.handlers.Workspace.Render)
			workspace.POST("/reset", r.handlers.Workspace.Reset)
			workspace.POST("/generate", r.handlers.Workspace.Generate)
			workspace.POST("/continue", r.handlers.Workspace.Continue)
			workspace.POST("/expand", r.handlers.Workspace.Expand)
			workspace.POST("/dialogue", r.handlers.Workspace.ImproveDialogue)
			workspace.POST("/organize", r.handlers.Workspace.Organize)
		}
	}
}

// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"symptom-advisor-bot/internal/config"
	"symptom-advisor-bot/internal/interfaces/http/handler"
	"symptom-advisor-bot/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Health  *handler.HealthHandler
	Webhook *handler.WebhookHandler
	Advice  *handler.AdviceHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.KeyLimiter
}

// New 创建路由器；limiter 为 nil 时调试接口不限流
func New(cfg *config.Config, handlers Handlers, limiter middleware.KeyLimiter) *Router {
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

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

func (r *Router) setupRoutes() {
	if h := r.handlers.Health; h != nil {
		r.engine.GET("/health", h.Health)
		r.engine.GET("/ready", h.Ready)
		r.engine.GET("/live", h.Live)
	}

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	if h := r.handlers.Webhook; h != nil {
		r.engine.POST("/webhook", h.Webhook)
	}

	if h := r.handlers.Advice; h != nil {
		var limiter middleware.KeyLimiter
		if r.cfg.Security.RateLimit.Enabled {
			limiter = r.limiter
		}
		RegisterDebugRoutes(r.engine, h,
			middleware.CORS(r.cfg.Security.CORS),
			middleware.RateLimit(limiter),
		)
	}
}

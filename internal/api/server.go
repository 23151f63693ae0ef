package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router wraps a configured Gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
}

// Deps carries everything the HTTP layer needs.
type Deps struct {
	// Updates receives every decoded Telegram update.
	Updates updateHandler
	// Cache backs the stats endpoints.
	Cache cacheSource
	// WebhookSecret is the path segment Telegram must present on
	// POST /tg/:secret. Empty means the webhook route rejects everything.
	WebhookSecret string
	// Version is reported on GET /.
	Version string
}

// NewRouter constructs a Router with the full middleware chain and all routes
// registered. Middleware order:
//  1. Recovery — panic → 500
//  2. Tracing — trace context per request
//  3. RequestLogger — structured request/response logging
func NewRouter(deps Deps) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery(slog.Default()))
	engine.Use(Tracing("cvbot"))
	engine.Use(RequestLogger(slog.Default()))

	h := &Handler{updates: deps.Updates, cache: deps.Cache, secret: deps.WebhookSecret, version: deps.Version}

	engine.GET("/", h.Root)
	engine.GET("/healthz", h.Healthz)
	engine.GET("/cache", h.CacheInfo)
	engine.POST("/tg/:secret", h.Webhook)

	return &Router{engine: engine}
}

// Handler returns the underlying http.Handler for use with net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}

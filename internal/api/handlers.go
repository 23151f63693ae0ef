package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"

	"github.com/rumit2000/CVBotDevelop/internal/bot"
)

// updateHandler is the subset of *bot.Bot used by the HTTP handlers. Declaring
// it as an interface allows test doubles to be injected.
type updateHandler interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update) error
}

// cacheSource exposes the current bot cache; satisfied by *bot.Holder.
type cacheSource interface {
	Get() *bot.Cache
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	updates updateHandler
	cache   cacheSource
	secret  string
	version string
}

// Root handles GET /.
// It reports service identity plus a cheap cache summary, useful as a
// smoke-check target after deploy.
func (h *Handler) Root(c *gin.Context) {
	cache := h.cache.Get()
	c.JSON(http.StatusOK, gin.H{
		"service":      "cvbot",
		"status":       "ok",
		"version":      h.version,
		"about_cached": cache.About != "",
		"faq_topics":   len(cache.Topics),
	})
}

// Healthz handles GET /healthz — the liveness probe, always 200.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CacheInfo handles GET /cache.
// It exposes cache sizes for debugging stale-content reports.
func (h *Handler) CacheInfo(c *gin.Context) {
	cache := h.cache.Get()
	c.JSON(http.StatusOK, gin.H{
		"about_chars": len(cache.About),
		"faq_topics":  len(cache.Topics),
		"faq_replies": len(cache.Replies),
	})
}

// Webhook handles POST /tg/:secret.
// A wrong or unconfigured secret yields 403, a malformed body 400. Handler
// errors are logged but the response stays 200 — Telegram retries non-2xx
// deliveries, and a retry of a failing update would just fail again.
func (h *Handler) Webhook(c *gin.Context) {
	if h.secret == "" ||
		subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(h.secret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad update"})
		return
	}

	if err := h.updates.HandleUpdate(c.Request.Context(), upd); err != nil {
		slog.ErrorContext(c.Request.Context(), "update handling failed",
			"update_id", upd.UpdateID,
			"error", err,
		)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

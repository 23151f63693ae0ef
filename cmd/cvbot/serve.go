package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rumit2000/CVBotDevelop/internal/api"
	"github.com/rumit2000/CVBotDevelop/internal/bot"
	"github.com/rumit2000/CVBotDevelop/internal/clients"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run startup phases, then the Telegram webhook server",
	Long: `Serve runs the full startup sequence — diagnostics, sentinel cache
check, conditional ingestion — then starts the webhook HTTP server on the
configured port (default :8000) and blocks until SIGTERM or SIGINT.

A failing cache build logs a warning and the server starts anyway; a
failing listen is fatal.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer shutdownTelemetry()

	if _, err := app.startupPhases().Run(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	app.cache.Set(bot.LoadCache(cfg.Bootstrap.DataDir))

	tg, err := clients.NewTelegramClient(cfg.Telegram.Token, clients.NewCircuitBreaker("telegram"))
	if err != nil {
		return fmt.Errorf("connecting to telegram: %w", err)
	}

	// Webhook registration is best-effort: Telegram being briefly unreachable
	// must not keep the server from coming up.
	if url := webhookURL(); url != "" {
		if err := tg.SetWebhook(url); err != nil {
			slog.Warn("webhook registration failed", "err", err)
		} else {
			slog.Info("webhook registered", "url", url)
		}
		defer func() {
			_ = tg.DeleteWebhook(false)
		}()
	}

	router := api.NewRouter(api.Deps{
		Updates:       app.newBot(tg),
		Cache:         app.cache,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Version:       version,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("cvbot server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped cleanly")
	return nil
}

// webhookURL derives the Telegram webhook URL; empty when registration is
// not fully configured.
func webhookURL() string {
	if cfg.Telegram.BaseWebhookURL == "" || cfg.Telegram.WebhookSecret == "" {
		return ""
	}
	return strings.TrimRight(cfg.Telegram.BaseWebhookURL, "/") + "/tg/" + cfg.Telegram.WebhookSecret
}

func shutdownTelemetry() {
	if app.otelProvider == nil {
		return
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.otelProvider.Shutdown(shutCtx); err != nil {
		slog.Warn("OTEL shutdown error", "err", err)
	}
}

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

	"github.com/spf13/cobra"

	"github.com/rumit2000/CVBotDevelop/internal/bot"
	"github.com/rumit2000/CVBotDevelop/internal/clients"
)

var pollHealthPort int

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run startup phases, then a long-polling update loop",
	Long: `Poll runs the same startup sequence as serve, deletes any registered
webhook (long polling and webhook delivery are mutually exclusive), and
consumes updates via long polling until SIGTERM or SIGINT.

Useful for local development and for deployments without a public URL.
With --health-port a minimal /healthz endpoint is served alongside the
loop.`,
	RunE: runPoll,
}

func init() {
	pollCmd.Flags().IntVar(&pollHealthPort, "health-port", 0, "serve GET /healthz on this port (0 disables)")
}

func runPoll(cmd *cobra.Command, args []string) error {
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

	// Telegram refuses getUpdates while a webhook is registered.
	if err := tg.DeleteWebhook(true); err != nil {
		slog.Warn("webhook deletion failed", "err", err)
	}

	if pollHealthPort > 0 {
		startHealthServer(ctx, pollHealthPort)
	}

	b := app.newBot(tg)
	updates := tg.Updates(30, nil)

	slog.Info("polling for updates", "owner_id", cfg.Telegram.OwnerID)
	for {
		select {
		case <-ctx.Done():
			tg.StopUpdates()
			slog.Info("polling stopped cleanly")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.HandleUpdate(ctx, upd); err != nil {
				slog.ErrorContext(ctx, "update handling failed",
					"update_id", upd.UpdateID,
					"error", err,
				)
			}
		}
	}
}

// startHealthServer runs a liveness-only HTTP server next to the polling
// loop so orchestrators can still probe the process.
func startHealthServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("health endpoint listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("health endpoint failed", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
}

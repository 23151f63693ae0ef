package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Ingestor runs the data-preparation step that populates the sentinel
// caches. The in-process pipeline lives in internal/ingest; CommandIngestor
// shells out to an external program instead.
type Ingestor interface {
	Ingest(ctx context.Context) error
}

// CommandIngestor invokes ingestion as an external synchronous process. The
// exit code communicates success or failure; output is passed through to the
// operator's terminal.
type CommandIngestor struct {
	Command string
	Dir     string
	Timeout time.Duration
}

func (c *CommandIngestor) Ingest(ctx context.Context) error {
	fields := strings.Fields(c.Command)
	if len(fields) == 0 {
		return fmt.Errorf("empty ingest command")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ingest command %q: %w", c.Command, err)
	}
	return nil
}

// WarmCachePhase returns the conditional-ingestion phase. When every
// sentinel file exists the phase is skipped; otherwise ingestion runs
// exactly once. The phase is fail-open: an ingestion failure is reported to
// the runner, which logs a warning and proceeds to the server handoff, and
// the sentinel predicate is deliberately not re-checked afterwards.
func WarmCachePhase(checker ExistenceChecker, sentinels []string, locker Locker, ing Ingestor) Phase {
	return Phase{
		Name:   "warm-cache",
		Policy: Continue,
		Run: func(ctx context.Context) error {
			if CachesReady(checker, sentinels) {
				return Skip("cache detected — skipping ingestion")
			}

			slog.InfoContext(ctx, "no cache detected — running ingestion", "sentinels", sentinels)

			unlock, acquired, err := locker.TryLock(ctx)
			if err != nil {
				// A broken lock backend must not block startup.
				slog.WarnContext(ctx, "ingestion lock unavailable — proceeding without it", "error", err)
			} else if !acquired {
				return Skip("another replica holds the ingestion lock")
			} else {
				defer unlock()
			}

			return ing.Ingest(ctx)
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rumit2000/CVBotDevelop/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one-shot ingestion and exit",
	Long: `Ingest rebuilds the RAG index from the configured resume sources and
regenerates the About/FAQ caches, regardless of whether they already exist.

The command runs once, prints a JSON report to stdout, and exits 0 on
success or non-zero on failure.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Bootstrap.IngestTimeout)
	defer cancel()

	defer shutdownTelemetry()

	slog.Info("starting ingestion",
		"sources", cfg.RAG.Sources,
		"data_dir", cfg.Bootstrap.DataDir,
	)

	report, err := app.pipeline.Run(ctx)
	if err != nil {
		printIngestError(err)
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printIngestReport(report)
	slog.Info("ingestion completed successfully")
	return nil
}

func printIngestReport(report *ingest.Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stdout, `{"chunks":%d}`+"\n", report.Chunks)
	}
}

func printIngestError(runErr error) {
	result := map[string]string{"status": "error", "error": runErr.Error()}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		// Fallback to plain text if JSON encoding somehow fails.
		fmt.Fprintln(os.Stdout, `{"status":"error"}`)
	}
}

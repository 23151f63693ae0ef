package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rumit2000/CVBotDevelop/internal/bootstrap"
	"github.com/rumit2000/CVBotDevelop/internal/bot"
	"github.com/rumit2000/CVBotDevelop/internal/clients"
	"github.com/rumit2000/CVBotDevelop/internal/config"
	"github.com/rumit2000/CVBotDevelop/internal/index"
	"github.com/rumit2000/CVBotDevelop/internal/ingest"
	"github.com/rumit2000/CVBotDevelop/internal/rag"
	"github.com/rumit2000/CVBotDevelop/internal/telemetry"
)

// serverFramework is the dependency whose build info the diagnostics phase
// reports.
const serverFramework = "github.com/gin-gonic/gin"

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE and referenced by
// serve.go, ingest.go, and poll.go.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider

	store    *index.Store
	pipeline *ingest.Pipeline
	answerer *rag.Answerer
	cache    *bot.Holder
	locker   bootstrap.Locker
	ingestor bootstrap.Ingestor
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Creates the circuit-breaker-wrapped OpenAI client
//  3. Opens the sqlite index store and wires the ingestion pipeline
//  4. Wires the RAG answerer and the bot cache holder
//  5. Picks the ingestion lock (Redis when configured, no-op otherwise)
func buildAppContext(cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// OTEL is best-effort: a missing collector must never block startup.
	// When OTLPEndpoint is empty, telemetry is disabled entirely — this avoids
	// the SDK's 10s periodic-reader noise when no collector is running locally.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Info("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(
			context.Background(),
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			cfg.Telemetry.OTLPInsecure,
		)
		if err != nil {
			slog.Warn("OTEL provider init failed — telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	openai := clients.NewOpenAIClient(cfg.OpenAI, clients.NewCircuitBreaker("openai"))

	store, err := index.Open(cfg.RAG.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	app.store = store

	app.pipeline = ingest.NewPipeline(ingest.Options{
		DataDir:        cfg.Bootstrap.DataDir,
		Sources:        cfg.RAG.Sources,
		ChunkSize:      cfg.RAG.ChunkSize,
		ChunkOverlap:   cfg.RAG.ChunkOverlap,
		EmbeddingModel: cfg.OpenAI.EmbeddingModel,
	}, openai, openai, store)

	retriever := rag.NewRetriever(store, openai)
	app.answerer = rag.NewAnswerer(retriever, openai, cfg.RAG.TopK, cfg.RAG.MinSimilarity)

	app.cache = bot.NewHolder()

	if cfg.Bootstrap.Lock.Addr == "" {
		app.locker = bootstrap.NoopLocker{}
	} else {
		app.locker = bootstrap.NewRedisLocker(
			cfg.Bootstrap.Lock.Addr,
			cfg.Bootstrap.Lock.Password,
			cfg.Bootstrap.Lock.DB,
			cfg.Bootstrap.Lock.Key,
			cfg.Bootstrap.Lock.TTL,
		)
	}

	// An external ingest command overrides the in-process pipeline.
	if cfg.Bootstrap.IngestCommand != "" {
		app.ingestor = &bootstrap.CommandIngestor{
			Command: cfg.Bootstrap.IngestCommand,
			Timeout: cfg.Bootstrap.IngestTimeout,
		}
	} else {
		app.ingestor = app.pipeline
	}

	return app, nil
}

// newBot assembles the update dispatcher around the given sender.
func (a *AppContext) newBot(sender bot.Sender) *bot.Bot {
	return bot.New(sender, a.cache, a.answerer, a.pipeline, bot.Options{
		OwnerID:           a.cfg.Telegram.OwnerID,
		DataDir:           a.cfg.Bootstrap.DataDir,
		ResumePath:        a.cfg.Telegram.ResumePath,
		ResumeOnePagePath: a.cfg.Telegram.ResumeOnePagePath,
		LinkedInURL:       a.cfg.Telegram.LinkedInURL,
		ContactInfo:       a.cfg.Telegram.ContactInfo,
	})
}

// startupPhases is the warm-up sequence shared by serve and poll.
func (a *AppContext) startupPhases() *bootstrap.Runner {
	return bootstrap.NewRunner(
		bootstrap.DiagnosticsPhase(serverFramework),
		bootstrap.WarmCachePhase(
			bootstrap.OSChecker(),
			a.cfg.Bootstrap.SentinelPaths(),
			a.locker,
			a.ingestor,
		),
	)
}

// Package ingest builds the RAG index from the resume sources and generates
// the About/FAQ sentinel caches. It is the data-preparation step the
// bootstrapper invokes when the caches are missing.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rumit2000/CVBotDevelop/internal/index"
)

const (
	embedBatchSize  = 128
	embedGoroutines = 4
)

// Embedder produces one embedding vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer runs a single system+user chat completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options configures a Pipeline run.
type Options struct {
	DataDir        string
	Sources        []string
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
}

// Report is the machine-readable outcome of one run.
type Report struct {
	Chunks    int `json:"chunks"`
	Dim       int `json:"dim"`
	FAQTopics int `json:"faq_topics"`
}

// Pipeline is the in-process ingestion implementation. It satisfies
// bootstrap.Ingestor.
type Pipeline struct {
	opts     Options
	embedder Embedder
	complete Completer
	store    *index.Store
}

// NewPipeline wires an ingestion pipeline over the given collaborators.
func NewPipeline(opts Options, embedder Embedder, completer Completer, store *index.Store) *Pipeline {
	return &Pipeline{opts: opts, embedder: embedder, complete: completer, store: store}
}

// Ingest satisfies bootstrap.Ingestor.
func (p *Pipeline) Ingest(ctx context.Context) error {
	_, err := p.Run(ctx)
	return err
}

// Run executes the full pipeline: extract → chunk → embed → persist index →
// generate summary → write sentinel caches.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if err := os.MkdirAll(p.opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	chunks := p.collectChunks(ctx)

	embeddings, dim, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	meta := index.Meta{
		EmbeddingModel: p.opts.EmbeddingModel,
		BuiltAt:        time.Now().Unix(),
		Size:           len(chunks),
		Dim:            dim,
		Sources:        sourceSet(chunks),
	}
	if err := p.store.Replace(chunks, embeddings, meta); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}
	slog.InfoContext(ctx, "rag index built", "chunks", meta.Size, "dim", meta.Dim)

	fullText := joinChunkText(chunks)
	summary, err := GenerateSummary(ctx, p.complete, fullText)
	if err != nil {
		return nil, err
	}

	if err := WriteCaches(p.opts.DataDir, summary); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "caches written",
		"about_chars", len(summary.About),
		"faq_topics", len(summary.FAQ),
	)

	return &Report{Chunks: meta.Size, Dim: meta.Dim, FAQTopics: len(summary.FAQ)}, nil
}

// collectChunks extracts and chunks every readable source. Missing or
// unsupported sources degrade to warnings: an empty corpus is a valid
// (if useless) outcome, matching the fail-open posture of the whole step.
func (p *Pipeline) collectChunks(ctx context.Context) []index.Chunk {
	var all []index.Chunk
	for _, src := range p.opts.Sources {
		if _, err := os.Stat(src); err != nil {
			slog.WarnContext(ctx, "ingest source not found", "source", src)
			continue
		}
		chunks, err := extractChunks(src, p.opts.ChunkSize, p.opts.ChunkOverlap)
		if err != nil {
			slog.WarnContext(ctx, "ingest source skipped", "source", src, "error", err)
			continue
		}
		all = append(all, chunks...)
	}
	return all
}

// embedChunks embeds the corpus in batches, a few in flight at a time, and
// L2-normalises every vector so retrieval can use plain dot products.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []index.Chunk) ([][]float32, int, error) {
	if len(chunks) == 0 {
		return nil, 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vecs := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedGoroutines)

	for start := 0; start < len(texts); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := p.embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embedding batch at %d: %w", start, err)
			}
			for i, v := range batch {
				vecs[start+i] = index.Normalize(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return vecs, len(vecs[0]), nil
}

func joinChunkText(chunks []index.Chunk) string {
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Text
	}
	return strings.Join(parts, "\n\n")
}

func sourceSet(chunks []index.Chunk) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ch := range chunks {
		if !seen[ch.Source] {
			seen[ch.Source] = true
			out = append(out, ch.Source)
		}
	}
	return out
}

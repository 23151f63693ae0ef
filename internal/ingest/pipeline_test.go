package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumit2000/CVBotDevelop/internal/index"
)

// fakeEmbedder returns deterministic unit vectors.
type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 2} // norm 3 — easy to verify normalisation
	}
	return out, nil
}

func newTestPipeline(t *testing.T, dataDir string, sources []string, reply string) (*Pipeline, *fakeEmbedder) {
	t.Helper()

	store, err := index.Open(filepath.Join(dataDir, "rag_index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	emb := &fakeEmbedder{}
	p := NewPipeline(Options{
		DataDir:        dataDir,
		Sources:        sources,
		ChunkSize:      1200,
		ChunkOverlap:   200,
		EmbeddingModel: "text-embedding-3-small",
	}, emb, &fakeCompleter{reply: reply}, store)
	return p, emb
}

func TestPipeline_FullRun(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	src := filepath.Join(dataDir, "resume.txt")
	require.NoError(t, os.WriteFile(src, []byte("An engineer.\n\nBuilt things."), 0o644))

	reply := `{"about": "About text.", "faq": [{"q": "Skills?", "a": "Go."}]}`
	p, emb := newTestPipeline(t, dataDir, []string{src}, reply)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 3, report.Dim)
	assert.Equal(t, 1, report.FAQTopics)
	assert.Equal(t, 1, emb.calls)

	// Sentinel files must exist after a successful run.
	about, err := os.ReadFile(filepath.Join(dataDir, AboutCacheFile))
	require.NoError(t, err)
	assert.Equal(t, "About text.\n", string(about))

	raw, err := os.ReadFile(filepath.Join(dataDir, FAQCacheFile))
	require.NoError(t, err)
	var payload struct {
		Topics []FAQTopic `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Len(t, payload.Topics, 1)
	assert.Equal(t, "t01", payload.Topics[0].Key)
	assert.Equal(t, "Skills?", payload.Topics[0].Full)
	assert.Equal(t, "Go.", payload.Topics[0].Reply)

	// Index must hold the normalised embedding.
	chunks, vecs, meta, err := p.store.Load()
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.InDelta(t, 1.0/3.0, vecs[0][0], 1e-6)
	assert.Equal(t, 3, meta.Dim)
	assert.Equal(t, []string{src}, meta.Sources)
}

func TestPipeline_MissingSourceStillWritesCaches(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	reply := `{"about": "Sparse about.", "faq": []}`
	p, emb := newTestPipeline(t, dataDir, []string{filepath.Join(dataDir, "nope.pdf")}, reply)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)
	assert.Equal(t, 0, emb.calls)

	_, err = os.Stat(filepath.Join(dataDir, AboutCacheFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, FAQCacheFile))
	assert.NoError(t, err)
}

func TestPipeline_UnsupportedSourceSkipped(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	src := filepath.Join(dataDir, "resume.docx")
	require.NoError(t, os.WriteFile(src, []byte("binary"), 0o644))

	p, _ := newTestPipeline(t, dataDir, []string{src}, `{"about": "x", "faq": []}`)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Chunks)
}

func TestTopicsFromFAQ_TruncatesLabels(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("q", 100)
	topics := TopicsFromFAQ([]QA{{Q: long, A: "a"}})

	require.Len(t, topics, 1)
	assert.Equal(t, long, topics[0].Full)
	assert.Equal(t, maxTopicLabel, len([]rune(topics[0].Label)))
	assert.True(t, strings.HasSuffix(topics[0].Label, "…"))
}

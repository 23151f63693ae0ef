package rag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumit2000/CVBotDevelop/internal/index"
)

// fakeEmbedder returns a fixed vector for any input.
type fakeEmbedder struct {
	vec   []float32
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func newTestIndex(t *testing.T) *index.Store {
	t.Helper()

	store, err := index.Open(filepath.Join(t.TempDir(), "idx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	t.Parallel()

	store := newTestIndex(t)
	require.NoError(t, store.Replace(
		[]index.Chunk{
			{ID: "x", Source: "r.txt", Text: "x axis"},
			{ID: "y", Source: "r.txt", Text: "y axis"},
			{ID: "diag", Source: "r.txt", Text: "diagonal"},
		},
		[][]float32{
			{1, 0},
			{0, 1},
			{0.7071, 0.7071},
		},
		index.Meta{Size: 3, Dim: 2},
	))

	r := NewRetriever(store, &fakeEmbedder{vec: []float32{1, 0}})

	got, err := r.Retrieve(context.Background(), "anything", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].ID)
	assert.Equal(t, "diag", got[1].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-4)
}

func TestRetrieve_EmptyIndexSkipsEmbedder(t *testing.T) {
	t.Parallel()

	store := newTestIndex(t)
	emb := &fakeEmbedder{vec: []float32{1}}
	r := NewRetriever(store, emb)

	got, err := r.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, emb.calls)
}

func TestBuildContextBlock(t *testing.T) {
	t.Parallel()

	block := BuildContextBlock(" What skills? ", []Snippet{
		{Score: 0.91, Source: "data/resume.pdf", Page: 2, Text: "Go, SQL"},
		{Score: 0.5, Source: "notes.txt", Text: "misc"},
	})

	assert.Contains(t, block, "[1] resume.pdf, p. 2 (score=0.910)")
	assert.Contains(t, block, "[2] notes.txt (score=0.500)")
	assert.Contains(t, block, "Question: What skills?")
}

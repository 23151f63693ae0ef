package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "rag_index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_EmptyIndex(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	chunks, embeddings, meta, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Empty(t, embeddings)
	assert.Zero(t, meta.Size)
}

func TestStore_ReplaceAndLoad(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	chunks := []Chunk{
		{ID: "resume.pdf-p1-c1", Source: "data/resume.pdf", Page: 1, Text: "first"},
		{ID: "resume.pdf-p2-c1", Source: "data/resume.pdf", Page: 2, Text: "second"},
	}
	embeddings := [][]float32{{0.5, 0.25}, {-1, 2}}
	meta := Meta{EmbeddingModel: "text-embedding-3-small", BuiltAt: 1700000000, Size: 2, Dim: 2}

	require.NoError(t, s.Replace(chunks, embeddings, meta))

	gotChunks, gotEmb, gotMeta, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, chunks, gotChunks)
	assert.Equal(t, embeddings, gotEmb)
	assert.Equal(t, meta, gotMeta)
}

func TestStore_ReplaceOverwritesPreviousBuild(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	require.NoError(t, s.Replace(
		[]Chunk{{ID: "old", Source: "a.txt", Text: "old"}},
		[][]float32{{1}},
		Meta{Size: 1, Dim: 1},
	))
	require.NoError(t, s.Replace(
		[]Chunk{{ID: "new", Source: "b.txt", Text: "new"}},
		[][]float32{{2}},
		Meta{Size: 1, Dim: 1},
	))

	chunks, _, _, err := s.Load()
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new", chunks[0].ID)
}

func TestStore_CountMismatchRejected(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	err := s.Replace([]Chunk{{ID: "a", Source: "s", Text: "t"}}, nil, Meta{})
	assert.Error(t, err)
}

func TestStore_DumpAllText(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	require.NoError(t, s.Replace(
		[]Chunk{
			{ID: "c1", Source: "s", Text: "alpha"},
			{ID: "c2", Source: "s", Text: "beta"},
		},
		[][]float32{{1}, {1}},
		Meta{Size: 2, Dim: 1},
	))

	text, err := s.DumpAllText()
	require.NoError(t, err)
	assert.Equal(t, "alpha\n\nbeta", text)
}

func TestVectorRoundTrip(t *testing.T) {
	t.Parallel()

	vec := []float32{0, 1, -1, 0.333, 1e9}
	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
}

package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumit2000/CVBotDevelop/internal/index"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestIsEmptyAnswer(t *testing.T) {
	t.Parallel()

	assert.True(t, IsEmptyAnswer(""))
	assert.True(t, IsEmptyAnswer("   \n"))
	assert.True(t, IsEmptyAnswer("The resume does not mention this."))
	assert.True(t, IsEmptyAnswer("Sorry, I could not find that."))
	assert.True(t, IsEmptyAnswer("There is no specific information about salary."))
	assert.False(t, IsEmptyAnswer("20 years of embedded development."))
}

func answererFixture(t *testing.T, completer *fakeCompleter, minScore float32) *Answerer {
	t.Helper()

	store := newTestIndex(t)
	require.NoError(t, store.Replace(
		[]index.Chunk{{ID: "c1", Source: "r.txt", Text: "Go expert"}},
		[][]float32{{1, 0}},
		index.Meta{Size: 1, Dim: 2},
	))

	retriever := NewRetriever(store, &fakeEmbedder{vec: []float32{1, 0}})
	return NewAnswerer(retriever, completer, 5, minScore)
}

func TestAnswer_ReturnsModelReply(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "Go, mostly."}
	a := answererFixture(t, completer, 0.2)

	got, err := a.Answer(context.Background(), "What languages?")
	require.NoError(t, err)
	assert.Equal(t, "Go, mostly.", got)
	assert.Equal(t, 1, completer.calls)
}

func TestAnswer_LowSimilaritySkipsModel(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "should not be called"}
	a := answererFixture(t, completer, 1.5)

	got, err := a.Answer(context.Background(), "Unrelated?")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, completer.calls)
}

func TestAnswer_EmptyReplyHeuristic(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: "The resume does not mention this."}
	a := answererFixture(t, completer, 0.2)

	got, err := a.Answer(context.Background(), "Hobbies?")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnswer_CompleterErrorPropagates(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{err: errors.New("rate limited")}
	a := answererFixture(t, completer, 0.2)

	_, err := a.Answer(context.Background(), "Anything?")
	assert.Error(t, err)
}

// Package rag answers free-text questions against the indexed resume:
// embed the query, rank chunks by cosine similarity, and feed the best
// snippets to the chat model as context.
package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rumit2000/CVBotDevelop/internal/index"
)

// Embedder produces one embedding vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Snippet is one retrieved piece of context.
type Snippet struct {
	Score  float32
	ID     string
	Source string
	Page   int
	Text   string
}

// Retriever ranks indexed chunks against a query.
type Retriever struct {
	store    *index.Store
	embedder Embedder
}

// NewRetriever builds a Retriever over the index store.
func NewRetriever(store *index.Store, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns the topK most similar snippets, best first. An empty
// index yields an empty result without touching the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error) {
	chunks, embeddings, _, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	qvecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(qvecs) != 1 {
		return nil, fmt.Errorf("expected one query embedding, got %d", len(qvecs))
	}
	q := index.Normalize(qvecs[0])

	snippets := make([]Snippet, len(chunks))
	for i, ch := range chunks {
		snippets[i] = Snippet{
			Score:  index.Dot(q, embeddings[i]),
			ID:     ch.ID,
			Source: ch.Source,
			Page:   ch.Page,
			Text:   ch.Text,
		}
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score > snippets[j].Score
	})
	if topK > 0 && len(snippets) > topK {
		snippets = snippets[:topK]
	}
	return snippets, nil
}

// BuildContextBlock renders snippets into the user message the chat model
// receives: numbered, located fragments followed by the question.
func BuildContextBlock(question string, snippets []Snippet) string {
	var b strings.Builder
	b.WriteString("Context (resume fragments):\n")
	for i, s := range snippets {
		loc := filepath.Base(s.Source)
		if s.Page > 0 {
			loc = fmt.Sprintf("%s, p. %d", loc, s.Page)
		}
		fmt.Fprintf(&b, "[%d] %s (score=%.3f)\n%s\n", i+1, loc, s.Score, s.Text)
		if i < len(snippets)-1 {
			b.WriteString("---\n")
		}
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer using only these fragments.")
	return b.String()
}

// Package index persists the RAG corpus: text chunks, their embedding
// vectors, and build metadata, in a single sqlite file under the data dir.
package index

import (
	"database/sql"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Chunk is one retrievable piece of the corpus. Page is 0 for sources
// without page structure.
type Chunk struct {
	ID     string
	Source string
	Page   int
	Text   string
}

// Meta describes the last index build.
type Meta struct {
	EmbeddingModel string   `json:"embedding_model"`
	BuiltAt        int64    `json:"built_at"`
	Size           int      `json:"size"`
	Dim            int      `json:"dim"`
	Sources        []string `json:"sources,omitempty"`
}

// Store wraps the sqlite index database.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database at path
// and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying index schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Replace atomically swaps the whole index for the given chunks and
// embeddings. len(embeddings) must equal len(chunks).
func (s *Store) Replace(chunks []Chunk, embeddings [][]float32, meta Meta) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning index tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM meta"); err != nil {
		return fmt.Errorf("clearing meta: %w", err)
	}

	insert, err := tx.Prepare("INSERT INTO chunks (pos, id, source, page, text, embedding) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer insert.Close()

	for i, ch := range chunks {
		if _, err := insert.Exec(i, ch.ID, ch.Source, ch.Page, ch.Text, encodeVector(embeddings[i])); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", ch.ID, err)
		}
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshalling meta: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES ('build', ?)", string(metaJSON)); err != nil {
		return fmt.Errorf("inserting meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index tx: %w", err)
	}
	return nil
}

// Load returns all chunks and embeddings in insertion order plus the build
// metadata. An empty index yields empty slices and a zero Meta.
func (s *Store) Load() ([]Chunk, [][]float32, Meta, error) {
	rows, err := s.db.Query("SELECT id, source, page, text, embedding FROM chunks ORDER BY pos")
	if err != nil {
		return nil, nil, Meta{}, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var (
		chunks     []Chunk
		embeddings [][]float32
	)
	for rows.Next() {
		var (
			ch   Chunk
			page sql.NullInt64
			blob []byte
		)
		if err := rows.Scan(&ch.ID, &ch.Source, &page, &ch.Text, &blob); err != nil {
			return nil, nil, Meta{}, fmt.Errorf("scanning chunk: %w", err)
		}
		ch.Page = int(page.Int64)
		chunks = append(chunks, ch)
		embeddings = append(embeddings, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, Meta{}, fmt.Errorf("iterating chunks: %w", err)
	}

	meta, err := s.loadMeta()
	if err != nil {
		return nil, nil, Meta{}, err
	}

	return chunks, embeddings, meta, nil
}

// DumpAllText concatenates the whole corpus, used for summary generation.
func (s *Store) DumpAllText() (string, error) {
	rows, err := s.db.Query("SELECT text FROM chunks ORDER BY pos")
	if err != nil {
		return "", fmt.Errorf("querying chunk text: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return "", fmt.Errorf("scanning chunk text: %w", err)
		}
		parts = append(parts, text)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating chunk text: %w", err)
	}

	return strings.Join(parts, "\n\n"), nil
}

func (s *Store) loadMeta() (Meta, error) {
	var raw string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'build'").Scan(&raw)
	if err == sql.ErrNoRows {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, fmt.Errorf("querying meta: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Meta{}, fmt.Errorf("unmarshalling meta: %w", err)
	}
	return meta, nil
}

// encodeVector packs a float32 slice as little-endian bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}

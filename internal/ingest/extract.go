package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rumit2000/CVBotDevelop/internal/index"
)

// extractChunks turns one source file into index chunks. Unsupported
// extensions return an error the caller downgrades to a warning.
func extractChunks(path string, maxChars, overlap int) ([]index.Chunk, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path, maxChars, overlap)
	case ".txt", ".md":
		return extractPlain(path, maxChars, overlap)
	default:
		return nil, fmt.Errorf("unsupported file type %s", filepath.Ext(path))
	}
}

// extractPDF chunks each page separately so snippets can cite a page number.
func extractPDF(path string, maxChars, overlap int) ([]index.Chunk, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var chunks []index.Chunk
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page should not sink the whole document.
			continue
		}
		for i, piece := range SplitChunks(CleanText(text), maxChars, overlap) {
			chunks = append(chunks, index.Chunk{
				ID:     fmt.Sprintf("%s-p%d-c%d", name, pageNum, i+1),
				Source: path,
				Page:   pageNum,
				Text:   piece,
			})
		}
	}
	return chunks, nil
}

func extractPlain(path string, maxChars, overlap int) ([]index.Chunk, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	var chunks []index.Chunk
	for i, piece := range SplitChunks(CleanText(string(raw)), maxChars, overlap) {
		chunks = append(chunks, index.Chunk{
			ID:     fmt.Sprintf("%s-c%d", name, i+1),
			Source: path,
			Text:   piece,
		})
	}
	return chunks, nil
}

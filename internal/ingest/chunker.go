package ingest

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
	paraSplit  = regexp.MustCompile(`\n\s*\n`)
)

// CleanText lightly normalises extracted document text: CR to LF, collapsed
// horizontal whitespace, at most one blank line in a row.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SplitChunks cuts text into pieces of at most maxChars characters,
// paragraph-first with oversize paragraphs re-split on sentence boundaries,
// then prefixes every chunk after the first with the tail of its
// predecessor so retrieval never loses context at a cut point.
func SplitChunks(text string, maxChars, overlap int) []string {
	var paras []string
	for _, p := range paraSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}

	var (
		chunks []string
		buff   []string
		size   int
	)
	flush := func() {
		if len(buff) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(buff, "\n")))
			buff = nil
			size = 0
		}
	}

	// Sizes are counted in runes, not bytes: the source material is not
	// guaranteed to be ASCII.
	for _, p := range paras {
		n := utf8.RuneCountInString(p)
		if n > maxChars {
			for _, s := range splitSentences(p) {
				sn := utf8.RuneCountInString(s)
				if size+sn+1 > maxChars && size > 0 {
					flush()
				}
				buff = append(buff, s)
				size += sn + 1
			}
			continue
		}
		if size+n+1 > maxChars && size > 0 {
			flush()
		}
		buff = append(buff, p)
		size += n + 1
	}
	flush()

	if overlap <= 0 || len(chunks) == 0 {
		return chunks
	}

	overlapped := make([]string, len(chunks))
	overlapped[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		tail := runeTail(chunks[i-1], overlap)
		overlapped[i] = strings.TrimSpace(tail + "\n" + chunks[i])
	}
	return overlapped
}

// runeTail returns the last n runes of s, never cutting inside a rune.
func runeTail(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}

// splitSentences breaks text after terminal punctuation followed by
// whitespace. It is deliberately rough: the chunker only needs plausible
// cut points, not linguistic precision.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if isTerminal(runes[i]) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const maxFAQEntries = 12

// aboutFallback is written when the model's reply cannot be parsed, so the
// sentinel file still comes into existence and startup never loops on a
// flaky model.
const aboutFallback = "About section is unavailable: generation failed."

const summarySystemPrompt = "You help prepare a career bot from a resume. " +
	"Be precise and concise."

const summaryUserPrompt = `Below is the full resume text. Produce:
1) A short About block (400-600 characters), one coherent paragraph.
2) A list of 8-12 FAQ entries, each {"q": "question", "a": "short answer"}.
Requirements:
- Use only facts from the resume, do not invent anything.
- Return strict JSON of the form {"about": str, "faq": [{"q":..., "a":...}]} with no commentary.

=== RESUME TEXT ===
%s
=== END ===`

// QA is one generated FAQ entry.
type QA struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Summary is the model-generated cache content.
type Summary struct {
	About string `json:"about"`
	FAQ   []QA   `json:"faq"`
}

// GenerateSummary asks the model for the About block and FAQ list. A
// transport error is returned to the caller; malformed model output is
// downgraded to a stub summary so the cache files are still written.
func GenerateSummary(ctx context.Context, completer Completer, fullText string) (Summary, error) {
	raw, err := completer.Complete(ctx, summarySystemPrompt, fmt.Sprintf(summaryUserPrompt, fullText))
	if err != nil {
		return Summary{}, fmt.Errorf("generating summary: %w", err)
	}

	summary, err := parseSummary(raw)
	if err != nil {
		slog.WarnContext(ctx, "summary JSON unparseable — using fallback", "error", err)
		return Summary{About: aboutFallback}, nil
	}
	return summary, nil
}

// parseSummary validates the model's JSON. Malformed FAQ entries are
// dropped rather than failing the whole reply; the list is capped.
func parseSummary(raw string) (Summary, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))

	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return Summary{}, fmt.Errorf("unmarshalling summary: %w", err)
	}
	if strings.TrimSpace(summary.About) == "" {
		return Summary{}, fmt.Errorf("summary has empty about block")
	}

	kept := summary.FAQ[:0]
	for _, qa := range summary.FAQ {
		qa.Q = strings.TrimSpace(qa.Q)
		qa.A = strings.TrimSpace(qa.A)
		if qa.Q == "" || qa.A == "" {
			continue
		}
		kept = append(kept, qa)
		if len(kept) == maxFAQEntries {
			break
		}
	}
	summary.FAQ = kept
	summary.About = strings.TrimSpace(summary.About)
	return summary, nil
}

// stripCodeFence removes a surrounding markdown fence some models insist on
// despite the strict-JSON instruction.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

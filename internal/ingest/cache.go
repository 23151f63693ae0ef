package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AboutCacheFile and FAQCacheFile are the sentinel artifacts of ingestion:
// their existence tells the bootstrapper that this pipeline already ran.
const (
	AboutCacheFile = "about_cache.txt"
	FAQCacheFile   = "faq_cache.json"
)

const maxTopicLabel = 60

// FAQTopic is one entry of the FAQ cache as the bot consumes it: a stable
// key for callback data, a short button label, the full question, and the
// canned reply.
type FAQTopic struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Full  string `json:"full"`
	Reply string `json:"reply"`
}

type faqCache struct {
	Topics []FAQTopic `json:"topics"`
}

// WriteCaches persists the generated summary as the two sentinel files
// under dataDir.
func WriteCaches(dataDir string, summary Summary) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	aboutPath := filepath.Join(dataDir, AboutCacheFile)
	if err := os.WriteFile(aboutPath, []byte(summary.About+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", aboutPath, err)
	}

	payload, err := json.MarshalIndent(faqCache{Topics: TopicsFromFAQ(summary.FAQ)}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling faq cache: %w", err)
	}
	faqPath := filepath.Join(dataDir, FAQCacheFile)
	if err := os.WriteFile(faqPath, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", faqPath, err)
	}

	return nil
}

// TopicsFromFAQ converts generated Q/A pairs into keyed topics. Labels are
// truncated to fit inline keyboard buttons.
func TopicsFromFAQ(faq []QA) []FAQTopic {
	topics := make([]FAQTopic, 0, len(faq))
	for i, qa := range faq {
		topics = append(topics, FAQTopic{
			Key:   fmt.Sprintf("t%02d", i+1),
			Label: truncateLabel(qa.Q, maxTopicLabel),
			Full:  qa.Q,
			Reply: qa.A,
		})
	}
	return topics
}

func truncateLabel(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

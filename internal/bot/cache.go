package bot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rumit2000/CVBotDevelop/internal/ingest"
	"github.com/rumit2000/CVBotDevelop/internal/rag"
)

// Cache is the bot's in-memory view of the sentinel files. Loading is
// tolerant: missing files, empty payloads and the legacy bare-list FAQ
// format all degrade to an empty cache rather than an error.
type Cache struct {
	About   string
	Topics  []ingest.FAQTopic
	Replies map[string]string
}

// Holder guards the cache for concurrent reads by webhook handlers while a
// reindex refreshes it.
type Holder struct {
	mu    sync.RWMutex
	cache *Cache
}

// NewHolder returns a Holder seeded with an empty cache.
func NewHolder() *Holder {
	return &Holder{cache: &Cache{Replies: map[string]string{}}}
}

// Get returns the current cache snapshot.
func (h *Holder) Get() *Cache {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cache
}

// Set swaps in a new snapshot.
func (h *Holder) Set(c *Cache) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cache = c
}

// Reload reads the cache files from dataDir and swaps in the result.
func (h *Holder) Reload(dataDir string) {
	h.Set(LoadCache(dataDir))
}

// LoadCache reads the About text and FAQ topics from dataDir.
func LoadCache(dataDir string) *Cache {
	c := &Cache{Replies: map[string]string{}}

	aboutPath := filepath.Join(dataDir, ingest.AboutCacheFile)
	if raw, err := os.ReadFile(aboutPath); err == nil {
		c.About = strings.TrimSpace(string(raw))
	} else if !os.IsNotExist(err) {
		slog.Warn("about cache read error", "path", aboutPath, "error", err)
	}

	faqPath := filepath.Join(dataDir, ingest.FAQCacheFile)
	topics, err := loadTopics(faqPath)
	if err != nil {
		slog.Warn("faq cache read error", "path", faqPath, "error", err)
	}
	for _, topic := range topics {
		if topic.Key == "" || topic.Label == "" || topic.Full == "" || rag.IsEmptyAnswer(topic.Reply) {
			continue
		}
		c.Topics = append(c.Topics, topic)
		c.Replies[topic.Key] = topic.Reply
	}

	slog.Info("cache loaded",
		"about", c.About != "",
		"faq_topics", len(c.Topics),
	)
	return c
}

// loadTopics accepts both {"topics": [...]} and the legacy bare list.
func loadTopics(path string) ([]ingest.FAQTopic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var wrapped struct {
		Topics []ingest.FAQTopic `json:"topics"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Topics != nil {
		return wrapped.Topics, nil
	}

	var list []ingest.FAQTopic
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	return nil, fmt.Errorf("unrecognised faq cache format")
}

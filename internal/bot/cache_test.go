package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCacheFiles(t *testing.T, about, faq string) string {
	t.Helper()

	dir := t.TempDir()
	if about != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "about_cache.txt"), []byte(about), 0o644))
	}
	if faq != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "faq_cache.json"), []byte(faq), 0o644))
	}
	return dir
}

func TestLoadCache_WrappedFormat(t *testing.T) {
	t.Parallel()

	dir := writeCacheFiles(t, "About me.\n",
		`{"topics": [{"key": "t01", "label": "Skills", "full": "What skills?", "reply": "Go."}]}`)

	c := LoadCache(dir)
	assert.Equal(t, "About me.", c.About)
	require.Len(t, c.Topics, 1)
	assert.Equal(t, "Go.", c.Replies["t01"])
}

func TestLoadCache_LegacyListFormat(t *testing.T) {
	t.Parallel()

	dir := writeCacheFiles(t, "",
		`[{"key": "t01", "label": "Skills", "full": "What skills?", "reply": "Go."}]`)

	c := LoadCache(dir)
	require.Len(t, c.Topics, 1)
}

func TestLoadCache_MissingFiles(t *testing.T) {
	t.Parallel()

	c := LoadCache(t.TempDir())
	assert.Empty(t, c.About)
	assert.Empty(t, c.Topics)
}

func TestLoadCache_DropsInvalidTopics(t *testing.T) {
	t.Parallel()

	dir := writeCacheFiles(t, "", `{"topics": [
		{"key": "t01", "label": "ok", "full": "ok?", "reply": "fine"},
		{"key": "", "label": "no key", "full": "x", "reply": "y"},
		{"key": "t03", "label": "empty reply", "full": "x", "reply": "The resume does not mention this."}
	]}`)

	c := LoadCache(dir)
	require.Len(t, c.Topics, 1)
	assert.Equal(t, "t01", c.Topics[0].Key)
}

func TestLoadCache_GarbageJSON(t *testing.T) {
	t.Parallel()

	dir := writeCacheFiles(t, "still loads", `{{{`)

	c := LoadCache(dir)
	assert.Equal(t, "still loads", c.About)
	assert.Empty(t, c.Topics)
}

func TestHolder_ReloadSwapsSnapshot(t *testing.T) {
	t.Parallel()

	h := NewHolder()
	assert.Empty(t, h.Get().About)

	dir := writeCacheFiles(t, "fresh", "")
	h.Reload(dir)
	assert.Equal(t, "fresh", h.Get().About)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: t.Parallel() is intentionally omitted in this package.
// These tests share process-global environment variables; t.Setenv would
// race with any concurrent reader.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "cvbot", cfg.Telemetry.ServiceName)
	assert.Equal(t, "data", cfg.Bootstrap.DataDir)
	assert.Equal(t, []string{"about_cache.txt", "faq_cache.json"}, cfg.Bootstrap.SentinelFiles)
	assert.Empty(t, cfg.Bootstrap.Lock.Addr)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, 1200, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
}

func TestLoad_PortEnvAlias(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_PrefixedEnvWinsOverBarePort(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CVBOT_SERVER_PORT", "10000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Server.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CVBOT_BOOTSTRAP_DATA_DIR", "/var/lib/cvbot")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CVBOT_BOOTSTRAP_LOCK_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/cvbot", cfg.Bootstrap.DataDir)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "redis:6379", cfg.Bootstrap.Lock.Addr)
}

func TestLoad_EnvOverridesUndefaultedKeys(t *testing.T) {
	t.Setenv("CVBOT_TELEGRAM_WEBHOOK_SECRET", "s3cret")
	t.Setenv("CVBOT_TELEGRAM_OWNER_ID", "12345")
	t.Setenv("CVBOT_TELEGRAM_BASE_WEBHOOK_URL", "https://example.com")
	t.Setenv("CVBOT_TELEGRAM_LINKEDIN_URL", "https://linkedin.com/in/someone")
	t.Setenv("CVBOT_TELEGRAM_CONTACT_INFO", "mail@example.com")
	t.Setenv("CVBOT_TELEGRAM_RESUME_ONEPAGE_PATH", "data/resume_1p.pdf")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Telegram.WebhookSecret)
	assert.Equal(t, int64(12345), cfg.Telegram.OwnerID)
	assert.Equal(t, "https://example.com", cfg.Telegram.BaseWebhookURL)
	assert.Equal(t, "https://linkedin.com/in/someone", cfg.Telegram.LinkedInURL)
	assert.Equal(t, "mail@example.com", cfg.Telegram.ContactInfo)
	assert.Equal(t, "data/resume_1p.pdf", cfg.Telegram.ResumeOnePagePath)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\nbootstrap:\n  sentinel_files: [about_cache.txt]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"about_cache.txt"}, cfg.Bootstrap.SentinelFiles)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestSentinelPaths(t *testing.T) {
	cfg := BootstrapConfig{
		DataDir:       "data",
		SentinelFiles: []string{"about_cache.txt", "/abs/faq_cache.json"},
	}

	assert.Equal(t,
		[]string{filepath.Join("data", "about_cache.txt"), "/abs/faq_cache.json"},
		cfg.SentinelPaths(),
	)
}

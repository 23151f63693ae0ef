package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for CVBot.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	RAG       RAGConfig       `mapstructure:"rag"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

// BootstrapConfig controls the startup sequence: which sentinel files gate
// ingestion, how ingestion is invoked, and the optional Redis lock that
// keeps multiple replicas from ingesting at the same time.
type BootstrapConfig struct {
	DataDir       string        `mapstructure:"data_dir"`
	SentinelFiles []string      `mapstructure:"sentinel_files"`
	IngestCommand string        `mapstructure:"ingest_command"`
	IngestTimeout time.Duration `mapstructure:"ingest_timeout"`
	Lock          LockConfig    `mapstructure:"lock"`
}

// LockConfig configures the distributed ingestion lock. An empty Addr
// disables locking entirely.
type LockConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TelegramConfig struct {
	Token             string `mapstructure:"token"`
	OwnerID           int64  `mapstructure:"owner_id"`
	BaseWebhookURL    string `mapstructure:"base_webhook_url"`
	WebhookSecret     string `mapstructure:"webhook_secret"`
	ResumePath        string `mapstructure:"resume_path"`
	ResumeOnePagePath string `mapstructure:"resume_onepage_path"`
	LinkedInURL       string `mapstructure:"linkedin_url"`
	ContactInfo       string `mapstructure:"contact_info"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	ChatModel      string  `mapstructure:"chat_model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float32 `mapstructure:"temperature"`
}

type RAGConfig struct {
	Sources       []string `mapstructure:"sources"`
	IndexPath     string   `mapstructure:"index_path"`
	ChunkSize     int      `mapstructure:"chunk_size"`
	ChunkOverlap  int      `mapstructure:"chunk_overlap"`
	TopK          int      `mapstructure:"top_k"`
	MinSimilarity float32  `mapstructure:"min_similarity"`
}

// SentinelPaths returns the sentinel file set resolved against the data dir.
func (c BootstrapConfig) SentinelPaths() []string {
	paths := make([]string, 0, len(c.SentinelFiles))
	for _, f := range c.SentinelFiles {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(c.DataDir, f))
	}
	return paths
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the CVBOT_ prefix (e.g. CVBOT_SERVER_PORT).
// The bare PORT variable is honoured as an alias of server.port so the
// service keeps working under platforms that inject only PORT.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CVBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PaaS runtimes hand the listen port over as a bare PORT variable.
	_ = v.BindEnv("server.port", "CVBOT_SERVER_PORT", "PORT")
	_ = v.BindEnv("telegram.token", "CVBOT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("openai.api_key", "CVBOT_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "cvbot")
	v.SetDefault("telemetry.log_level", "info")

	v.SetDefault("bootstrap.data_dir", "data")
	v.SetDefault("bootstrap.sentinel_files", []string{"about_cache.txt", "faq_cache.json"})
	v.SetDefault("bootstrap.ingest_command", "")
	v.SetDefault("bootstrap.ingest_timeout", 10*time.Minute)
	v.SetDefault("bootstrap.lock.addr", "")
	v.SetDefault("bootstrap.lock.db", 0)
	v.SetDefault("bootstrap.lock.key", "cvbot:ingest:lock")
	v.SetDefault("bootstrap.lock.ttl", 15*time.Minute)

	// Every key needs a default, even an empty one: AutomaticEnv only
	// overlays keys viper already knows about, so an undefaulted key would
	// be invisible to CVBOT_* variables in env-only deployments.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.owner_id", 0)
	v.SetDefault("telegram.base_webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.resume_path", "data/resume.pdf")
	v.SetDefault("telegram.resume_onepage_path", "")
	v.SetDefault("telegram.linkedin_url", "")
	v.SetDefault("telegram.contact_info", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.temperature", 0.2)

	v.SetDefault("rag.sources", []string{"data/resume.pdf"})
	v.SetDefault("rag.index_path", "data/rag_index.db")
	v.SetDefault("rag.chunk_size", 1200)
	v.SetDefault("rag.chunk_overlap", 200)
	v.SetDefault("rag.top_k", 6)
	v.SetDefault("rag.min_similarity", 0.20)
}

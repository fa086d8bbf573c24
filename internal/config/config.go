// Package config loads ytdigest settings from .env, an optional YAML file
// and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alrobwilloliver/ytdigest/internal/logging"
)

const (
	DefaultConfigPath = "ytdigest.yaml"

	defaultAddr            = ":8080"
	defaultRatePerMinute   = 30
	defaultRateBurst       = 5
	defaultMaxBodyBytes    = 1024
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 5 * time.Minute
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	defaultProvider = ProviderScrape
	defaultLanguage = "en"

	defaultSummarizer     = "openai"
	defaultMaxChunkTokens = 100000

	defaultCacheBackend = BackendSQLite
	defaultCachePath    = ".ytdigest/cache.db"
	defaultCacheTTL     = 7 * 24 * time.Hour

	defaultLibraryBackend = BackendSQLite
	defaultLibraryPath    = ".ytdigest/library.db"

	defaultLogLevel = "info"
)

// Transcript providers.
const (
	ProviderScrape    = "scrape"
	ProviderTimedText = "timedtext"
	ProviderSupadata  = "supadata"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendNone     = "none"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Cache      CacheConfig      `yaml:"cache"`
	Library    LibraryConfig    `yaml:"library"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// APIKey, when set, is required on every /api request.
	APIKey          string        `yaml:"api_key"`
	RatePerMinute   int           `yaml:"rate_per_minute"`
	RateBurst       int           `yaml:"rate_burst"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type TranscriptConfig struct {
	Provider string `yaml:"provider"`
	Language string `yaml:"language"`
	// YouTubeBaseURL overrides https://www.youtube.com for the scrape providers.
	YouTubeBaseURL string         `yaml:"youtube_base_url"`
	Poll           PollConfig     `yaml:"poll"`
	Supadata       SupadataConfig `yaml:"supadata"`
}

type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

type SupadataConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type SummarizerConfig struct {
	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	// Prompts is an optional YAML file replacing the built-in prompts.
	Prompts        string `yaml:"prompts"`
	MaxChunkTokens int    `yaml:"max_chunk_tokens"`
}

type MetadataConfig struct {
	YouTubeAPIKey string `yaml:"youtube_api_key"`
	OEmbedURL     string `yaml:"oembed_url"`
}

type CacheConfig struct {
	Backend  string        `yaml:"backend"`
	Path     string        `yaml:"path"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

type LibraryConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration. An explicit path must exist; with an empty path
// DefaultConfigPath is used when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", slog.String("error", err.Error()))
	}

	cfg := &Config{}
	if err := loadYAML(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Summarizer.APIKey, "YTDIGEST_API_KEY")
	setFromEnv(&cfg.Summarizer.Model, "YTDIGEST_MODEL")
	setFromEnv(&cfg.Summarizer.BaseURL, "YTDIGEST_API_URL")
	setFromEnv(&cfg.Summarizer.Backend, "YTDIGEST_SUMMARIZER")
	setFromEnv(&cfg.Transcript.Provider, "YTDIGEST_PROVIDER")
	setFromEnv(&cfg.Transcript.Supadata.APIKey, "SUPADATA_API_KEY")
	setFromEnv(&cfg.Metadata.YouTubeAPIKey, "YOUTUBE_API_KEY")
	setFromEnv(&cfg.Server.APIKey, "YTDIGEST_SERVER_KEY")
	setFromEnv(&cfg.Library.Path, "YTDIGEST_DB_PATH")

	if v := os.Getenv("YTDIGEST_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
		if cfg.Cache.Backend == "" {
			cfg.Cache.Backend = BackendRedis
		}
	}
	if v := os.Getenv("YTDIGEST_DATABASE_URL"); v != "" {
		cfg.Library.DatabaseURL = v
		if cfg.Library.Backend == "" {
			cfg.Library.Backend = BackendPostgres
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyTranscriptDefaults(cfg)
	applySummarizerDefaults(cfg)
	applyCacheDefaults(cfg)
	applyLibraryDefaults(cfg)
	applyLogDefaults(cfg)
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.RatePerMinute == 0 {
		cfg.Server.RatePerMinute = defaultRatePerMinute
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = defaultRateBurst
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
	}
}

func applyTranscriptDefaults(cfg *Config) {
	if cfg.Transcript.Provider == "" {
		cfg.Transcript.Provider = defaultProvider
	}
	if cfg.Transcript.Language == "" {
		cfg.Transcript.Language = defaultLanguage
	}
}

func applySummarizerDefaults(cfg *Config) {
	if cfg.Summarizer.Backend == "" {
		cfg.Summarizer.Backend = defaultSummarizer
	}
	if cfg.Summarizer.MaxChunkTokens == 0 {
		cfg.Summarizer.MaxChunkTokens = defaultMaxChunkTokens
	}
	// Backend-specific keys are a fallback for the generic one.
	if cfg.Summarizer.APIKey == "" {
		switch cfg.Summarizer.Backend {
		case "groq":
			cfg.Summarizer.APIKey = os.Getenv("GROQ_API_KEY")
		case "gemini":
			cfg.Summarizer.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

func applyCacheDefaults(cfg *Config) {
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = defaultCacheBackend
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = defaultCachePath
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
}

func applyLibraryDefaults(cfg *Config) {
	if cfg.Library.Backend == "" {
		cfg.Library.Backend = defaultLibraryBackend
	}
	if cfg.Library.Path == "" {
		cfg.Library.Path = defaultLibraryPath
	}
}

func applyLogDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

// Validate rejects unknown backend names and incomplete backend settings.
func (c *Config) Validate() error {
	switch c.Transcript.Provider {
	case ProviderScrape, ProviderTimedText:
	case ProviderSupadata:
		if c.Transcript.Supadata.APIKey == "" {
			return errors.New("transcript provider supadata needs SUPADATA_API_KEY")
		}
	default:
		return fmt.Errorf("unknown transcript provider %q (want scrape, timedtext or supadata)", c.Transcript.Provider)
	}

	switch c.Summarizer.Backend {
	case "openai", "groq", "gemini":
	default:
		return fmt.Errorf("unknown summarizer %q (want openai, groq or gemini)", c.Summarizer.Backend)
	}

	switch c.Cache.Backend {
	case BackendSQLite, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("cache backend redis needs redis_url or YTDIGEST_REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want sqlite, redis or none)", c.Cache.Backend)
	}

	switch c.Library.Backend {
	case BackendSQLite:
	case BackendPostgres:
		if c.Library.DatabaseURL == "" {
			return errors.New("library backend postgres needs database_url or YTDIGEST_DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown library backend %q (want sqlite or postgres)", c.Library.Backend)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server.RatePerMinute < 0 || c.Server.RateBurst < 0 {
		return errors.New("server rate limits must not be negative")
	}
	return nil
}

package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	LLM         LLMConfig        `toml:"llm"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Fusion      FusionConfig     `toml:"fusion"`
	Clustering  ClusteringConfig `toml:"clustering"`
	Export      ExportConfig     `toml:"export"`
	Watch       WatchConfig      `toml:"watch"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
	Cache  CacheConfig  `toml:"cache"`
}

// SQLiteConfig represents ledger database configuration
type SQLiteConfig struct {
	Path          string `toml:"path" validate:"required"`
	CacheSizeMB   int    `toml:"cache_size_mb" validate:"min=1"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms" validate:"min=0"`
	WALMode       bool   `toml:"wal_mode"`
}

// CacheConfig represents the BadgerDB prompt/response cache configuration
type CacheConfig struct {
	Enabled        bool   `toml:"enabled"`
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete cache on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

// LLMConfig contains provider-agnostic LLM settings
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=claude gemini mock"`
	RateLimit       string `toml:"rate_limit"`  // e.g. "1s" - minimum spacing between generate calls
	LogPrompts      bool   `toml:"log_prompts"` // Include prompt text in the audit log
}

// ClaudeConfig contains Anthropic Claude API settings
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API settings
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// PipelineConfig controls per-document stage processing and fan-out
type PipelineConfig struct {
	MaxWorkers int `toml:"max_workers" validate:"min=1"`
}

// FusionConfig controls duplicate reconciliation
type FusionConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold" validate:"gt=0,lte=1"`
}

// ClusteringConfig controls topic clustering batch behavior
type ClusteringConfig struct {
	BatchSize int `toml:"batch_size" validate:"min=1"`
}

// ExportConfig controls course output rendering
type ExportConfig struct {
	OutputDir string   `toml:"output_dir" validate:"required"`
	Formats   []string `toml:"formats" validate:"dive,oneof=markdown html pdf"`
}

// WatchConfig controls scheduled directory rescans
type WatchConfig struct {
	Schedule string `toml:"schedule"` // Cron schedule format
	Dir      string `toml:"dir"`
	Pattern  string `toml:"pattern"` // e.g. "*.srt"
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/doceo.db",
				CacheSizeMB:   64,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
			Cache: CacheConfig{
				Enabled: true,
				Path:    "./data/cache",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			DefaultProvider: "claude",
			RateLimit:       "1s",
			LogPrompts:      false,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.3,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			Temperature: 0.3,
		},
		Pipeline: PipelineConfig{
			MaxWorkers: 3,
		},
		Fusion: FusionConfig{
			SimilarityThreshold: 0.75,
		},
		Clustering: ClusteringConfig{
			BatchSize: 50,
		},
		Export: ExportConfig{
			OutputDir: "./exports",
			Formats:   []string{"markdown"},
		},
		Watch: WatchConfig{
			Schedule: "@every 5m",
			Pattern:  "*.srt",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DOCEO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("DOCEO_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}

	if path := os.Getenv("DOCEO_CACHE_PATH"); path != "" {
		config.Storage.Cache.Path = path
	}

	if level := os.Getenv("DOCEO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if provider := os.Getenv("DOCEO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("DOCEO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if model := os.Getenv("DOCEO_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("DOCEO_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if model := os.Getenv("DOCEO_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if workers := os.Getenv("DOCEO_MAX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Pipeline.MaxWorkers = w
		}
	}

	if dir := os.Getenv("DOCEO_EXPORT_DIR"); dir != "" {
		config.Export.OutputDir = dir
	}
}

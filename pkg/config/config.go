// Package config handles fuzzylink configuration loading.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// Provider names accepted in EmbeddingConfig.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
	ProviderNone   = "none"
)

// Config is the root configuration structure.
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Server    ServerConfig    `yaml:"server"`
	Export    ExportConfig    `yaml:"export"`
	Log       LogConfig       `yaml:"log"`
}

// AnalysisConfig holds the linkograph thresholds.
type AnalysisConfig struct {
	linkograph.Config `yaml:",inline"`

	// Workers bounds how many episodes are analyzed at once. 0 = unbounded.
	Workers int `yaml:"workers"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// URL is the plain HTTP embedding service (provider "http").
	URL string `yaml:"url"`

	// BaseURL overrides the OpenAI API base URL, for compatible local
	// servers. Empty uses api.openai.com.
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`

	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	CacheSize   int           `yaml:"cache_size"` // 0 disables the cache
	Timeout     time.Duration `yaml:"timeout"`
	Normalize   bool          `yaml:"normalize"`
}

// APIKey reads the provider API key from the configured environment variable.
func (e EmbeddingConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// ExportConfig holds CSV/JSON export settings.
type ExportConfig struct {
	Dir       string `yaml:"dir"`
	Precision int    `yaml:"precision"`
	Dialect   string `yaml:"dialect"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps Level onto a slog level. Unknown levels read as info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Config:  linkograph.DefaultConfig(),
			Workers: 4,
		},
		Embedding: EmbeddingConfig{
			Provider:    ProviderHTTP,
			Model:       "all-MiniLM-L6-v2",
			URL:         "http://localhost:8000",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   384,
			BatchSize:   32,
			Concurrency: 4,
			CacheSize:   4096,
			Timeout:     30 * time.Second,
			Normalize:   true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8090",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Export: ExportConfig{
			Dir:       "./exports",
			Precision: 6,
			Dialect:   "standard",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if c.Analysis.Workers < 0 {
		return invalid("analysis.workers must not be negative")
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderHTTP, ProviderNone:
	default:
		return invalid("unknown embedding provider %q", c.Embedding.Provider).
			WithSuggestion("Use one of: openai, http, none")
	}
	if c.Embedding.Provider != ProviderNone {
		if c.Embedding.BatchSize <= 0 {
			return invalid("embedding.batch_size must be positive")
		}
		if c.Embedding.Concurrency <= 0 {
			return invalid("embedding.concurrency must be positive")
		}
		if c.Embedding.Dimension < 0 {
			return invalid("embedding.dimension must not be negative")
		}
	}
	if c.Embedding.CacheSize < 0 {
		return invalid("embedding.cache_size must not be negative")
	}

	if c.Export.Precision < -1 || c.Export.Precision > 17 {
		return invalid("export.precision %d must be between -1 and 17", c.Export.Precision)
	}
	switch c.Export.Dialect {
	case "standard", "excel", "tsv":
	default:
		return invalid("unknown export dialect %q", c.Export.Dialect).
			WithSuggestion("Use one of: standard, excel, tsv")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid("unknown log format %q", c.Log.Format)
	}
	return nil
}

func invalid(format string, args ...any) *lerrors.LinkographError {
	return lerrors.ConfigErrorf(lerrors.ErrConfigInvalid, format, args...)
}

// Load loads configuration from a file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lerrors.ConfigError(lerrors.ErrConfigNotFound, "configuration file not found").
				WithContext("path", path).
				WithCause(err).
				WithSuggestion("Run 'fuzzylink init' to create a default config").
				WithSuggestion("Or pass --config with the path to an existing file")
		}
		return nil, lerrors.WrapConfig(err, lerrors.ErrConfigReadFailed, "failed to read configuration file").
			WithContext("path", path).
			WithSuggestion("Check the file permissions")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, lerrors.WrapConfig(err, lerrors.ErrConfigParseFailed, "failed to parse configuration file").
			WithContext("path", path).
			WithSuggestion("Check the YAML syntax: indentation must use spaces").
			WithSuggestion("Run 'fuzzylink init' in an empty directory to see a valid example")
	}

	if err := cfg.Validate(); err != nil {
		if le, ok := lerrors.AsLinkographError(err); ok {
			le.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return lerrors.WrapConfig(err, lerrors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext("path", dir)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return lerrors.WrapInternal(err, lerrors.ErrInternal, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return lerrors.WrapConfig(err, lerrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default config file path: fuzzylink.yaml in
// the working directory, then config/fuzzylink.yaml, then the user config dir.
func DefaultConfigPath() string {
	if _, err := os.Stat("fuzzylink.yaml"); err == nil {
		return "fuzzylink.yaml"
	}
	if _, err := os.Stat("config/fuzzylink.yaml"); err == nil {
		return "config/fuzzylink.yaml"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "fuzzylink", "fuzzylink.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "fuzzylink.yaml"
}

// InitConfig creates a default config file if it doesn't exist. It reports
// whether a file was written.
func InitConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Default().Save(path); err != nil {
		return false, err
	}
	return true, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the document portal
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Retention RetentionConfig `mapstructure:"retention"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug bool `mapstructure:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig declares the base directories for session storage.
// Each ingestion flow gets its own base directory so analysis sessions
// and comparison sessions never share a namespace.
type StorageConfig struct {
	AnalysisDir string `mapstructure:"analysis_dir"`
	CompareDir  string `mapstructure:"compare_dir"`
}

// Normalize applies the default storage layout under the working directory.
func (s StorageConfig) Normalize() StorageConfig {
	cwd, _ := os.Getwd()
	if strings.TrimSpace(s.AnalysisDir) == "" {
		s.AnalysisDir = filepath.Join(cwd, "data", "document_analysis")
	}
	if strings.TrimSpace(s.CompareDir) == "" {
		s.CompareDir = filepath.Join(cwd, "data", "document_compare")
	}
	return s
}

// UploadConfig bounds what a single upload may cost us.
type UploadConfig struct {
	MaxSizeMB int `mapstructure:"max_size_mb"`
}

func (u UploadConfig) Normalize() UploadConfig {
	if u.MaxSizeMB <= 0 {
		u.MaxSizeMB = 50
	}
	return u
}

// ExtractConfig bounds text extraction output.
type ExtractConfig struct {
	MaxPages     int   `mapstructure:"max_pages"`      // 0 means all pages
	MaxTextBytes int64 `mapstructure:"max_text_bytes"` // soft cap, extraction truncates here
}

func (e ExtractConfig) Normalize() ExtractConfig {
	if e.MaxTextBytes <= 0 {
		e.MaxTextBytes = 1 << 20
	}
	if e.MaxPages < 0 {
		e.MaxPages = 0
	}
	return e
}

// RetentionConfig controls session pruning.
type RetentionConfig struct {
	KeepLatest int    `mapstructure:"keep_latest"`
	SweepCron  string `mapstructure:"sweep_cron"` // empty disables the background sweeper
}

func (r RetentionConfig) Normalize() RetentionConfig {
	if r.KeepLatest <= 0 {
		r.KeepLatest = 3
	}
	return r
}

// LLMConfig selects and configures the analysis callout provider.
type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (o OpenAIConfig) Normalize() OpenAIConfig {
	if o.BaseURL == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if o.Model == "" {
		o.Model = "gpt-4o-mini"
	}
	if o.Temperature == 0 {
		o.Temperature = 0.2
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 2048
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case "", "openai":
		return nil
	default:
		return fmt.Errorf("llm.provider %q is not supported", l.Provider)
	}
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from the given file, or from the usual
// search paths when path is empty. Environment variables with the
// DOCPORTAL_ prefix override file values (DOCPORTAL_STORAGE_ANALYSIS_DIR,
// DOCPORTAL_LLM_OPENAI_API_KEY, ...). A missing config file is fine;
// defaults and the environment carry the configuration then.
func LoadConfig(path string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("upload.max_size_mb", 50)
	v.SetDefault("extract.max_text_bytes", 1<<20)
	v.SetDefault("retention.keep_latest", 3)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DOCPORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Storage = config.Storage.Normalize()
	config.Upload = config.Upload.Normalize()
	config.Extract = config.Extract.Normalize()
	config.Retention = config.Retention.Normalize()
	config.LLM.OpenAI = config.LLM.OpenAI.Normalize()

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	return &config
}

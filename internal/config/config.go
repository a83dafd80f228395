// Package config loads and validates bugdex configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Batch   BatchConfig   `mapstructure:"batch"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Forum   ForumConfig   `mapstructure:"forum"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BatchConfig governs the worker pool.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// HTTPConfig configures the fetch client and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	UserAgent      string  `mapstructure:"user_agent"`
	MaxRetries     int     `mapstructure:"max_retries"`
	BackoffFactor  float64 `mapstructure:"backoff_factor"`
}

// GitHubConfig holds API access settings.
type GitHubConfig struct {
	// Token authenticates API calls; anonymous access works but rate-limits
	// hard. Also honored from the plain GITHUB_TOKEN environment variable.
	Token   string `mapstructure:"token"`
	APIBase string `mapstructure:"api_base"`
	RawBase string `mapstructure:"raw_base"`
}

// ForumConfig controls the phpBB extractor labels.
type ForumConfig struct {
	Tag string `mapstructure:"tag"`
}

// MetricsConfig optionally exposes Prometheus collectors over HTTP.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BUGDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The conventional variable wins over nothing, loses to BUGDEX_GITHUB_TOKEN.
	if err := v.BindEnv("github.token", "BUGDEX_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("bind github token: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("batch.workers", 16)
	v.SetDefault("http.timeout_seconds", 12)
	v.SetDefault("http.user_agent", "bugdex/0.1")
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_factor", 0.6)
	v.SetDefault("forum.tag", "QCADForum")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.BackoffFactor < 0 {
		return fmt.Errorf("http.backoff_factor must be >= 0")
	}
	if c.Forum.Tag == "" {
		return fmt.Errorf("forum.tag must not be empty")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

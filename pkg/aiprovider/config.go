package aiprovider

import (
	"time"

	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel       = "gemini-3-flash-preview"
	DefaultTimeoutSecs = 120
)

// Config holds model provider credentials and request settings.
type Config struct {
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	TimeoutSecs         int     `yaml:"timeout_seconds"`
	Temperature         float64 `yaml:"temperature"`
	MaxCompletionTokens int     `yaml:"max_completion_tokens"`
	ImageDetail         string  `yaml:"image_detail"`
	EstimateTokens      bool    `yaml:"estimate_tokens"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.ImageDetail == "" {
		c.ImageDetail = "low"
	}
	return c
}

// ApplyEnvDefaults overrides config fields from the GEMINI_* environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	cfg = cfg.WithDefaults()
	cfg.APIKey = stringutil.EnvOr(cfg.APIKey, "GEMINI_API_KEY")
	cfg.Model = stringutil.EnvOr(cfg.Model, "GEMINI_MODEL_NAME")
	cfg.BaseURL = stringutil.EnvOr(cfg.BaseURL, "GEMINI_BASE_URL")
	return cfg
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

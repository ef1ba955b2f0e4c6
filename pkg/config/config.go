package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.mau.fi/util/configupgrade"
	"go.mau.fi/util/dbutil"
	"gopkg.in/yaml.v3"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/fetch"
	"github.com/beeper/recipe-ingest/pkg/frames"
	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

//go:embed example-config.yaml
var ExampleConfig string

type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Database dbutil.Config     `yaml:"database"`
	Model    aiprovider.Config `yaml:"model"`
	Prompt   PromptConfig      `yaml:"prompt"`
	Fetch    fetch.Config      `yaml:"fetch"`
	Frames   frames.Config     `yaml:"frames"`
	Logging  LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
	AuthHeader    string `yaml:"auth_header"`
	AllowCORS     bool   `yaml:"allow_cors"`
}

type PromptConfig struct {
	Language string `yaml:"language"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func upgradeConfig(helper configupgrade.Helper) {
	helper.Copy(configupgrade.Str, "server", "listen_address")
	helper.Copy(configupgrade.Str, "server", "auth_header")
	helper.Copy(configupgrade.Bool, "server", "allow_cors")

	helper.Copy(configupgrade.Str, "database", "type")
	helper.Copy(configupgrade.Str, "database", "uri")
	helper.Copy(configupgrade.Int, "database", "max_open_conns")
	helper.Copy(configupgrade.Int, "database", "max_idle_conns")
	helper.Copy(configupgrade.Str|configupgrade.Null, "database", "conn_max_idle_time")
	helper.Copy(configupgrade.Str|configupgrade.Null, "database", "conn_max_lifetime")

	helper.Copy(configupgrade.Str, "model", "api_key")
	helper.Copy(configupgrade.Str, "model", "base_url")
	helper.Copy(configupgrade.Str, "model", "model")
	helper.Copy(configupgrade.Int, "model", "timeout_seconds")
	helper.Copy(configupgrade.Float|configupgrade.Int, "model", "temperature")
	helper.Copy(configupgrade.Int, "model", "max_completion_tokens")
	helper.Copy(configupgrade.Str, "model", "image_detail")
	helper.Copy(configupgrade.Bool, "model", "estimate_tokens")

	helper.Copy(configupgrade.Str, "prompt", "language")

	helper.Copy(configupgrade.Int, "fetch", "timeout_seconds")
	helper.Copy(configupgrade.Str, "fetch", "user_agent")
	helper.Copy(configupgrade.Int, "fetch", "max_body_chars")
	helper.Copy(configupgrade.Int, "fetch", "max_page_bytes")
	helper.Copy(configupgrade.Int, "fetch", "max_snapshot_bytes")
	helper.Copy(configupgrade.Str, "fetch", "proxy_url")
	helper.Copy(configupgrade.Bool, "fetch", "allow_private_networks")

	helper.Copy(configupgrade.Int, "frames", "count")
	helper.Copy(configupgrade.Int, "frames", "jpeg_quality")
	helper.Copy(configupgrade.Int, "frames", "max_dimension")
	helper.Copy(configupgrade.Int, "frames", "workers")
	helper.Copy(configupgrade.Str, "frames", "ffmpeg_path")
	helper.Copy(configupgrade.Str, "frames", "ffprobe_path")
	helper.Copy(configupgrade.Str, "frames", "temp_dir")

	helper.Copy(configupgrade.Str, "logging", "level")
	helper.Copy(configupgrade.Str, "logging", "format")
}

var upgrader = &configupgrade.StructUpgrader{
	SimpleUpgrader: upgradeConfig,
	Base:           ExampleConfig,
	Blocks: [][]string{
		{"database"},
		{"model"},
		{"prompt"},
		{"fetch"},
		{"frames"},
		{"logging"},
	},
}

// Load reads the config file, filling keys missing from it with the example config,
// then applies .env and environment overrides. A missing file means example defaults.
// When save is true, the merged config is written back to path.
func Load(path, envFile string, save bool) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	data := []byte(ExampleConfig)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, _, err = configupgrade.Do(path, save, upgrader)
			if err != nil {
				return nil, fmt.Errorf("failed to upgrade config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Model = *aiprovider.ApplyEnvDefaults(&c.Model)
	c.Fetch = *fetch.ApplyEnvDefaults(&c.Fetch)
	c.Frames = *c.Frames.WithDefaults()
	c.Database.Type = stringutil.EnvOr(c.Database.Type, "DATABASE_TYPE")
	c.Database.URI = stringutil.EnvOr(c.Database.URI, "DATABASE_URL")
	c.Server.ListenAddress = stringutil.EnvOr(c.Server.ListenAddress, "LISTEN_ADDRESS")
	c.Logging.Level = stringutil.EnvOr(c.Logging.Level, "LOG_LEVEL")
	if c.Server.AuthHeader == "" {
		c.Server.AuthHeader = "X-User-ID"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite3"
	}
}

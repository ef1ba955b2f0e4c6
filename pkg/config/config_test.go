package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GEMINI_MODEL_NAME", "GEMINI_BASE_URL", "DATABASE_URL", "DATABASE_TYPE",
		"LISTEN_ADDRESS", "LOG_LEVEL", "FETCH_USER_AGENT", "FETCH_PROXY_URL", "FETCH_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesExample(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"), "", false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8000" || cfg.Server.AuthHeader != "X-User-ID" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Model.Model != "gemini-3-flash-preview" || cfg.Model.TimeoutSecs != 120 {
		t.Fatalf("unexpected model config: %+v", cfg.Model)
	}
	if cfg.Frames.Count != 15 || cfg.Fetch.TimeoutSecs != 10 || cfg.Database.Type != "sqlite3" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Model.APIKey != "" {
		t.Fatal("api key should be empty by default")
	}
}

func TestLoadMergesPartialFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("server:\n    listen_address: 0.0.0.0:9000\nframes:\n    count: 4\nprompt:\n    language: French\n"), 0o600)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, "", true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9000" || cfg.Frames.Count != 4 || cfg.Prompt.Language != "French" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Frames.JPEGQuality != 60 || cfg.Model.BaseURL == "" {
		t.Fatalf("missing keys not filled from example: %+v", cfg)
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(saved), "jpeg_quality") || !strings.Contains(string(saved), "0.0.0.0:9000") {
		t.Fatalf("upgraded config was not saved:\n%s", saved)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("GEMINI_MODEL_NAME=gemini-from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("GEMINI_MODEL_NAME")
	t.Cleanup(func() { os.Unsetenv("GEMINI_MODEL_NAME") })
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/recipes")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), envFile, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.APIKey != "secret" || cfg.Model.Model != "gemini-from-dotenv" {
		t.Fatalf("model env not applied: %+v", cfg.Model)
	}
	if cfg.Database.Type != "postgres" || cfg.Database.URI != "postgres://localhost/recipes" {
		t.Fatalf("database env not applied: %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level env not applied: %q", cfg.Logging.Level)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	if _, err := Load("", filepath.Join(t.TempDir(), ".env"), false); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, "", false); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"message":"shown"`) {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
	if got := (LoggingConfig{Level: "nonsense"}).NewLogger(&buf).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
}

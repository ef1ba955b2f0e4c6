package fetch

import (
	"os"
	"strconv"
	"strings"

	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

// ApplyEnvDefaults overrides config fields from environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	cfg = cfg.WithDefaults()
	cfg.UserAgent = stringutil.EnvOr(cfg.UserAgent, "FETCH_USER_AGENT")
	cfg.ProxyURL = stringutil.EnvOr(cfg.ProxyURL, "FETCH_PROXY_URL")
	if secs, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FETCH_TIMEOUT_SECONDS"))); err == nil && secs > 0 {
		cfg.TimeoutSecs = secs
	}
	return cfg
}

package fetch

import "time"

const (
	DefaultTimeoutSecs      = 10
	DefaultMaxBodyChars     = 50_000
	DefaultMaxPageBytes     = 5 << 20
	DefaultMaxSnapshotBytes = 50_000
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Config controls how web pages are retrieved and trimmed.
type Config struct {
	TimeoutSecs      int    `yaml:"timeout_seconds"`
	UserAgent        string `yaml:"user_agent"`
	MaxBodyChars     int    `yaml:"max_body_chars"`
	MaxPageBytes     int64  `yaml:"max_page_bytes"`
	MaxSnapshotBytes int    `yaml:"max_snapshot_bytes"`
	ProxyURL         string `yaml:"proxy_url"`

	// AllowPrivateNetworks disables the loopback/private address block.
	AllowPrivateNetworks bool `yaml:"allow_private_networks"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = DefaultTimeoutSecs
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyChars <= 0 {
		c.MaxBodyChars = DefaultMaxBodyChars
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = DefaultMaxPageBytes
	}
	if c.MaxSnapshotBytes <= 0 {
		c.MaxSnapshotBytes = DefaultMaxSnapshotBytes
	}
	return c
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

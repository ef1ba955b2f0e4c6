package frames

const (
	DefaultCount        = 15
	DefaultJPEGQuality  = 60
	DefaultMaxDimension = 768
)

type Config struct {
	Count        int    `yaml:"count"`
	JPEGQuality  int    `yaml:"jpeg_quality"`
	MaxDimension int    `yaml:"max_dimension"`
	Workers      int    `yaml:"workers"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	TempDir      string `yaml:"temp_dir"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Count <= 0 {
		c.Count = DefaultCount
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.MaxDimension <= 0 {
		c.MaxDimension = DefaultMaxDimension
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

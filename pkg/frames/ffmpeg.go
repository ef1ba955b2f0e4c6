package frames

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.mau.fi/util/ffmpeg"
)

var ErrFFmpegUnavailable = errors.New("ffmpeg is not installed")

// FFmpegBackend probes streams with ffprobe and grabs single frames with ffmpeg.
type FFmpegBackend struct {
	TempDir string
}

func NewFFmpegBackend(cfg *Config) *FFmpegBackend {
	cfg = cfg.WithDefaults()
	if cfg.FFmpegPath != "" {
		ffmpeg.SetPath(cfg.FFmpegPath)
	}
	if cfg.FFprobePath != "" {
		ffmpeg.SetProbePath(cfg.FFprobePath)
	}
	return &FFmpegBackend{TempDir: cfg.TempDir}
}

func (b *FFmpegBackend) Probe(ctx context.Context, streamURL string) (*StreamInfo, error) {
	if !ffmpeg.ProbeSupported() || !ffmpeg.Supported() {
		return nil, ErrFFmpegUnavailable
	}
	result, err := ffmpeg.Probe(ctx, streamURL)
	if err != nil {
		return nil, err
	}
	for _, stream := range result.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info := &StreamInfo{
			FPS:      parseFrameRate(stream.AvgFrameRate),
			Duration: stream.Duration,
		}
		if info.FPS <= 0 {
			info.FPS = parseFrameRate(stream.RFrameRate)
		}
		if info.Duration <= 0 && result.Format != nil {
			info.Duration = result.Format.Duration
		}
		info.TotalFrames = stream.NumberOfFrames
		if info.TotalFrames <= 0 {
			info.TotalFrames = int(math.Round(info.Duration * info.FPS))
		}
		return info, nil
	}
	return nil, fmt.Errorf("no video stream found")
}

func (b *FFmpegBackend) Frame(ctx context.Context, streamURL string, index int, info *StreamInfo) ([]byte, error) {
	if info.FPS <= 0 {
		return nil, fmt.Errorf("unknown frame rate")
	}
	dir, err := os.MkdirTemp(b.TempDir, "recipe-frame-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, "frame.png")
	timestamp := strconv.FormatFloat(float64(index)/info.FPS, 'f', 3, 64)
	err = ffmpeg.ConvertPathWithDestination(ctx, streamURL, output,
		[]string{"-ss", timestamp},
		[]string{"-frames:v", "1", "-an"},
		false)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(output)
}

// parseFrameRate parses ffprobe rates like "30000/1001".
func parseFrameRate(value string) float64 {
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

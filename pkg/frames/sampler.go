package frames

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

var ErrNoFrames = errors.New("stream reports zero frames")

// FrameSet holds JPEG frames sampled from a video, in sampling order.
type FrameSet struct {
	SourceURL      string
	Frames         [][]byte
	RequestedCount int
	ActualCount    int
}

// StreamInfo describes an opened media stream.
type StreamInfo struct {
	TotalFrames int
	FPS         float64
	Duration    float64
}

// Backend opens media streams and decodes single frames from them.
type Backend interface {
	Probe(ctx context.Context, streamURL string) (*StreamInfo, error)
	// Frame decodes the frame at the given index as an image file (PNG, JPEG, GIF or WebP).
	Frame(ctx context.Context, streamURL string, index int, info *StreamInfo) ([]byte, error)
}

type Sampler struct {
	cfg      Config
	resolver Resolver
	backend  Backend
}

func NewSampler(cfg *Config, resolver Resolver, backend Backend) *Sampler {
	return &Sampler{cfg: *cfg.WithDefaults(), resolver: resolver, backend: backend}
}

// SampleIndices returns n indices evenly spread over [0, total-1], rounded to the nearest frame.
func SampleIndices(n, total int) []int {
	if n <= 0 || total <= 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}
	indices := make([]int, n)
	step := float64(total-1) / float64(n-1)
	for i := range indices {
		indices[i] = int(math.Round(float64(i) * step))
	}
	return indices
}

// ExtractFrames samples count frames from the video. Failures never propagate: an unresolvable
// or unreadable stream yields an empty set and individual bad frames are skipped.
func (s *Sampler) ExtractFrames(ctx context.Context, videoURL string, count int) *FrameSet {
	if count <= 0 {
		count = s.cfg.Count
	}
	log := zerolog.Ctx(ctx).With().Str("component", "frame_sampler").Str("video_url", videoURL).Logger()
	set := &FrameSet{SourceURL: videoURL, RequestedCount: count, Frames: [][]byte{}}

	streamURL, err := s.resolver.Resolve(ctx, videoURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to resolve video stream, continuing without frames")
		return set
	}
	info, err := s.backend.Probe(ctx, streamURL)
	if err == nil && info.TotalFrames <= 0 {
		err = ErrNoFrames
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open video stream, continuing without frames")
		return set
	}

	indices := SampleIndices(count, info.TotalFrames)
	results := make([][]byte, len(indices))
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	for i, index := range indices {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.grab(ctx, &log, streamURL, index, info)
		}()
	}
	wg.Wait()

	for _, frame := range results {
		if frame != nil {
			set.Frames = append(set.Frames, frame)
		}
	}
	set.ActualCount = len(set.Frames)
	log.Debug().
		Int("total_frames", info.TotalFrames).
		Int("requested", set.RequestedCount).
		Int("extracted", set.ActualCount).
		Msg("Sampled video frames")
	return set
}

func (s *Sampler) grab(ctx context.Context, log *zerolog.Logger, streamURL string, index int, info *StreamInfo) []byte {
	raw, err := s.backend.Frame(ctx, streamURL, index, info)
	if err != nil {
		log.Debug().Err(err).Int("frame_index", index).Msg("Skipping undecodable frame")
		return nil
	}
	encoded, err := EncodeJPEG(raw, s.cfg.MaxDimension, s.cfg.JPEGQuality)
	if err != nil {
		log.Debug().Err(err).Int("frame_index", index).Msg("Skipping frame that failed to re-encode")
		return nil
	}
	return encoded
}

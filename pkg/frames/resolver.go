package frames

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/beeper/recipe-ingest/pkg/recipe"
)

var (
	ErrUnsupportedURL  = errors.New("unsupported video url")
	ErrNoPlayableVideo = errors.New("no playable video format")
)

// Resolver turns a video page or share URL into a directly readable media stream URL.
type Resolver interface {
	Resolve(ctx context.Context, videoURL string) (string, error)
}

// DirectResolver passes plain http(s) media URLs through unchanged.
type DirectResolver struct{}

func (DirectResolver) Resolve(_ context.Context, videoURL string) (string, error) {
	parsed, err := url.Parse(videoURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, videoURL)
	}
	return parsed.String(), nil
}

// YouTubeResolver looks up a progressive stream through the YouTube player API.
type YouTubeResolver struct {
	Client *youtube.Client
	// MinHeight is the smallest resolution worth analyzing. Lower formats are used only as a fallback.
	MinHeight int
}

func NewYouTubeResolver(httpClient *http.Client) *YouTubeResolver {
	return &YouTubeResolver{
		Client:    &youtube.Client{HTTPClient: httpClient},
		MinHeight: 360,
	}
}

func (r *YouTubeResolver) Resolve(ctx context.Context, videoURL string) (string, error) {
	video, err := r.Client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("failed to look up video: %w", err)
	}
	format := r.pickFormat(video.Formats)
	if format == nil {
		return "", ErrNoPlayableVideo
	}
	streamURL, err := r.Client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("failed to get stream url: %w", err)
	}
	return streamURL, nil
}

// pickFormat prefers the smallest mp4 that still meets MinHeight, since frames are downscaled anyway.
func (r *YouTubeResolver) pickFormat(formats youtube.FormatList) *youtube.Format {
	playable := formats.Select(func(f youtube.Format) bool {
		return f.Width > 0 && f.Height > 0 && strings.HasPrefix(f.MimeType, "video/")
	})
	if len(playable) == 0 {
		return nil
	}
	slices.SortStableFunc(playable, func(a, b youtube.Format) int {
		aMP4, bMP4 := strings.HasPrefix(a.MimeType, "video/mp4"), strings.HasPrefix(b.MimeType, "video/mp4")
		if aMP4 != bMP4 {
			if aMP4 {
				return -1
			}
			return 1
		}
		aOK, bOK := a.Height >= r.MinHeight, b.Height >= r.MinHeight
		switch {
		case aOK && bOK:
			return a.Height - b.Height
		case aOK != bOK:
			if aOK {
				return -1
			}
			return 1
		default:
			return b.Height - a.Height
		}
	})
	return &playable[0]
}

// HostResolver routes YouTube links through the YouTube resolver and everything else directly.
type HostResolver struct {
	YouTube Resolver
	Direct  Resolver
}

func (r *HostResolver) Resolve(ctx context.Context, videoURL string) (string, error) {
	parsed, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if r.YouTube != nil && recipe.IsYouTubeHost(parsed.Hostname()) {
		return r.YouTube.Resolve(ctx, videoURL)
	}
	return r.Direct.Resolve(ctx, videoURL)
}

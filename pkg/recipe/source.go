package recipe

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
)

type SourceKind string

const (
	SourceWebPage SourceKind = "web_page"
	SourceVideo   SourceKind = "video"
)

// SourceReference points at the external origin of the content being ingested.
type SourceReference struct {
	Kind    SourceKind
	Locator string
}

func (s SourceReference) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Locator)
}

// videoHosts are the hosts a stream resolver exists for. Other video sites are scraped as pages.
var videoHosts = []string{
	"youtube.com",
	"youtu.be",
}

var videoExtensions = []string{".mp4", ".webm", ".mov", ".m4v", ".mkv"}

// IsYouTubeHost reports whether the host belongs to YouTube.
func IsYouTubeHost(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// ClassifySource decides whether a URL points at a video or a regular web page.
func ClassifySource(rawURL string) SourceReference {
	ref := SourceReference{Kind: SourceWebPage, Locator: strings.TrimSpace(rawURL)}
	parsed, err := url.Parse(ref.Locator)
	if err != nil || parsed.Host == "" {
		return ref
	}
	host := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	for _, videoHost := range videoHosts {
		if host == videoHost || strings.HasSuffix(host, "."+videoHost) {
			ref.Kind = SourceVideo
			return ref
		}
	}
	if slices.Contains(videoExtensions, strings.ToLower(path.Ext(parsed.Path))) {
		ref.Kind = SourceVideo
	}
	return ref
}

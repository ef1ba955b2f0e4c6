package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"
	"golang.org/x/net/html/charset"

	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

const snapshotTooLarge = "Content too large"

// ScrapedContent is the normalized result of fetching one web page.
type ScrapedContent struct {
	SourceURL       string
	FinalURL        string
	PageTitle       string
	BodyText        string
	PrimaryImageURL string
	RawHTMLSnapshot string
}

type Fetcher struct {
	cfg    Config
	client *http.Client
}

func New(cfg *Config) (*Fetcher, error) {
	cfg = cfg.WithDefaults()
	dialer := &net.Dialer{Timeout: cfg.Timeout()}
	if !cfg.AllowPrivateNetworks {
		dialer.Control = blockPrivateNetworks
	}
	settings, err := exhttp.SensibleClientSettings.
		WithDial(dialer.DialContext).
		WithResponseHeaderTimeout(cfg.Timeout()).
		WithGlobalTimeout(cfg.Timeout()).
		WithProxy(cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch proxy: %w", err)
	}
	return &Fetcher{cfg: *cfg, client: settings.Compile()}, nil
}

// Fetch downloads a page and extracts its title, primary image and main text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*ScrapedContent, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "fetcher").Str("url", rawURL).Logger()
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		return nil, transportError(rawURL, ErrInvalidURL)
	}
	if !f.cfg.AllowPrivateNetworks && strings.EqualFold(parsedURL.Hostname(), "localhost") {
		return nil, transportError(rawURL, ErrBlockedAddress)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, transportError(rawURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("Page request failed")
		return nil, transportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug().Int("status_code", resp.StatusCode).Msg("Page returned non-success status")
		return nil, statusError(rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxPageBytes))
	if err != nil {
		return nil, transportError(rawURL, fmt.Errorf("failed to read response: %w", err))
	}
	html := decodeToUTF8(body, resp.Header.Get("Content-Type"))

	finalURL := parsedURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}
	content, err := f.parse(html, rawURL, finalURL)
	if err != nil {
		return nil, transportError(rawURL, err)
	}
	log.Debug().
		Int("status_code", resp.StatusCode).
		Int("page_bytes", len(body)).
		Int("body_chars", utf8.RuneCountInString(content.BodyText)).
		Bool("has_image", content.PrimaryImageURL != "").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Fetched page")
	return content, nil
}

func (f *Fetcher) parse(html []byte, sourceURL string, finalURL *url.URL) (*ScrapedContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	content := &ScrapedContent{
		SourceURL: sourceURL,
		FinalURL:  finalURL.String(),
		PageTitle: stringutil.CollapseWhitespace(doc.Find("title").First().Text()),
	}
	// JSON-LD lives in script tags, so the image has to be found before they are stripped.
	content.PrimaryImageURL = primaryImage(doc, html, finalURL)
	doc.Find("script,noscript,style").Remove()
	content.BodyText = stringutil.Truncate(mainText(doc), f.cfg.MaxBodyChars)
	if len(html) < f.cfg.MaxSnapshotBytes {
		content.RawHTMLSnapshot = string(html)
	} else {
		content.RawHTMLSnapshot = snapshotTooLarge
	}
	return content, nil
}

func decodeToUTF8(data []byte, contentType string) []byte {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

func blockPrivateNetworks(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

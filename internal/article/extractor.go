// Package article fetches the external page a post links to and derives a
// compact summary from meta tags and readability extraction.
package article

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/aeromax/news-for-schmucks/internal/pool"
)

const (
	defaultTimeout     = 20 * time.Second
	defaultUserAgent   = "news-for-schmucks/1.0 (+https://github.com/aeromax/news-for-schmucks)"
	defaultConcurrency = 3
	summarySentences   = 3
	maxBodyBytes       = 5 << 20
)

// Extract is the derived summary of one article URL. On failure only URL and
// Err are set; the pipeline continues with the partial record.
type Extract struct {
	URL         string
	Title       string
	Byline      string
	SiteName    string
	Published   string
	TopImage    string
	Description string
	Text        string
	Summary     string
	Length      int
	Err         string
}

// Extractor fetches and parses external article pages.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout sets the per-fetch HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.httpClient.Timeout = d }
}

// New creates an article extractor with a 20-second fetch timeout.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches one URL and pulls title, byline, and body text via
// readability, falling back to meta tags for fields readability misses.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Extract, error) {
	parsed, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	html, err := e.fetchHTML(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	meta := extractMeta(html)

	var title, byline, text string
	if art, err := readability.FromReader(bytes.NewReader(html), parsed); err == nil {
		title = strings.TrimSpace(art.Title)
		byline = strings.TrimSpace(art.Byline)
		text = cleanText(art.TextContent)
	} else {
		slog.Debug("Readability parse failed", "url", rawURL, "error", err)
	}
	if title == "" {
		title = meta.title
	}
	if byline == "" {
		byline = meta.byline
	}

	summary := meta.description
	if summary == "" {
		summary = firstSentences(text, summarySentences)
	}

	return &Extract{
		URL:         rawURL,
		Title:       title,
		Byline:      byline,
		SiteName:    meta.siteName,
		Published:   meta.published,
		TopImage:    meta.image,
		Description: meta.description,
		Text:        text,
		Summary:     summary,
		Length:      len(text),
	}, nil
}

// ExtractAll fetches every URL with bounded concurrency. A failed
// extraction yields a placeholder record carrying the error; it never
// aborts sibling extractions.
func (e *Extractor) ExtractAll(ctx context.Context, urls []string, concurrency int) []*Extract {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return pool.MapWithLimit(ctx, urls, concurrency, func(ctx context.Context, _ int, u string) *Extract {
		extract, err := e.Extract(ctx, u)
		if err != nil {
			slog.Warn("Article extraction failed", "url", u, "error", err)
			return &Extract{URL: u, Err: err.Error()}
		}
		return extract
	})
}

func (e *Extractor) fetchHTML(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("article fetch returned status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read article body: %w", err)
	}
	return body, nil
}

type metaFields struct {
	title       string
	description string
	siteName    string
	published   string
	byline      string
	image       string
}

// extractMeta pulls standard og:/twitter:/meta fields from the document.
// Selector lists are ordered by preference.
func extractMeta(html []byte) metaFields {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return metaFields{}
	}

	title := getMeta(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`, `meta[name="title"]`)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return metaFields{
		title:       title,
		description: getMeta(doc, `meta[name="description"]`, `meta[property="og:description"]`, `meta[name="twitter:description"]`),
		siteName:    getMeta(doc, `meta[property="og:site_name"]`),
		published:   getMeta(doc, `meta[property="article:published_time"]`, `meta[name="pubdate"]`, `meta[name="date"]`),
		byline:      getMeta(doc, `meta[name="author"]`, `meta[property="article:author"]`),
		image:       getMeta(doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`),
	}
}

func getMeta(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		content := el.AttrOr("content", "")
		if content == "" {
			content = el.AttrOr("value", "")
		}
		if content == "" {
			content = el.Text()
		}
		if v := strings.TrimSpace(content); v != "" {
			return v
		}
	}
	return ""
}

func validateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https scheme: %s", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL must have a host: %s", rawURL)
	}
	return parsed, nil
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// firstSentences returns the prefix of text through the nth
// sentence-terminating punctuation mark followed by a space.
func firstSentences(text string, n int) string {
	count := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' {
				count++
				if count >= n {
					return text[:i+1]
				}
			}
		}
	}
	return text
}

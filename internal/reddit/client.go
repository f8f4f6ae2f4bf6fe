package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultBaseURL    = "https://www.reddit.com"
	defaultUserAgent  = "news-for-schmucks/1.0 (+https://github.com/aeromax/news-for-schmucks)"
	defaultMaxRetries = 4

	listingTimeout = 15 * time.Second
	profileTimeout = 10 * time.Second

	backoffStart = 1 * time.Second
	backoffCap   = 16 * time.Second
	jitterMax    = 500 * time.Millisecond

	retryAfterMin = 1 * time.Second
	retryAfterMax = 30 * time.Second
)

// Client fetches from Reddit's public JSON API. HTTP 429 and 5xx responses
// are retried with backoff; other errors surface to the caller immediately.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	subreddit  string
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithSubreddit sets the forum posts are listed from.
func WithSubreddit(name string) Option {
	return func(c *Client) { c.subreddit = name }
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// New creates a Reddit client with the default identification header.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		subreddit:  "news",
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShapeError reports an upstream response that does not match the documented
// listing structure. It is never retried: it signals an upstream contract
// change, not a transient condition.
type ShapeError struct {
	Detail string
}

func (e *ShapeError) Error() string {
	return "reddit: unexpected response shape: " + e.Detail
}

// httpError carries the status and Retry-After hint of a non-2xx response.
type httpError struct {
	status     int
	retryAfter time.Duration
	url        string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("reddit: status %d for %s", e.status, e.url)
}

// getJSON issues a GET and decodes the body into v, retrying 429/5xx and
// network-level failures with backoff. The per-attempt timeout applies to
// each try independently; backoff waits are context-aware so a cancelled
// caller never blocks on a sleep.
func (c *Client) getJSON(ctx context.Context, rawURL string, timeout time.Duration, v any) error {
	for attempt := 0; ; attempt++ {
		err := c.fetch(ctx, rawURL, timeout, v)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt >= c.maxRetries || !retryable(err) {
			return err
		}
		wait := backoffDelay(err, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) fetch(ctx context.Context, rawURL string, timeout time.Duration, v any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reddit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpError{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			url:        rawURL,
		}
	}

	// Read the body before decoding: a timeout or reset mid-body is a
	// transient failure, not an upstream contract change, and must stay
	// retryable.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ShapeError{Detail: fmt.Sprintf("decode body: %v", err)}
	}
	return nil
}

// retryable reports whether an error is a transient condition worth another
// attempt. Shape errors and non-429 client errors are terminal.
func retryable(err error) bool {
	var se *ShapeError
	if errors.As(err, &se) {
		return false
	}
	var he *httpError
	if errors.As(err, &he) {
		return he.status == http.StatusTooManyRequests || he.status >= 500
	}
	// Network failures and per-attempt timeouts get the same treatment.
	return true
}

// backoffDelay picks the wait before the next attempt: the server's
// Retry-After clamped to [1s, 30s] when present, otherwise exponential
// backoff from 1s capped at 16s plus up to 500ms of jitter.
func backoffDelay(err error, attempt int) time.Duration {
	var he *httpError
	if errors.As(err, &he) && he.retryAfter > 0 {
		d := he.retryAfter
		if d < retryAfterMin {
			d = retryAfterMin
		}
		if d > retryAfterMax {
			d = retryAfterMax
		}
		return d
	}
	base := backoffStart << attempt
	if base > backoffCap || base <= 0 {
		base = backoffCap
	}
	return base + time.Duration(rand.Int63n(int64(jitterMax)))
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func clampLimit(n, lo, hi, fallback int) int {
	if n == 0 {
		n = fallback
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Package onthisday picks a random historical event for today's date from
// the Wikimedia feed API. The result seasons the daily script; failures are
// never fatal to a run.
package onthisday

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Event is one historical entry with its year and, when available, the title
// of the first linked page.
type Event struct {
	Text  string
	Year  int
	Title string
}

// Client queries the Wikimedia on-this-day feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	lang       string
	pick       func(n int) int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API origin, for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithLang sets the feed language edition.
func WithLang(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

// WithPick overrides the random index function, for tests.
func WithPick(fn func(n int) int) Option {
	return func(c *Client) { c.pick = fn }
}

// New creates a feed client with a 15-second timeout.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.wikimedia.org",
		userAgent:  "news-for-schmucks/1.0 (+https://github.com/aeromax/news-for-schmucks)",
		lang:       "en",
		pick:       rand.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type feedEntry struct {
	Text  string `json:"text"`
	Year  int    `json:"year"`
	Pages []struct {
		Titles struct {
			Normalized string `json:"normalized"`
		} `json:"titles"`
	} `json:"pages"`
}

type feedResponse struct {
	Selected []feedEntry `json:"selected"`
	Events   []feedEntry `json:"events"`
	Births   []feedEntry `json:"births"`
	Deaths   []feedEntry `json:"deaths"`
}

// RandomEvent fetches the feed for the given date and returns one random
// entry that has text. Curated "selected" entries are pooled first, then
// events, then births and deaths as fallback material.
func (c *Client) RandomEvent(ctx context.Context, month, day int) (Event, error) {
	endpoint := fmt.Sprintf("%s/feed/v1/wikipedia/%s/onthisday/selected/%02d/%02d",
		c.baseURL, url.PathEscape(c.lang), month, day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Event{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Event{}, fmt.Errorf("on-this-day fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Event{}, fmt.Errorf("on-this-day feed returned %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return Event{}, fmt.Errorf("decode on-this-day feed: %w", err)
	}

	pool := make([]feedEntry, 0,
		len(feed.Selected)+len(feed.Events)+len(feed.Births)+len(feed.Deaths))
	for _, bucket := range [][]feedEntry{feed.Selected, feed.Events, feed.Births, feed.Deaths} {
		for _, e := range bucket {
			if strings.TrimSpace(e.Text) != "" {
				pool = append(pool, e)
			}
		}
	}
	if len(pool) == 0 {
		return Event{}, nil
	}

	chosen := pool[c.pick(len(pool))]
	ev := Event{Text: strings.TrimSpace(chosen.Text), Year: chosen.Year}
	if len(chosen.Pages) > 0 {
		ev.Title = chosen.Pages[0].Titles.Normalized
	}
	return ev, nil
}

// RandomEventToday is RandomEvent for the local date.
func (c *Client) RandomEventToday(ctx context.Context) (Event, error) {
	now := time.Now()
	return c.RandomEvent(ctx, int(now.Month()), now.Day())
}

// Package headlines fetches top US headlines from NewsAPI as optional extra
// context for the prompt.
package headlines

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultPageSize = 15

// Headline is one NewsAPI article with the fields the prompt cares about.
type Headline struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"-"`
	Content     string `json:"content"`
}

// Client queries the NewsAPI top-headlines endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API origin, for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// New creates a headlines client with a 15-second timeout. The API key is
// sent via the X-Api-Key header.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://newsapi.org",
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type headlinesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Headline
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// TopHeadlines fetches up to pageSize US headlines, dropping entries without
// content.
func (c *Client) TopHeadlines(ctx context.Context, pageSize int) ([]Headline, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	params := url.Values{
		"country":  {"us"},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	endpoint := c.baseURL + "/v2/top-headlines?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headlines endpoint returned %d", resp.StatusCode)
	}

	var parsed headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode headlines: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("headlines API error: %s", parsed.Message)
	}

	out := make([]Headline, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if strings.TrimSpace(a.Content) == "" {
			continue
		}
		h := a.Headline
		h.Source = a.Source.Name
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable headlines in response")
	}
	return out, nil
}

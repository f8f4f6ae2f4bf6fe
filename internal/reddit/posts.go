package reddit

import (
	"context"
	"fmt"
	"net/url"
)

// Timeframe selects the window for a "top" listing.
type Timeframe string

const (
	TimeframeHour  Timeframe = "hour"
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

// Post is a normalized Reddit submission. Missing upstream fields become
// zero values; raw listing objects never leave this package.
type Post struct {
	ID          string
	Title       string
	URL         string
	Selftext    string
	Permalink   string
	Ups         int
	NumComments int
	CreatedUTC  int64
	Domain      string
}

// PostOptions configures ListTopPosts.
type PostOptions struct {
	Timeframe Timeframe
	Limit     int // clamped to [1, 100], default 25
}

type postListing struct {
	Data *struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Domain      string  `json:"domain"`
}

// ListTopPosts fetches the subreddit's top posts for a timeframe. A response
// without the expected listing structure raises a *ShapeError: there is
// nothing to bundle without posts, so the caller treats it as fatal.
func (c *Client) ListTopPosts(ctx context.Context, opts PostOptions) ([]Post, error) {
	tf := opts.Timeframe
	if tf == "" {
		tf = TimeframeDay
	}
	limit := clampLimit(opts.Limit, 1, 100, 25)

	endpoint := fmt.Sprintf("%s/r/%s/top.json?t=%s&limit=%d&raw_json=1",
		c.baseURL, c.subreddit, url.QueryEscape(string(tf)), limit)

	var listing postListing
	if err := c.getJSON(ctx, endpoint, listingTimeout, &listing); err != nil {
		return nil, fmt.Errorf("list top posts for r/%s: %w", c.subreddit, err)
	}
	if listing.Data == nil || listing.Data.Children == nil {
		return nil, &ShapeError{Detail: "missing data.children in post listing"}
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, Post{
			ID:          d.ID,
			Title:       d.Title,
			URL:         d.URL,
			Selftext:    d.Selftext,
			Permalink:   d.Permalink,
			Ups:         d.Ups,
			NumComments: d.NumComments,
			CreatedUTC:  int64(d.CreatedUTC),
			Domain:      d.Domain,
		})
	}
	return posts, nil
}

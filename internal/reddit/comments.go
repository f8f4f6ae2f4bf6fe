package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// CommentSort selects the upstream ordering of a comment listing.
type CommentSort string

const (
	SortTop           CommentSort = "top"
	SortBest          CommentSort = "best"
	SortNew           CommentSort = "new"
	SortControversial CommentSort = "controversial"
	SortOld           CommentSort = "old"
)

// Comment is a normalized top-level reply to a post.
type Comment struct {
	ID               string
	Author           string
	Body             string
	Score            int
	CreatedUTC       int64
	Permalink        string
	Distinguished    string // "moderator", "admin", or ""
	IsSubmitter      bool
	Controversiality int
	NumReports       int
}

// CommentOptions configures ListTopLevelComments.
type CommentOptions struct {
	Sort  CommentSort
	Limit int // clamped to [1, 100], default 50
}

type threadListing struct {
	Data struct {
		Children []struct {
			Kind string      `json:"kind"`
			Data commentData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type commentData struct {
	ID                string  `json:"id"`
	Author            string  `json:"author"`
	Body              string  `json:"body"`
	Score             int     `json:"score"`
	CreatedUTC        float64 `json:"created_utc"`
	Permalink         string  `json:"permalink"`
	ParentID          string  `json:"parent_id"`
	Distinguished     string  `json:"distinguished"`
	IsSubmitter       bool    `json:"is_submitter"`
	Controversiality  int     `json:"controversiality"`
	NumReports        int     `json:"num_reports"`
	RemovedByCategory string  `json:"removed_by_category"`
	BannedBy          any     `json:"banned_by"` // null, bool, or moderator name
	Subreddit         string  `json:"subreddit"`
}

// NormalizePermalink accepts a post permalink as either a path or a full
// URL, strips any query string, and guarantees a trailing slash.
func NormalizePermalink(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", fmt.Errorf("missing permalink")
	}
	if !strings.HasPrefix(p, "/") {
		if u, err := url.Parse(p); err == nil && u.Host != "" {
			p = u.Path
		} else {
			p = "/" + p
		}
	}
	if i := strings.Index(p, "?"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p, nil
}

// ListTopLevelComments fetches a post's comment listing and keeps only
// direct replies to the post itself. Nested replies are excluded so tone
// sampling reflects first reactions. Deleted, removed, and banned comments
// are dropped. Comments come back in the upstream sort order.
func (c *Client) ListTopLevelComments(ctx context.Context, permalink string, opts CommentOptions) ([]Comment, error) {
	sort := opts.Sort
	if sort == "" {
		sort = SortTop
	}
	limit := clampLimit(opts.Limit, 1, 100, 50)

	p, err := NormalizePermalink(permalink)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s.json?sort=%s&limit=%d&raw_json=1",
		c.baseURL, p, url.QueryEscape(string(sort)), limit)

	// Reddit returns a two-element array: [post listing, comment listing].
	var thread []threadListing
	if err := c.getJSON(ctx, endpoint, listingTimeout, &thread); err != nil {
		return nil, fmt.Errorf("list comments for %s: %w", p, err)
	}
	if len(thread) < 2 {
		return nil, nil
	}

	linkName := ""
	linkID := ""
	if posts := thread[0].Data.Children; len(posts) > 0 {
		linkID = posts[0].Data.ID
		if linkID != "" {
			linkName = "t3_" + linkID
		}
	}

	var comments []Comment
	for _, child := range thread[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		d := child.Data
		if linkName != "" && d.ParentID != "" && d.ParentID != linkName {
			continue
		}
		if d.RemovedByCategory != "" || truthy(d.BannedBy) {
			continue
		}
		if d.Author == "" || d.Author == "[deleted]" || d.Body == "" || d.Body == "[deleted]" {
			continue
		}
		perm := d.Permalink
		if perm == "" && linkID != "" {
			sub := d.Subreddit
			if sub == "" {
				sub = c.subreddit
			}
			perm = fmt.Sprintf("/r/%s/comments/%s/_/%s/", sub, linkID, d.ID)
		}
		comments = append(comments, Comment{
			ID:               d.ID,
			Author:           d.Author,
			Body:             d.Body,
			Score:            d.Score,
			CreatedUTC:       int64(d.CreatedUTC),
			Permalink:        perm,
			Distinguished:    d.Distinguished,
			IsSubmitter:      d.IsSubmitter,
			Controversiality: d.Controversiality,
			NumReports:       d.NumReports,
		})
	}
	return comments, nil
}

// truthy mirrors the upstream API's loose typing: banned_by is null for
// normal comments but may be a moderator name or a bare boolean.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

package reddit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListTopPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/news/top.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("t") != "week" {
			t.Errorf("t = %q, want week", q.Get("t"))
		}
		if q.Get("limit") != "10" {
			t.Errorf("limit = %q, want 10", q.Get("limit"))
		}
		w.Write([]byte(`{
			"data": {"children": [
				{"data": {"id": "abc", "title": "First", "url": "https://example.com/a",
					"permalink": "/r/news/comments/abc/first/", "ups": 120, "num_comments": 45,
					"created_utc": 1724800000.0, "domain": "example.com"}},
				{"data": {"id": "def", "title": "Second", "url": "https://other.net/b",
					"permalink": "/r/news/comments/def/second/", "ups": 80, "num_comments": 12,
					"created_utc": 1724810000.0, "domain": "other.net"}}
			]}
		}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	posts, err := c.ListTopPosts(context.Background(), PostOptions{Timeframe: TimeframeWeek, Limit: 10})
	if err != nil {
		t.Fatalf("ListTopPosts returned error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	first := posts[0]
	if first.ID != "abc" || first.Title != "First" || first.Ups != 120 ||
		first.NumComments != 45 || first.CreatedUTC != 1724800000 || first.Domain != "example.com" {
		t.Errorf("unexpected first post: %+v", first)
	}
}

func TestListTopPostsShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.ListTopPosts(context.Background(), PostOptions{})
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ShapeError, got %v", err)
	}
}

func TestListTopPostsEmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"children": []}}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	posts, err := c.ListTopPosts(context.Background(), PostOptions{})
	if err != nil {
		t.Fatalf("empty listing should not error, got %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts, want 0", len(posts))
	}
}

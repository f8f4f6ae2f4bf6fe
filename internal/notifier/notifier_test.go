package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotifyPostsWebhook(t *testing.T) {
	var payloads []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p map[string]any
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		payloads = append(payloads, p)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := New(srv.URL, "News for Schmucks")
	if err := n.Notify(context.Background(), "pipeline failed"); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	if len(payloads) != 1 {
		t.Fatalf("got %d posts, want 1", len(payloads))
	}
	if payloads[0]["text"] != "pipeline failed" {
		t.Errorf("text = %v", payloads[0]["text"])
	}
	if payloads[0]["username"] != "News for Schmucks" {
		t.Errorf("username = %v", payloads[0]["username"])
	}
}

func TestNotifyChunksLongMessages(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p struct {
			Text string `json:"text"`
		}
		json.Unmarshal(body, &p)
		texts = append(texts, p.Text)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := New(srv.URL, "bot")
	long := strings.Repeat("x", chunkLimit+10)
	if err := n.Notify(context.Background(), long); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	if len(texts) != 2 {
		t.Fatalf("got %d posts, want 2", len(texts))
	}
	if !strings.HasPrefix(texts[0], "(1/2)\n") {
		t.Errorf("first chunk missing counter: %q", texts[0][:10])
	}
	if !strings.HasPrefix(texts[1], "(2/2)\n") {
		t.Errorf("second chunk missing counter: %q", texts[1][:10])
	}
}

func TestNotifyWithoutWebhookIsNoop(t *testing.T) {
	n := New("", "bot")
	if n.Enabled() {
		t.Error("empty webhook should not be enabled")
	}
	if err := n.Notify(context.Background(), "message"); err != nil {
		t.Errorf("disabled notifier should not error: %v", err)
	}
}

func TestNotifyDropsEmptyMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty message should not be posted")
	}))
	defer srv.Close()

	n := New(srv.URL, "bot")
	if err := n.Notify(context.Background(), "   \n  "); err != nil {
		t.Errorf("Notify returned error: %v", err)
	}
}

func TestToChunks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
		want []string
	}{
		{"short", "abc", 5, []string{"abc"}},
		{"exact", "abcde", 5, []string{"abcde"}},
		{"split", "abcdefg", 3, []string{"abc", "def", "g"}},
		{"multibyte", "ééééé", 2, []string{"éé", "éé", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toChunks(tt.in, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

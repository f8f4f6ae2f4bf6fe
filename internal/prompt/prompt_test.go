package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aeromax/news-for-schmucks/internal/article"
	"github.com/aeromax/news-for-schmucks/internal/bundle"
	"github.com/aeromax/news-for-schmucks/internal/config"
	"github.com/aeromax/news-for-schmucks/internal/reddit"
	"github.com/aeromax/news-for-schmucks/internal/selector"
)

func sampleBundles() []bundle.Bundle {
	return []bundle.Bundle{
		{
			Post: reddit.Post{
				ID:        "a",
				Title:     "City council votes on the new transit plan",
				URL:       "https://example.com/transit",
				Permalink: "/r/news/comments/a/x/",
			},
			Article: &article.Extract{Summary: "The council approved the plan after a long debate."},
			Comments: []selector.Comment{
				{Comment: reddit.Comment{ID: "c1", Body: "About time they did something.", Score: 40}, ToneScore: 1},
				{Comment: reddit.Comment{ID: "c2", Body: "This will never get funded.", Score: 90}, ToneScore: 3},
			},
		},
		{
			Post: reddit.Post{
				ID:       "b",
				Title:    "Questions about the budget",
				Selftext: "Does anyone understand where the money went this quarter?",
			},
		},
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	bundles := sampleBundles()
	opts := DefaultOptions()
	first := Render(bundles, opts)
	second := Render(bundles, opts)
	if first != second {
		t.Error("identical input produced different renders")
	}
}

func TestRenderStoryNumbering(t *testing.T) {
	out := Render(sampleBundles(), DefaultOptions())
	if !strings.Contains(out, "Story 1: City council votes on the new transit plan") {
		t.Errorf("missing first story header:\n%s", out)
	}
	if !strings.Contains(out, "Story 2: Questions about the budget") {
		t.Errorf("missing second story header:\n%s", out)
	}
}

func TestRenderCommentOrderAndHeader(t *testing.T) {
	out := Render(sampleBundles(), DefaultOptions())
	if !strings.Contains(out, "Commentary:") {
		t.Fatalf("missing commentary header:\n%s", out)
	}
	// Higher tone renders first regardless of input order.
	hi := strings.Index(out, "This will never get funded.")
	lo := strings.Index(out, "About time they did something.")
	if hi < 0 || lo < 0 || hi > lo {
		t.Errorf("comments out of tone order (hi=%d, lo=%d):\n%s", hi, lo, out)
	}
}

func TestRenderOnThisDayLine(t *testing.T) {
	opts := DefaultOptions()
	opts.OnThisDayText = "In 1969, something notable happened."
	out := Render(nil, opts)
	if !strings.HasPrefix(out, "On This Day: In 1969, something notable happened.") {
		t.Errorf("missing on-this-day line:\n%s", out)
	}

	opts.ShowOnThisDay = false
	if out := Render(nil, opts); strings.Contains(out, "On This Day") {
		t.Errorf("on-this-day rendered while disabled:\n%s", out)
	}
}

func TestRenderHeadlinesBlock(t *testing.T) {
	opts := DefaultOptions()
	opts.Headlines = []string{"First headline", "Second headline"}
	out := Render(nil, opts)
	if !strings.Contains(out, "Today's headlines:\n- First headline\n- Second headline") {
		t.Errorf("missing headlines block:\n%s", out)
	}
}

func TestRenderArticleURLFlag(t *testing.T) {
	bundles := sampleBundles()

	// URLs stay out of the prompt unless explicitly enabled.
	out := Render(bundles, DefaultOptions())
	if strings.Contains(out, "URL: https://example.com/transit") {
		t.Errorf("URL rendered by default:\n%s", out)
	}

	opts := DefaultOptions()
	opts.ShowArticleURL = true
	out = Render(bundles, opts)
	if !strings.Contains(out, "URL: https://example.com/transit") {
		t.Errorf("URL missing while enabled:\n%s", out)
	}
}

func TestRenderMetaTags(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowMeta = true
	opts.ShowScore = true
	opts.ShowTone = true
	opts.ShowCues = true

	bundles := []bundle.Bundle{{
		Post: reddit.Post{ID: "a", Title: "T"},
		Comments: []selector.Comment{{
			Comment:     reddit.Comment{ID: "c1", Body: "Body text", Score: 12},
			ToneScore:   2.5,
			MatchedCues: []string{"this is fine", "corrupt", "lmao", "extra"},
		}},
	}}
	out := Render(bundles, opts)
	if !strings.Contains(out, "- [score=12 tone=2.5 cues=this is fine, corrupt, lmao] Body text") {
		t.Errorf("meta tag wrong:\n%s", out)
	}
}

func TestRenderCapsCommentsPerStory(t *testing.T) {
	var comments []selector.Comment
	for i := 0; i < 10; i++ {
		comments = append(comments, selector.Comment{
			Comment: reddit.Comment{ID: string(rune('a' + i)), Body: "comment body text"},
		})
	}
	bundles := []bundle.Bundle{{Post: reddit.Post{Title: "T"}, Comments: comments}}

	opts := DefaultOptions()
	opts.MaxCommentsPerStory = 4
	out := Render(bundles, opts)
	if got := strings.Count(out, "- comment body text"); got != 4 {
		t.Errorf("rendered %d comments, want 4", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short stays", "hello", 10, "hello"},
		{"exact stays", "hello", 5, "hello"},
		{"long trims", "hello world", 5, "hello…"},
		{"zero disables", "hello world", 0, "hello world"},
		{"multibyte safe", "héllo wörld", 6, "héllo …"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncatedLengthIsMaxPlusOne(t *testing.T) {
	in := strings.Repeat("x", 50)
	got := truncate(in, 20)
	if n := utf8.RuneCountInString(got); n != 21 {
		t.Errorf("truncated length = %d runes, want 21", n)
	}
}

func TestFromConfigKeepsLabelDefault(t *testing.T) {
	opts := FromConfig(config.PromptConfig{MaxCommentLen: 100})
	if opts.OnThisDayLabel != "On This Day:" {
		t.Errorf("label = %q, want default", opts.OnThisDayLabel)
	}
	if opts.MaxCommentLen != 100 {
		t.Errorf("MaxCommentLen = %d, want 100", opts.MaxCommentLen)
	}
}

// Package prompt renders story bundles into the compact text block handed to
// the language model. Rendering is pure and deterministic: the same bundles
// and options always produce the same string.
package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aeromax/news-for-schmucks/internal/bundle"
	"github.com/aeromax/news-for-schmucks/internal/config"
	"github.com/aeromax/news-for-schmucks/internal/selector"
)

const (
	permalinkPrefix = "https://www.reddit.com"
	maxCuesShown    = 3
	ellipsis        = "…"
)

// Options controls what each story block includes and how long its parts may
// be. Build one from config with FromConfig or start from DefaultOptions.
type Options struct {
	MaxCommentsPerStory int
	MaxCommentLen       int
	MaxSelftextLen      int
	ShowMeta            bool
	ShowScore           bool
	ShowTone            bool
	ShowCues            bool
	ShowArticleURL      bool
	ShowRedditLink      bool
	ShowArticleSummary  bool
	MaxSummaryLen       int

	ShowCommentaryHeader bool

	ShowOnThisDay  bool
	OnThisDayLabel string
	OnThisDayText  string

	HeadlinesLabel string
	Headlines      []string
}

// DefaultOptions returns the rendering defaults used when no config is
// present.
func DefaultOptions() Options {
	return Options{
		MaxCommentsPerStory:  6,
		MaxCommentLen:        200,
		MaxSelftextLen:       300,
		ShowArticleSummary:   true,
		MaxSummaryLen:        320,
		ShowCommentaryHeader: true,
		ShowOnThisDay:        true,
		OnThisDayLabel:       "On This Day:",
		HeadlinesLabel:       "Today's headlines:",
	}
}

// FromConfig maps the prompt config block onto Options, keeping defaults for
// fields the block cannot express.
func FromConfig(pc config.PromptConfig) Options {
	opts := DefaultOptions()
	opts.MaxCommentsPerStory = pc.MaxCommentsPerStory
	opts.MaxCommentLen = pc.MaxCommentLen
	opts.MaxSelftextLen = pc.MaxSelftextLen
	opts.ShowMeta = pc.ShowMeta
	opts.ShowScore = pc.ShowScore
	opts.ShowTone = pc.ShowTone
	opts.ShowCues = pc.ShowCues
	opts.ShowArticleURL = pc.ShowArticleURL
	opts.ShowRedditLink = pc.ShowRedditLink
	opts.ShowArticleSummary = pc.ShowArticleSummary
	opts.MaxSummaryLen = pc.MaxSummaryLen
	opts.ShowCommentaryHeader = pc.ShowCommentaryHeader
	opts.ShowOnThisDay = pc.ShowOnThisDay
	if pc.OnThisDayLabel != "" {
		opts.OnThisDayLabel = pc.OnThisDayLabel
	}
	return opts
}

// Render produces one text block per bundle, numbered from 1, preceded by the
// optional on-this-day line and headlines list. Comments are re-sorted by
// tone then score before the per-story cap is applied, so the output does not
// depend on upstream ordering.
func Render(bundles []bundle.Bundle, opts Options) string {
	var lines []string

	if opts.ShowOnThisDay && strings.TrimSpace(opts.OnThisDayText) != "" {
		lines = append(lines, opts.OnThisDayLabel+" "+strings.TrimSpace(opts.OnThisDayText), "")
	}
	if len(opts.Headlines) > 0 {
		lines = append(lines, opts.HeadlinesLabel)
		for _, h := range opts.Headlines {
			lines = append(lines, "- "+h)
		}
		lines = append(lines, "")
	}

	for i, b := range bundles {
		lines = append(lines, fmt.Sprintf("Story %d: %s", i+1, b.Post.Title))
		if opts.ShowArticleURL && b.Post.URL != "" {
			lines = append(lines, "URL: "+b.Post.URL)
		}
		if opts.ShowArticleSummary && b.Article != nil && b.Article.Summary != "" {
			lines = append(lines, "Summary: "+truncate(b.Article.Summary, opts.MaxSummaryLen))
		}
		if b.Post.Selftext != "" {
			lines = append(lines, "Selftext: "+truncate(b.Post.Selftext, opts.MaxSelftextLen))
		}
		if opts.ShowRedditLink && b.Post.Permalink != "" {
			lines = append(lines, "Reddit: "+absoluteLink(b.Post.Permalink))
		}
		lines = append(lines, commentLines(b.Comments, opts)...)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func commentLines(comments []selector.Comment, opts Options) []string {
	sorted := make([]selector.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ToneScore != sorted[j].ToneScore {
			return sorted[i].ToneScore > sorted[j].ToneScore
		}
		return sorted[i].Score > sorted[j].Score
	})
	if opts.MaxCommentsPerStory > 0 && len(sorted) > opts.MaxCommentsPerStory {
		sorted = sorted[:opts.MaxCommentsPerStory]
	}

	var lines []string
	if opts.ShowCommentaryHeader && len(sorted) > 0 {
		lines = append(lines, "Commentary:")
	}
	for _, c := range sorted {
		body := truncate(c.Body, opts.MaxCommentLen)
		meta := metaTag(c, opts)
		if meta != "" {
			lines = append(lines, "- ["+meta+"] "+body)
		} else {
			lines = append(lines, "- "+body)
		}
	}
	return lines
}

func metaTag(c selector.Comment, opts Options) string {
	if !opts.ShowMeta {
		return ""
	}
	var parts []string
	if opts.ShowScore {
		parts = append(parts, "score="+strconv.Itoa(c.Score))
	}
	if opts.ShowTone {
		parts = append(parts, "tone="+strconv.FormatFloat(c.ToneScore, 'g', -1, 64))
	}
	if opts.ShowCues && len(c.MatchedCues) > 0 {
		cues := c.MatchedCues
		if len(cues) > maxCuesShown {
			cues = cues[:maxCuesShown]
		}
		parts = append(parts, "cues="+strings.Join(cues, ", "))
	}
	return strings.Join(parts, " ")
}

// truncate cuts s to max runes and appends a single ellipsis rune, so a
// truncated result is exactly max+1 runes. Non-positive max disables
// truncation.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}

func absoluteLink(permalink string) string {
	if strings.HasPrefix(permalink, "http") {
		return permalink
	}
	return permalinkPrefix + permalink
}

// Package tone computes a heuristic authenticity/sarcasm signal for comment
// bodies. It is pure and deterministic: fixed lexical tables, no I/O. The
// consumer only needs a relative ranking signal, not a calibrated sentiment
// classifier, so a simple additive model is enough.
package tone

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	sarcasmWeight  = 2.0
	stanceWeight   = 1.0
	slangWeight    = 0.5
	slangCap       = 1.5
	quotePenalty   = 2.0
	linkPenalty    = 1.0
	quoteThreshold = 0.3
	maxURLs        = 2
)

var (
	urlRe      = regexp.MustCompile(`(?i)https?://\S+`)
	linkOnlyRe = regexp.MustCompile(`(?i)^https?://\S+$`)
	codeRe     = regexp.MustCompile("`{1,3}[^`]*`{1,3}")
	mdLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emphasisRe = regexp.MustCompile(`\*\*?|__|~~|>+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Result is a tone score plus the cue strings that produced it, kept for
// traceability.
type Result struct {
	Score float64
	Cues  []string
}

// Score rates a comment body. Sarcasm phrases add 2, stance words add 1,
// slang tokens add 0.5 each capped at 1.5 total; quote-heavy bodies
// (quote-line ratio above 0.3) lose 2 and link dumps (more than two URLs)
// lose 1. Matched cues are deduplicated in first-match order.
func Score(body string) Result {
	s := strings.ToLower(body)
	var score float64
	var cues []string

	for _, phrase := range sarcasmCues {
		if strings.Contains(s, phrase) {
			score += sarcasmWeight
			cues = append(cues, phrase)
		}
	}
	for _, word := range stanceWords {
		if strings.Contains(s, word) {
			score += stanceWeight
			cues = append(cues, word)
		}
	}

	slangHits := 0
	for _, token := range slangOrIntensity {
		if strings.Contains(s, token) {
			slangHits++
			cues = append(cues, token)
		}
	}
	slang := float64(slangHits) * slangWeight
	if slang > slangCap {
		slang = slangCap
	}
	score += slang

	if QuoteLineRatio(body) > quoteThreshold {
		score -= quotePenalty
	}
	if URLCount(body) > maxURLs {
		score -= linkPenalty
	}

	return Result{Score: score, Cues: dedupe(cues)}
}

// QuoteLineRatio returns the fraction of non-empty lines that are
// block-quotes (starting with ">" or its HTML entity).
func QuoteLineRatio(body string) float64 {
	total := 0
	quoted := 0
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if strings.HasPrefix(line, ">") || strings.HasPrefix(line, "&gt;") {
			quoted++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(quoted) / float64(total)
}

// URLCount counts http(s) URLs in the text.
func URLCount(s string) int {
	return len(urlRe.FindAllString(s, -1))
}

// StripMarkdown removes code spans, link syntax (keeping the label),
// emphasis markers, and quote prefixes, then collapses whitespace.
func StripMarkdown(s string) string {
	s = codeRe.ReplaceAllString(s, " ")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = emphasisRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsBotLike reports whether a comment reads as bot-authored, either from the
// username pattern or from self-disclosure in the body.
func IsBotLike(author, body string) bool {
	a := strings.ToLower(author)
	if a == "automoderator" || a == "auto_mod" || strings.HasSuffix(a, "bot") {
		return true
	}
	b := strings.ToLower(body)
	return strings.Contains(b, "i am a bot") || strings.Contains(b, "beep boop")
}

// LowSignal reports whether a body carries too little text to be worth
// scoring: empty, link-only, under ~20 characters once markdown is stripped,
// or a URL with no more than four words around it.
func LowSignal(body string) bool {
	s := strings.TrimSpace(body)
	if s == "" {
		return true
	}
	if linkOnlyRe.MatchString(s) {
		return true
	}
	text := StripMarkdown(s)
	if utf8.RuneCountInString(text) < 20 {
		return true
	}
	if URLCount(s) > 0 && len(strings.Fields(text)) <= 4 {
		return true
	}
	return false
}

func dedupe(cues []string) []string {
	seen := make(map[string]bool, len(cues))
	out := cues[:0]
	for _, c := range cues {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

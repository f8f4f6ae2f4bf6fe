// Package selector chooses a bounded, diverse, ranked set of comments per
// post. Tone is the primary signal; author reputation is a secondary
// "credibility" bucket layered on top. A floor on the top bucket guarantees
// the bundle always has some commentary even when nothing scores above zero,
// and a hard cap keeps the prompt from bloating.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aeromax/news-for-schmucks/internal/reddit"
	"github.com/aeromax/news-for-schmucks/internal/tone"
)

const (
	fetchLimit = 50

	topFloor     = 3
	topCap       = 12
	highKarmaCap = 2
	totalCap     = 12

	// Stricter than the lister's own quote handling: quote-heavy comments
	// read as low-originality and are filtered out entirely here.
	quoteRatioLimit = 0.4

	defaultProfileLookups   = 6
	defaultKarmaThreshold   = 10000
	defaultMinAuthorDays    = 730
	secondsPerDay           = 86400
	permalinkAbsolutePrefix = "https://www.reddit.com"
)

// Bucket names a selection category a comment can belong to.
const (
	BucketTop       = "top"
	BucketHighKarma = "high_karma"
)

// CommentLister fetches a post's top-level comments.
type CommentLister interface {
	ListTopLevelComments(ctx context.Context, permalink string, opts reddit.CommentOptions) ([]reddit.Comment, error)
}

// ProfileLookup fetches author reputation, best-effort.
type ProfileLookup interface {
	LookupProfiles(ctx context.Context, usernames []string, maxUsers int) map[string]reddit.AuthorProfile
}

// Comment is a selected comment enriched with tone and author metadata.
type Comment struct {
	reddit.Comment
	Buckets       []string
	ToneScore     float64
	MatchedCues   []string
	AuthorKarma   int
	AuthorAgeDays int
}

// Options tunes a selection run. Zero values fall back to the documented
// defaults.
type Options struct {
	MaxProfileLookups   int
	HighKarmaThreshold  int
	HighKarmaMinAgeDays int
}

// Selector combines comment listing, author lookup, and tone scoring.
type Selector struct {
	comments CommentLister
	profiles ProfileLookup
	now      func() time.Time
}

// Option configures a Selector.
type Option func(*Selector)

// WithNow overrides the clock used for author-age computation.
func WithNow(fn func() time.Time) Option {
	return func(s *Selector) { s.now = fn }
}

// New creates a Selector over the given collaborators.
func New(comments CommentLister, profiles ProfileLookup, opts ...Option) *Selector {
	s := &Selector{
		comments: comments,
		profiles: profiles,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select fetches up to 50 top-sorted comments, filters junk, scores tone,
// flags high-karma authors, and applies floor-then-cap-then-fill selection:
// at least 3 from the "top" bucket when available, up to 2 more from
// "high_karma", then the overall best until the cap of 12. Output is ordered
// by tone score descending, ties broken by raw score descending.
func (s *Selector) Select(ctx context.Context, permalink string, opts Options) ([]Comment, error) {
	maxLookups := opts.MaxProfileLookups
	if maxLookups <= 0 {
		maxLookups = defaultProfileLookups
	}
	karmaThreshold := opts.HighKarmaThreshold
	if karmaThreshold <= 0 {
		karmaThreshold = defaultKarmaThreshold
	}
	minAgeDays := opts.HighKarmaMinAgeDays
	if minAgeDays <= 0 {
		minAgeDays = defaultMinAuthorDays
	}

	raw, err := s.comments.ListTopLevelComments(ctx, permalink, reddit.CommentOptions{
		Sort:  reddit.SortTop,
		Limit: fetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("select tone comments: %w", err)
	}

	candidates := s.filterAndScore(raw)
	s.attachProfiles(ctx, candidates, maxLookups, karmaThreshold, minAgeDays)

	selected := make(map[string]bool, totalCap)

	// Floor: the best-toned comments from the top bucket, up to the floor.
	topIDs := takeByBucket(candidates, BucketTop, topCap)
	for i := 0; i < len(topIDs) && i < topFloor; i++ {
		selected[topIDs[i]] = true
	}

	// Then admit high-karma comments under their own cap.
	for _, id := range takeByBucket(candidates, BucketHighKarma, highKarmaCap) {
		if len(selected) >= totalCap {
			break
		}
		selected[id] = true
	}

	// Fill remaining slots by overall best tone across all survivors.
	remaining := make([]Comment, 0, len(candidates))
	for _, c := range candidates {
		if !selected[c.ID] {
			remaining = append(remaining, c)
		}
	}
	sortByTone(remaining)
	for _, c := range remaining {
		if len(selected) >= totalCap {
			break
		}
		selected[c.ID] = true
	}

	final := make([]Comment, 0, len(selected))
	for _, c := range candidates {
		if selected[c.ID] {
			c.Permalink = absolutePermalink(c.Permalink)
			final = append(final, c)
		}
	}
	sortByTone(final)

	slog.Debug("Selected tone comments", "permalink", permalink,
		"candidates", len(candidates), "selected", len(final))
	return final, nil
}

// filterAndScore drops moderator-distinguished, bot-like, quote-heavy, and
// low-signal comments, then attaches tone scores to the survivors.
func (s *Selector) filterAndScore(raw []reddit.Comment) []Comment {
	candidates := make([]Comment, 0, len(raw))
	for _, c := range raw {
		if c.Distinguished != "" || tone.IsBotLike(c.Author, c.Body) {
			continue
		}
		if tone.QuoteLineRatio(c.Body) > quoteRatioLimit {
			continue
		}
		if tone.LowSignal(c.Body) {
			continue
		}
		result := tone.Score(c.Body)
		candidates = append(candidates, Comment{
			Comment:     c,
			Buckets:     []string{BucketTop},
			ToneScore:   result.Score,
			MatchedCues: result.Cues,
		})
	}
	return candidates
}

// attachProfiles enriches candidates with author karma and age, tagging the
// high_karma bucket only when both signals hold: karma alone is gameable,
// account age alone is not distinguishing. Unknown authors keep zero values
// and stay in the candidate pool.
func (s *Selector) attachProfiles(ctx context.Context, candidates []Comment, maxLookups, karmaThreshold, minAgeDays int) {
	if len(candidates) == 0 {
		return
	}
	authors := make([]string, 0, len(candidates))
	for _, c := range candidates {
		authors = append(authors, c.Author)
	}
	profiles := s.profiles.LookupProfiles(ctx, authors, maxLookups)

	now := s.now().Unix()
	for i := range candidates {
		profile, ok := profiles[candidates[i].Author]
		if !ok {
			continue
		}
		candidates[i].AuthorKarma = profile.TotalKarma
		if profile.CreatedUTC > 0 && now > profile.CreatedUTC {
			candidates[i].AuthorAgeDays = int((now - profile.CreatedUTC) / secondsPerDay)
		}
		if candidates[i].AuthorKarma >= karmaThreshold && candidates[i].AuthorAgeDays >= minAgeDays {
			candidates[i].Buckets = append(candidates[i].Buckets, BucketHighKarma)
		}
	}
}

// takeByBucket returns up to limit comment IDs from the named bucket, best
// tone first.
func takeByBucket(candidates []Comment, bucket string, limit int) []string {
	pool := make([]Comment, 0, len(candidates))
	for _, c := range candidates {
		if hasBucket(c, bucket) {
			pool = append(pool, c)
		}
	}
	sortByTone(pool)
	if len(pool) > limit {
		pool = pool[:limit]
	}
	ids := make([]string, len(pool))
	for i, c := range pool {
		ids[i] = c.ID
	}
	return ids
}

func hasBucket(c Comment, bucket string) bool {
	for _, b := range c.Buckets {
		if b == bucket {
			return true
		}
	}
	return false
}

func sortByTone(cs []Comment) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].ToneScore != cs[j].ToneScore {
			return cs[i].ToneScore > cs[j].ToneScore
		}
		return cs[i].Score > cs[j].Score
	})
}

func absolutePermalink(p string) string {
	if p == "" || strings.HasPrefix(p, "http") {
		return p
	}
	return permalinkAbsolutePrefix + p
}

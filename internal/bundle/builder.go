// Package bundle assembles story bundles: a ranked post, its linked article,
// and a tone-selected set of comments. One bundle per surviving post; a
// failing post degrades to a partial bundle rather than aborting the run.
package bundle

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/aeromax/news-for-schmucks/internal/article"
	"github.com/aeromax/news-for-schmucks/internal/config"
	"github.com/aeromax/news-for-schmucks/internal/pool"
	"github.com/aeromax/news-for-schmucks/internal/reddit"
	"github.com/aeromax/news-for-schmucks/internal/selector"
)

const (
	minFetchLimit     = 1
	maxFetchLimit     = 50
	defaultFetchLimit = 25
	minKeepLimit      = 1
	maxKeepLimit      = 12
	defaultKeepLimit  = 8

	articleConcurrency = 3
	commentConcurrency = 3

	// Jitter before each comment fetch keeps concurrent requests from
	// hitting Reddit in lockstep.
	jitterMin = 100 * time.Millisecond
	jitterMax = 300 * time.Millisecond

	minAgeHours = 1.0 / 60.0
)

// Sort keys accepted by BundlesConfig.SortBy.
const (
	SortByComments        = "comments"
	SortByUps             = "ups"
	SortByCommentsPerHour = "comments_per_hour"
)

// Bundle pairs a post with its derived activity metrics, extracted article,
// and selected comments. Article is nil when the post has no external link;
// Article.Err is set when extraction failed.
type Bundle struct {
	Post            reddit.Post
	AgeHours        float64
	CommentsPerHour float64
	UpsPerHour      float64
	Article         *article.Extract
	Comments        []selector.Comment
}

// PostLister fetches ranked subreddit posts.
type PostLister interface {
	ListTopPosts(ctx context.Context, opts reddit.PostOptions) ([]reddit.Post, error)
}

// CommentSelector picks tone-ranked comments for one post.
type CommentSelector interface {
	Select(ctx context.Context, permalink string, opts selector.Options) ([]selector.Comment, error)
}

// ArticleExtractor fetches and summarizes external article pages.
type ArticleExtractor interface {
	ExtractAll(ctx context.Context, urls []string, concurrency int) []*article.Extract
}

// Builder orchestrates post listing, ranking, article extraction, and
// comment selection into bundles.
type Builder struct {
	posts     PostLister
	comments  CommentSelector
	extractor ArticleExtractor
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithNow overrides the clock used for age metrics.
func WithNow(fn func() time.Time) Option {
	return func(b *Builder) { b.now = fn }
}

// New creates a Builder over the given collaborators.
func New(posts PostLister, comments CommentSelector, extractor ArticleExtractor, opts ...Option) *Builder {
	b := &Builder{
		posts:     posts,
		comments:  comments,
		extractor: extractor,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches top posts, filters and ranks them, extracts their articles,
// and selects comments for each survivor. A failed post listing is fatal;
// everything downstream fails per-post and leaves a partial bundle.
func (b *Builder) Build(ctx context.Context, cfg config.BundlesConfig, toneCfg config.ToneConfig) ([]Bundle, error) {
	fetchLimit := clamp(cfg.FetchLimit, minFetchLimit, maxFetchLimit, defaultFetchLimit)
	keepLimit := clamp(cfg.KeepLimit, minKeepLimit, maxKeepLimit, defaultKeepLimit)

	posts, err := b.posts.ListTopPosts(ctx, reddit.PostOptions{
		Timeframe: reddit.Timeframe(cfg.Timeframe),
		Limit:     fetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("build bundles: %w", err)
	}

	now := b.now()
	bundles := make([]Bundle, 0, len(posts))
	for _, p := range posts {
		bundles = append(bundles, withMetrics(p, now))
	}

	bundles = filterPosts(bundles, cfg)
	sortBundles(bundles, cfg.SortBy)
	bundles = pickPosts(bundles, keepLimit, cfg.DiversifyDomains)

	slog.Info("Selected posts for bundling", "fetched", len(posts), "kept", len(bundles))

	b.attachArticles(ctx, bundles)
	b.attachComments(ctx, bundles, toneCfg)

	return bundles, nil
}

// withMetrics computes activity rates. Age is floored at one minute so
// brand-new posts do not produce absurd per-hour rates.
func withMetrics(p reddit.Post, now time.Time) Bundle {
	age := now.Sub(time.Unix(p.CreatedUTC, 0)).Hours()
	if age < minAgeHours {
		age = minAgeHours
	}
	return Bundle{
		Post:            p,
		AgeHours:        age,
		CommentsPerHour: float64(p.NumComments) / age,
		UpsPerHour:      float64(p.Ups) / age,
	}
}

func filterPosts(bundles []Bundle, cfg config.BundlesConfig) []Bundle {
	out := bundles[:0]
	for _, bn := range bundles {
		if bn.Post.NumComments < cfg.MinComments || bn.Post.Ups < cfg.MinUps {
			continue
		}
		if cfg.MaxAgeHours > 0 && bn.AgeHours > cfg.MaxAgeHours {
			continue
		}
		out = append(out, bn)
	}
	return out
}

// sortBundles orders bundles by the configured key, descending. Ties on the
// primary key fall back to ups, then comment count. Unknown keys sort by
// comments_per_hour.
func sortBundles(bundles []Bundle, sortBy string) {
	sort.SliceStable(bundles, func(i, j int) bool {
		a, z := bundles[i], bundles[j]
		switch sortBy {
		case SortByComments:
			if a.Post.NumComments != z.Post.NumComments {
				return a.Post.NumComments > z.Post.NumComments
			}
			return a.Post.Ups > z.Post.Ups
		case SortByUps:
			if a.Post.Ups != z.Post.Ups {
				return a.Post.Ups > z.Post.Ups
			}
			return a.Post.NumComments > z.Post.NumComments
		default:
			if a.CommentsPerHour != z.CommentsPerHour {
				return a.CommentsPerHour > z.CommentsPerHour
			}
			return a.Post.Ups > z.Post.Ups
		}
	})
}

// pickPosts takes the top keepLimit bundles. With diversification on, at
// most one post per domain is kept on the first pass; if that pass somehow
// keeps nothing, the plain top-N is used instead.
func pickPosts(bundles []Bundle, keepLimit int, diversify bool) []Bundle {
	if !diversify {
		if len(bundles) > keepLimit {
			return bundles[:keepLimit]
		}
		return bundles
	}

	seen := make(map[string]bool)
	out := make([]Bundle, 0, keepLimit)
	for _, bn := range bundles {
		if len(out) >= keepLimit {
			break
		}
		if seen[bn.Post.Domain] {
			continue
		}
		seen[bn.Post.Domain] = true
		out = append(out, bn)
	}
	if len(out) == 0 {
		if len(bundles) > keepLimit {
			return bundles[:keepLimit]
		}
		return bundles
	}
	return out
}

// attachArticles extracts external articles in place. Self posts and posts
// without a usable URL are skipped.
func (b *Builder) attachArticles(ctx context.Context, bundles []Bundle) {
	indexes := make([]int, 0, len(bundles))
	urls := make([]string, 0, len(bundles))
	for i, bn := range bundles {
		if bn.Post.URL == "" || bn.Post.Selftext != "" {
			continue
		}
		indexes = append(indexes, i)
		urls = append(urls, bn.Post.URL)
	}
	if len(urls) == 0 {
		return
	}

	extracts := b.extractor.ExtractAll(ctx, urls, articleConcurrency)
	for i, ex := range extracts {
		bundles[indexes[i]].Article = ex
	}
}

// attachComments selects comments for every bundle with bounded concurrency.
// Each task sleeps a random 100-300ms first. A failed selection logs and
// leaves the bundle's comment list empty.
func (b *Builder) attachComments(ctx context.Context, bundles []Bundle, toneCfg config.ToneConfig) {
	opts := selector.Options{
		MaxProfileLookups:   toneCfg.ProfilesMaxLookups,
		HighKarmaThreshold:  toneCfg.HighKarmaThreshold,
		HighKarmaMinAgeDays: toneCfg.HighKarmaMinAgeDays,
	}

	comments := pool.MapWithLimit(ctx, bundles, commentConcurrency,
		func(ctx context.Context, _ int, bn Bundle) []selector.Comment {
			if !sleepJitter(ctx) {
				return nil
			}
			selected, err := b.comments.Select(ctx, bn.Post.Permalink, opts)
			if err != nil {
				slog.Warn("Comment selection failed", "post", bn.Post.ID, "error", err)
				return nil
			}
			return selected
		})

	for i := range bundles {
		bundles[i].Comments = comments[i]
	}
}

// sleepJitter waits a random interval in [jitterMin, jitterMax), returning
// false if the context was canceled first.
func sleepJitter(ctx context.Context) bool {
	d := jitterMin + time.Duration(rand.Int63n(int64(jitterMax-jitterMin)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func clamp(n, lo, hi, fallback int) int {
	if n == 0 {
		return fallback
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

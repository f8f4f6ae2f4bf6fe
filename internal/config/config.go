package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Notify    NotifyConfig    `yaml:"notify"`
	Headlines HeadlinesConfig `yaml:"headlines"`
	Reddit    RedditConfig    `yaml:"reddit"`
	Bundles   BundlesConfig   `yaml:"bundles"`
	Tone      ToneConfig      `yaml:"tone"`
	Prompt    PromptConfig    `yaml:"prompt"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Path     string `yaml:"path"`
	KeepRuns int    `yaml:"keep_runs"`
}

type ScheduleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Time     string `yaml:"time"` // HH:MM, interpreted in Timezone
	Timezone string `yaml:"timezone"`
}

// NotifyConfig covers operator notifications. The webhook URL itself comes
// from the SLACK_WEBHOOK_URL environment variable, never from the file.
type NotifyConfig struct {
	Username string `yaml:"username"`
}

type HeadlinesConfig struct {
	Enabled  bool `yaml:"enabled"`
	PageSize int  `yaml:"page_size"`
}

type RedditConfig struct {
	Subreddit  string `yaml:"subreddit"`
	MaxRetries int    `yaml:"max_retries"`
}

// BundlesConfig selects and ranks the posts that become stories.
type BundlesConfig struct {
	Timeframe        string  `yaml:"timeframe"`     // hour|day|week|month|year|all
	FetchLimit       int     `yaml:"fetch_limit"`   // clamped to [1, 50]
	KeepLimit        int     `yaml:"keep_limit"`    // clamped to [1, 12]
	SortBy           string  `yaml:"sort_by"`       // comments|ups|comments_per_hour
	MinComments      int     `yaml:"min_comments"`
	MinUps           int     `yaml:"min_ups"`
	MaxAgeHours      float64 `yaml:"max_age_hours"` // <= 0 means unbounded
	DiversifyDomains bool    `yaml:"diversify_domains"`
}

type ToneConfig struct {
	ProfilesMaxLookups  int `yaml:"profiles_max_lookups"`
	HighKarmaThreshold  int `yaml:"high_karma_threshold"`
	HighKarmaMinAgeDays int `yaml:"high_karma_min_age_days"`
}

type PromptConfig struct {
	MaxCommentsPerStory  int    `yaml:"max_comments_per_story"`
	MaxCommentLen        int    `yaml:"max_comment_len"`
	MaxSelftextLen       int    `yaml:"max_selftext_len"`
	ShowMeta             bool   `yaml:"show_meta"`
	ShowScore            bool   `yaml:"show_score"`
	ShowTone             bool   `yaml:"show_tone"`
	ShowCues             bool   `yaml:"show_cues"`
	ShowArticleURL       bool   `yaml:"show_article_url"`
	ShowRedditLink       bool   `yaml:"show_reddit_link"`
	ShowArticleSummary   bool   `yaml:"show_article_summary"`
	MaxSummaryLen        int    `yaml:"max_summary_len"`
	ShowCommentaryHeader bool   `yaml:"show_commentary_header"`
	ShowOnThisDay        bool   `yaml:"show_on_this_day"`
	OnThisDayLabel       string `yaml:"on_this_day_label"`
}

func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Path:     "./schmucks.db",
			KeepRuns: 30,
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Time:     "07:30",
			Timezone: "America/New_York",
		},
		Notify: NotifyConfig{
			Username: "News for Schmucks",
		},
		Headlines: HeadlinesConfig{
			Enabled:  false,
			PageSize: 15,
		},
		Reddit: RedditConfig{
			Subreddit:  "news",
			MaxRetries: 4,
		},
		Bundles: BundlesConfig{
			Timeframe:        "day",
			FetchLimit:       25,
			KeepLimit:        8,
			SortBy:           "comments_per_hour",
			MaxAgeHours:      48,
			DiversifyDomains: false,
		},
		Tone: ToneConfig{
			ProfilesMaxLookups:  12,
			HighKarmaThreshold:  10000,
			HighKarmaMinAgeDays: 730,
		},
		Prompt: PromptConfig{
			MaxCommentsPerStory:  6,
			MaxCommentLen:        200,
			MaxSelftextLen:       300,
			ShowArticleSummary:   true,
			MaxSummaryLen:        320,
			ShowCommentaryHeader: true,
			ShowOnThisDay:        true,
			OnThisDayLabel:       "On This Day:",
		},
	}
}

// Load reads a YAML config file and merges it over defaults.
// If the file does not exist, defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No config file found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

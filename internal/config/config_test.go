package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	def := DefaultConfig()
	if cfg.Reddit.Subreddit != def.Reddit.Subreddit {
		t.Errorf("subreddit = %q, want %q", cfg.Reddit.Subreddit, def.Reddit.Subreddit)
	}
	if cfg.Bundles.KeepLimit != 8 || cfg.Bundles.SortBy != "comments_per_hour" {
		t.Errorf("unexpected bundle defaults: %+v", cfg.Bundles)
	}
	if cfg.Prompt.MaxCommentLen != 200 || cfg.Prompt.OnThisDayLabel != "On This Day:" {
		t.Errorf("unexpected prompt defaults: %+v", cfg.Prompt)
	}
	if cfg.Tone.ProfilesMaxLookups != 12 {
		t.Errorf("ProfilesMaxLookups = %d, want 12", cfg.Tone.ProfilesMaxLookups)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
logging:
  level: debug
reddit:
  subreddit: worldnews
bundles:
  keep_limit: 5
  diversify_domains: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Reddit.Subreddit != "worldnews" {
		t.Errorf("subreddit = %q, want worldnews", cfg.Reddit.Subreddit)
	}
	if cfg.Bundles.KeepLimit != 5 || !cfg.Bundles.DiversifyDomains {
		t.Errorf("bundle overrides not applied: %+v", cfg.Bundles)
	}
	// Untouched sections keep their defaults.
	if cfg.Schedule.Time != "07:30" {
		t.Errorf("schedule time = %q, want default", cfg.Schedule.Time)
	}
	if cfg.Bundles.SortBy != "comments_per_hour" {
		t.Errorf("sort_by = %q, want default preserved", cfg.Bundles.SortBy)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bundles: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

package job

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aeromax/news-for-schmucks/internal/bundle"
	"github.com/aeromax/news-for-schmucks/internal/config"
	"github.com/aeromax/news-for-schmucks/internal/headlines"
	"github.com/aeromax/news-for-schmucks/internal/onthisday"
	"github.com/aeromax/news-for-schmucks/internal/reddit"
	"github.com/aeromax/news-for-schmucks/internal/storage"
)

type fakeBuilder struct {
	bundles []bundle.Bundle
	err     error
}

func (f *fakeBuilder) Build(context.Context, config.BundlesConfig, config.ToneConfig) ([]bundle.Bundle, error) {
	return f.bundles, f.err
}

type fakeEvents struct {
	event onthisday.Event
	err   error
}

func (f *fakeEvents) RandomEventToday(context.Context) (onthisday.Event, error) {
	return f.event, f.err
}

type fakeHeadlines struct {
	items []headlines.Headline
	err   error
}

func (f *fakeHeadlines) TopHeadlines(context.Context, int) ([]headlines.Headline, error) {
	return f.items, f.err
}

type fakeGenerator struct {
	script string
	err    error
	got    string
}

func (f *fakeGenerator) Generate(_ context.Context, promptText string) (string, error) {
	f.got = promptText
	return f.script, f.err
}

type fakeStore struct {
	saved  []storage.Run
	pruned int
}

func (f *fakeStore) SaveRun(r *storage.Run) error {
	f.saved = append(f.saved, *r)
	return nil
}

func (f *fakeStore) PruneRuns(keep int) (int64, error) {
	f.pruned = keep
	return 0, nil
}

type fakeNotify struct {
	messages []string
}

func (f *fakeNotify) LogNotify(message string) {
	f.messages = append(f.messages, message)
}

func twoBundles() []bundle.Bundle {
	return []bundle.Bundle{
		{Post: reddit.Post{ID: "a", Title: "First story"}},
		{Post: reddit.Post{ID: "b", Title: "Second story"}},
	}
}

func TestRunHappyPath(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{script: "the finished script"}
	cfg := config.DefaultConfig()

	r := New(cfg, &fakeBuilder{bundles: twoBundles()},
		WithStore(store),
		WithGenerator(gen),
		WithEventSource(&fakeEvents{event: onthisday.Event{Text: "a treaty was signed.", Year: 1848}}),
	)

	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if run.Status != storage.StatusOK || run.Stories != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
	if !strings.Contains(run.Prompt, "Story 1: First story") {
		t.Errorf("prompt missing stories:\n%s", run.Prompt)
	}
	if !strings.Contains(run.Prompt, "On This Day: In 1848, a treaty was signed.") {
		t.Errorf("prompt missing on-this-day line:\n%s", run.Prompt)
	}
	if run.Script != "the finished script" {
		t.Errorf("script = %q", run.Script)
	}
	if gen.got != run.Prompt {
		t.Error("generator did not receive the rendered prompt")
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d runs, want 1", len(store.saved))
	}
	if store.pruned != cfg.Storage.KeepRuns {
		t.Errorf("pruned with keep=%d, want %d", store.pruned, cfg.Storage.KeepRuns)
	}
}

func TestRunFatalBuildFailure(t *testing.T) {
	store := &fakeStore{}
	notify := &fakeNotify{}
	r := New(config.DefaultConfig(), &fakeBuilder{err: errors.New("listing down")},
		WithStore(store), WithNotifier(notify))

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error when bundle build fails")
	}
	if len(store.saved) != 1 || store.saved[0].Status != storage.StatusFailed {
		t.Errorf("failed run not recorded: %+v", store.saved)
	}
	if len(notify.messages) != 1 || !strings.Contains(notify.messages[0], "listing down") {
		t.Errorf("operator not notified: %v", notify.messages)
	}
}

func TestRunToleratesContextFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Headlines.Enabled = true

	r := New(cfg, &fakeBuilder{bundles: twoBundles()},
		WithEventSource(&fakeEvents{err: errors.New("feed down")}),
		WithHeadlineSource(&fakeHeadlines{err: errors.New("api down")}),
	)

	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("context failures must not be fatal: %v", err)
	}
	if run.OnThisDay != "" {
		t.Errorf("OnThisDay = %q, want empty after failure", run.OnThisDay)
	}
	if strings.Contains(run.Prompt, "On This Day") {
		t.Errorf("prompt should omit the on-this-day line:\n%s", run.Prompt)
	}
}

func TestRunGeneratorFailureKeepsPrompt(t *testing.T) {
	store := &fakeStore{}
	notify := &fakeNotify{}
	r := New(config.DefaultConfig(), &fakeBuilder{bundles: twoBundles()},
		WithStore(store), WithNotifier(notify),
		WithGenerator(&fakeGenerator{err: errors.New("model overloaded")}))

	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("generator failure must not be fatal: %v", err)
	}
	if run.Script != "" {
		t.Errorf("script = %q, want empty", run.Script)
	}
	if run.Status != storage.StatusOK || run.Prompt == "" {
		t.Errorf("prompt-only run not preserved: %+v", run)
	}
	if len(notify.messages) != 1 {
		t.Errorf("operator not notified: %v", notify.messages)
	}
}

func TestRunHeadlinesInPrompt(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Headlines.Enabled = true

	r := New(cfg, &fakeBuilder{bundles: twoBundles()},
		WithHeadlineSource(&fakeHeadlines{items: []headlines.Headline{
			{Title: "Wire headline one"},
			{Title: "Wire headline two"},
		}}))

	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(run.Prompt, "- Wire headline one") {
		t.Errorf("prompt missing headlines:\n%s", run.Prompt)
	}
}

func TestRunWithoutOptionalDeps(t *testing.T) {
	r := New(config.DefaultConfig(), &fakeBuilder{bundles: twoBundles()})
	run, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if run.Stories != 2 || run.Script != "" {
		t.Errorf("unexpected run: %+v", run)
	}
}

// Package job orchestrates one full pipeline run: gather context, build
// bundles, render the prompt, optionally generate the script, and persist
// the result.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aeromax/news-for-schmucks/internal/bundle"
	"github.com/aeromax/news-for-schmucks/internal/config"
	"github.com/aeromax/news-for-schmucks/internal/headlines"
	"github.com/aeromax/news-for-schmucks/internal/onthisday"
	"github.com/aeromax/news-for-schmucks/internal/prompt"
	"github.com/aeromax/news-for-schmucks/internal/storage"
)

// BundleBuilder assembles story bundles.
type BundleBuilder interface {
	Build(ctx context.Context, cfg config.BundlesConfig, toneCfg config.ToneConfig) ([]bundle.Bundle, error)
}

// EventSource supplies the optional on-this-day line.
type EventSource interface {
	RandomEventToday(ctx context.Context) (onthisday.Event, error)
}

// HeadlineSource supplies optional extra headlines.
type HeadlineSource interface {
	TopHeadlines(ctx context.Context, pageSize int) ([]headlines.Headline, error)
}

// Generator turns the rendered prompt into a finished script. A nil
// Generator leaves the run prompt-only.
type Generator interface {
	Generate(ctx context.Context, promptText string) (string, error)
}

// RunStore persists finished runs. A nil RunStore disables persistence.
type RunStore interface {
	SaveRun(r *storage.Run) error
	PruneRuns(keep int) (int64, error)
}

// Notifier surfaces run failures to operators.
type Notifier interface {
	LogNotify(message string)
}

// Runner wires the pipeline stages together for repeated execution.
type Runner struct {
	cfg       config.Config
	builder   BundleBuilder
	events    EventSource
	headlines HeadlineSource
	generator Generator
	store     RunStore
	notify    Notifier
}

// Option configures a Runner.
type Option func(*Runner)

// WithEventSource enables the on-this-day line.
func WithEventSource(src EventSource) Option {
	return func(r *Runner) { r.events = src }
}

// WithHeadlineSource enables the extra headlines block.
func WithHeadlineSource(src HeadlineSource) Option {
	return func(r *Runner) { r.headlines = src }
}

// WithGenerator enables script generation from the rendered prompt.
func WithGenerator(g Generator) Option {
	return func(r *Runner) { r.generator = g }
}

// WithStore enables run persistence.
func WithStore(store RunStore) Option {
	return func(r *Runner) { r.store = store }
}

// WithNotifier enables operator notifications.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notify = n }
}

// New creates a Runner. Only the bundle builder is required.
func New(cfg config.Config, builder BundleBuilder, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, builder: builder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one pipeline pass. Context gathering is best-effort; only a
// failed bundle build is fatal. The run record is persisted either way.
func (r *Runner) Run(ctx context.Context) (storage.Run, error) {
	start := time.Now()
	slog.Info("Pipeline run starting")

	opts := prompt.FromConfig(r.cfg.Prompt)
	opts.OnThisDayText = r.fetchOnThisDay(ctx)
	opts.Headlines = r.fetchHeadlines(ctx)

	bundles, err := r.builder.Build(ctx, r.cfg.Bundles, r.cfg.Tone)
	if err != nil {
		err = fmt.Errorf("pipeline run: %w", err)
		r.saveRun(storage.Run{Status: storage.StatusFailed, Error: err.Error()})
		if r.notify != nil {
			r.notify.LogNotify("Pipeline run failed: " + err.Error())
		}
		return storage.Run{}, err
	}

	promptText := prompt.Render(bundles, opts)

	run := storage.Run{
		Status:    storage.StatusOK,
		Stories:   len(bundles),
		OnThisDay: opts.OnThisDayText,
		Prompt:    promptText,
	}

	if r.generator != nil {
		script, err := r.generator.Generate(ctx, promptText)
		if err != nil {
			slog.Error("Script generation failed, keeping prompt-only run", "error", err)
			run.Error = err.Error()
			if r.notify != nil {
				r.notify.LogNotify("Script generation failed: " + err.Error())
			}
		} else {
			run.Script = script
		}
	}

	r.saveRun(run)
	slog.Info("Pipeline run finished",
		"stories", run.Stories, "elapsed", time.Since(start).Round(time.Millisecond))
	return run, nil
}

func (r *Runner) fetchOnThisDay(ctx context.Context) string {
	if r.events == nil || !r.cfg.Prompt.ShowOnThisDay {
		return ""
	}
	ev, err := r.events.RandomEventToday(ctx)
	if err != nil {
		slog.Warn("On-this-day fetch failed", "error", err)
		return ""
	}
	if ev.Text == "" {
		return ""
	}
	if ev.Year > 0 {
		return fmt.Sprintf("In %d, %s", ev.Year, ev.Text)
	}
	return ev.Text
}

func (r *Runner) fetchHeadlines(ctx context.Context) []string {
	if r.headlines == nil || !r.cfg.Headlines.Enabled {
		return nil
	}
	hs, err := r.headlines.TopHeadlines(ctx, r.cfg.Headlines.PageSize)
	if err != nil {
		slog.Warn("Headlines fetch failed", "error", err)
		return nil
	}
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Title)
	}
	return out
}

func (r *Runner) saveRun(run storage.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveRun(&run); err != nil {
		slog.Error("Failed to persist run", "error", err)
		return
	}
	if r.cfg.Storage.KeepRuns > 0 {
		if _, err := r.store.PruneRuns(r.cfg.Storage.KeepRuns); err != nil {
			slog.Error("Failed to prune runs", "error", err)
		}
	}
}

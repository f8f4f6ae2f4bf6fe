// Package scheduler runs the daily pipeline job at a configured local time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work the scheduler triggers.
type Job func(ctx context.Context)

// Scheduler fires a Job once a day. A run still in progress when the next
// trigger arrives is never overlapped; the trigger is skipped instead.
type Scheduler struct {
	cron *cron.Cron
	job  Job
	mu   sync.Mutex
}

// New builds a scheduler for a daily HH:MM trigger in the named timezone.
func New(at, timezone string, job Job) (*Scheduler, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		job:  job,
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(spec, s.trigger); err != nil {
		return nil, fmt.Errorf("schedule daily job: %w", err)
	}
	return s, nil
}

// Start begins firing triggers in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts triggers and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	s.mu.Unlock()
	slog.Info("Scheduler stopped")
}

// Next returns the time of the next trigger.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) trigger() {
	if !s.mu.TryLock() {
		slog.Warn("Previous run still in progress, skipping trigger")
		return
	}
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in scheduled job", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	s.job(context.Background())
}

// parseClock parses "HH:MM" in 24-hour time.
func parseClock(at string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(at), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid schedule time %q, want HH:MM", at)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid schedule hour in %q", at)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid schedule minute in %q", at)
	}
	return hour, minute, nil
}

// Package scheduler triggers the weekly report job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"anyumarket/internal/config"
)

// DefaultSpec fires every Sunday at noon.
const DefaultSpec = "0 12 * * 0"

// Job is invoked on every trigger
type Job func(ctx context.Context) error

// Weekly fires a job once a week at a fixed local weekday and clock time.
// Runs never overlap: the next trigger is computed after the job returns.
type Weekly struct {
	spec       string
	schedule   cron.Schedule
	runOnStart bool
	logger     *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// Option customizes a Weekly
type Option func(*Weekly)

// WithClock replaces the time source and timer, used by tests
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(w *Weekly) {
		w.now = now
		w.after = after
	}
}

// NewWeekly creates a trigger from the schedule settings
func NewWeekly(cfg config.ScheduleConfig, logger *slog.Logger, opts ...Option) *Weekly {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Weekly{
		spec:       CronSpec(cfg),
		runOnStart: cfg.RunOnStart,
		logger:     logger.With(slog.String("component", "scheduler")),
		now:        time.Now,
		after:      time.After,
	}
	schedule, err := cron.ParseStandard(w.spec)
	if err != nil {
		w.logger.Warn("invalid schedule, using default",
			slog.String("spec", w.spec),
			slog.String("error", err.Error()))
		w.spec = DefaultSpec
		schedule, _ = cron.ParseStandard(DefaultSpec)
	}
	w.schedule = schedule
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CronSpec renders the schedule settings as a standard five-field cron
// expression.
func CronSpec(cfg config.ScheduleConfig) string {
	hour, minute := cfg.ScheduleClock()
	return fmt.Sprintf("%d %d * * %d", minute, hour, int(cfg.ScheduleWeekday()))
}

// Next returns the first trigger time strictly after now, in now's location.
func (w *Weekly) Next(now time.Time) time.Time {
	return w.schedule.Next(now)
}

// Run blocks until ctx is cancelled, invoking job at every trigger.
// Job errors are logged and do not stop the loop.
func (w *Weekly) Run(ctx context.Context, job Job) error {
	w.logger.InfoContext(ctx, "scheduler started", slog.String("spec", w.spec))

	if w.runOnStart {
		w.invoke(ctx, job)
	}

	for {
		next := w.Next(w.now())
		w.logger.InfoContext(ctx, "next report scheduled", slog.Time("at", next))

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "scheduler stopped")
			return ctx.Err()
		case <-w.after(next.Sub(w.now())):
			w.invoke(ctx, job)
		}
	}
}

func (w *Weekly) invoke(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		w.logger.ErrorContext(ctx, "scheduled job failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}
	w.logger.InfoContext(ctx, "scheduled job completed", slog.Duration("duration", time.Since(start)))
}

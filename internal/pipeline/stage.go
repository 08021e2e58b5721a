// Package pipeline runs the daily collection and the weekly report as
// sequences of named steps. Each step is traced, timed and logged; the first
// failing step ends the run.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"anyumarket/internal/infrastructure"
)

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState records the outcome of one step
type StepState struct {
	Name      string        `json:"name"`
	Status    StepStatus    `json:"status"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Run is the record of one pipeline invocation
type Run struct {
	mu      sync.Mutex
	ID      string       `json:"id"`
	Kind    string       `json:"kind"`
	Started time.Time    `json:"started"`
	Steps   []*StepState `json:"steps"`
}

func newRun(id, kind string) *Run {
	return &Run{ID: id, Kind: kind, Started: time.Now()}
}

// Failed reports whether any step failed.
func (r *Run) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Steps {
		if s.Status == StepStatusFailed {
			return true
		}
	}
	return false
}

// Metrics receives pipeline measurements
type Metrics interface {
	StageDuration(ctx context.Context, stage string, d time.Duration)
	BackupUsed(ctx context.Context, product string)
	PriceMissing(ctx context.Context, product string)
	ReportRun(ctx context.Context, status string)
}

type noopMetrics struct{}

func (noopMetrics) StageDuration(context.Context, string, time.Duration) {}
func (noopMetrics) BackupUsed(context.Context, string)                   {}
func (noopMetrics) PriceMissing(context.Context, string)                 {}
func (noopMetrics) ReportRun(context.Context, string)                    {}

// step executes fn as a named step of run
func step(ctx context.Context, run *Run, logger *slog.Logger, metrics Metrics, name string, fn func(ctx context.Context) error) error {
	state := &StepState{Name: name, Status: StepStatusActive, StartTime: time.Now()}
	run.mu.Lock()
	run.Steps = append(run.Steps, state)
	run.mu.Unlock()

	ctx, span := infrastructure.StartSpan(ctx, name, attribute.String("run_id", run.ID))
	defer span.End()

	logger.DebugContext(ctx, "stage_started", slog.String("stage", name))

	err := fn(ctx)
	duration := time.Since(state.StartTime)
	metrics.StageDuration(ctx, name, duration)

	run.mu.Lock()
	state.Duration = duration
	if err != nil {
		state.Status = StepStatusFailed
		state.Error = err.Error()
	} else {
		state.Status = StepStatusCompleted
	}
	run.mu.Unlock()

	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "stage_execution_failed",
			slog.String("stage", name),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	logger.InfoContext(ctx, "stage_completed",
		slog.String("stage", name),
		slog.Duration("duration", duration))
	return nil
}

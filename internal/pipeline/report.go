package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"anyumarket/internal/config"
	"anyumarket/internal/exporter"
	"anyumarket/internal/infrastructure"
	"anyumarket/internal/market"
	"anyumarket/internal/regional"
	"anyumarket/internal/weekly"
	"anyumarket/pkg/contracts/domain"
)

// Publisher records published report pairs
type Publisher interface {
	Publish(ctx context.Context, spreadsheet, narrative domain.ReportArtifact) (domain.CatalogEntry, error)
}

// ReportResult is the outcome of a report run
type ReportResult struct {
	Run         *Run
	Aggregate   domain.WeeklyAggregate
	Regional    domain.RegionalSnapshot
	Spreadsheet domain.ReportArtifact
	Narrative   domain.ReportArtifact
	Entry       domain.CatalogEntry
}

// Reporter runs the weekly report: aggregate, regional expansion, rendering
// and catalog publication.
type Reporter struct {
	ledger      weekly.RangeReader
	aggregator  *weekly.Aggregator
	spreadsheet *exporter.SpreadsheetWriter
	narrative   *exporter.NarrativeWriter
	catalog     Publisher
	paths       *config.Paths
	seed        int64
	metrics     Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// WithReportMetrics attaches pipeline metrics.
func WithReportMetrics(m Metrics) ReporterOption {
	return func(r *Reporter) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithNarrativeWriter replaces the narrative renderer.
func WithNarrativeWriter(w *exporter.NarrativeWriter) ReporterOption {
	return func(r *Reporter) { r.narrative = w }
}

// WithReportClock replaces the time source stamped on rendered documents.
func WithReportClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) { r.now = now }
}

// NewReporter creates a report pipeline.
func NewReporter(ledger weekly.RangeReader, catalog Publisher, paths *config.Paths, cfg config.ReportConfig, logger *slog.Logger, opts ...ReporterOption) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reporter{
		ledger:      ledger,
		aggregator:  weekly.NewAggregator(logger),
		spreadsheet: exporter.NewSpreadsheetWriter(logger),
		narrative:   exporter.NewNarrativeWriter(cfg.Title, cfg.Organisation, nil, logger),
		catalog:     catalog,
		paths:       paths,
		seed:        cfg.Seed,
		metrics:     noopMetrics{},
		logger:      logger.With(slog.String("component", "report_pipeline")),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run produces the report of the week containing ref. Missing data never
// fails the run; ledger, rendering and catalog I/O errors do. When the
// catalog cannot be updated the rendered documents are removed again.
func (r *Reporter) Run(ctx context.Context, ref time.Time) (res *ReportResult, err error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	run := newRun(infrastructure.GetTraceID(ctx), "report")
	res = &ReportResult{Run: run}

	defer func() {
		status := "success"
		if err != nil {
			status = "failed"
		}
		r.metrics.ReportRun(ctx, status)
	}()

	err = step(ctx, run, r.logger, r.metrics, "weekly.aggregate", func(ctx context.Context) error {
		var err error
		res.Aggregate, err = r.aggregator.Aggregate(ctx, r.ledger, ref)
		return err
	})
	if err != nil {
		return res, err
	}

	_ = step(ctx, run, r.logger, r.metrics, "regional.expand", func(ctx context.Context) error {
		synth := regional.NewSeededSynthesizer(r.seed, market.Profiles{})
		res.Regional = synth.ExpandWeekly(res.Aggregate)
		return nil
	})

	start, end := res.Aggregate.WeekStart, res.Aggregate.WeekEnd
	generated := r.now()
	res.Spreadsheet = r.artifact(domain.ArtifactSpreadsheet, exporter.SpreadsheetName(start, end), start, end, generated)
	res.Narrative = r.artifact(domain.ArtifactNarrative, exporter.NarrativeName(start, end), start, end, generated)

	err = step(ctx, run, r.logger, r.metrics, "render.spreadsheet", func(ctx context.Context) error {
		return r.spreadsheet.Write(res.Spreadsheet.Path, res.Regional)
	})
	if err != nil {
		return res, err
	}

	err = step(ctx, run, r.logger, r.metrics, "render.narrative", func(ctx context.Context) error {
		return r.narrative.Write(res.Narrative.Path, res.Aggregate)
	})
	if err != nil {
		r.discard(ctx, res.Spreadsheet)
		return res, err
	}

	err = step(ctx, run, r.logger, r.metrics, "catalog.publish", func(ctx context.Context) error {
		var err error
		res.Entry, err = r.catalog.Publish(ctx, res.Spreadsheet, res.Narrative)
		return err
	})
	if err != nil {
		r.discard(ctx, res.Spreadsheet, res.Narrative)
		return res, err
	}

	r.logger.InfoContext(ctx, "weekly report published",
		slog.String("week_start", start),
		slog.String("week_end", end),
		slog.String("spreadsheet", res.Spreadsheet.Name),
		slog.String("narrative", res.Narrative.Name))
	return res, nil
}

func (r *Reporter) artifact(kind domain.ArtifactKind, name, start, end string, generated time.Time) domain.ReportArtifact {
	return domain.ReportArtifact{
		Kind:        kind,
		Name:        name,
		Path:        r.paths.GetReportPath(name),
		WeekStart:   start,
		WeekEnd:     end,
		GeneratedAt: generated,
	}
}

// discard removes documents of a failed run
func (r *Reporter) discard(ctx context.Context, artifacts ...domain.ReportArtifact) {
	for _, a := range artifacts {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.WarnContext(ctx, "failed to remove artifact",
				slog.String("path", a.Path),
				slog.String("error", err.Error()))
		}
	}
}

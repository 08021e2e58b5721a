package pipeline

import (
	"context"
	"log/slog"
	"time"

	"anyumarket/internal/collector"
	"anyumarket/internal/config"
	"anyumarket/internal/files"
	"anyumarket/internal/history"
	"anyumarket/internal/infrastructure"
	"anyumarket/internal/market"
	"anyumarket/internal/regional"
	"anyumarket/internal/snapshot"
	"anyumarket/pkg/contracts/domain"
)

// SourceCollector gathers per-source results in precedence order
type SourceCollector interface {
	CollectAll(ctx context.Context) ([]domain.SourceResult, error)
}

// CollectResult is the outcome of a collection run
type CollectResult struct {
	Run      *Run
	Record   domain.MergedDailyRecord
	Snapshot snapshot.Market
}

// Collector runs the daily collection: search, merge, ledger append and
// market snapshot.
type Collector struct {
	sources SourceCollector
	ledger  history.Store
	paths   *config.Paths
	backups []market.BackupPrice
	names   []string
	seed    int64
	metrics Metrics
	logger  *slog.Logger
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithCollectMetrics attaches pipeline metrics.
func WithCollectMetrics(m Metrics) CollectorOption {
	return func(c *Collector) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithBackups replaces the backup table.
func WithBackups(b []market.BackupPrice) CollectorOption {
	return func(c *Collector) { c.backups = b }
}

// NewCollector creates a collection pipeline. sourceNames are listed in the
// snapshot as data sources.
func NewCollector(sources SourceCollector, ledger history.Store, paths *config.Paths, sourceNames []string, seed int64, logger *slog.Logger, opts ...CollectorOption) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		sources: sources,
		ledger:  ledger,
		paths:   paths,
		backups: market.BackupTable(),
		names:   sourceNames,
		seed:    seed,
		metrics: noopMetrics{},
		logger:  logger.With(slog.String("component", "collect_pipeline")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run collects the prices for date. Everything that can fail before the
// first write is done first. The ledger is appended last; if that fails the
// daily and market documents are put back, so a failed run persists nothing.
func (c *Collector) Run(ctx context.Context, date time.Time) (*CollectResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	run := newRun(infrastructure.GetTraceID(ctx), "collect")
	res := &CollectResult{Run: run}

	c.logger.InfoContext(ctx, "collection started", slog.String("date", date.Format(domain.DateLayout)))

	var results []domain.SourceResult
	err := step(ctx, run, c.logger, c.metrics, "collect", func(ctx context.Context) error {
		var err error
		results, err = c.sources.CollectAll(ctx)
		return err
	})
	if err != nil {
		return res, err
	}

	_ = step(ctx, run, c.logger, c.metrics, "merge", func(ctx context.Context) error {
		res.Record = collector.Merge(date, results, c.backups)
		for _, id := range collector.BackupsUsed(res.Record) {
			c.metrics.BackupUsed(ctx, string(id))
		}
		for _, p := range market.Products() {
			if _, ok := res.Record.Price(p.ID); !ok {
				c.metrics.PriceMissing(ctx, string(p.ID))
				c.logger.WarnContext(ctx, "price unavailable", slog.String("product", p.Name))
			}
		}
		return nil
	})

	err = step(ctx, run, c.logger, c.metrics, "snapshot", func(ctx context.Context) error {
		previous, err := snapshot.Load(c.paths.SnapshotFile)
		if err != nil {
			return err
		}
		synth := regional.NewSeededSynthesizer(c.seed, market.Profiles{})
		res.Snapshot = snapshot.Build(res.Record, previous, synth, c.names)
		return nil
	})
	if err != nil {
		return res, err
	}

	var saved []files.Preserved
	err = step(ctx, run, c.logger, c.metrics, "snapshot.save", func(ctx context.Context) error {
		for _, path := range []string{c.paths.DailyFile, c.paths.SnapshotFile} {
			p, err := files.Preserve(path)
			if err != nil {
				return err
			}
			saved = append(saved, p)
		}
		if err := files.WriteJSONAtomic(c.paths.DailyFile, res.Record); err != nil {
			return err
		}
		return snapshot.Save(c.paths.SnapshotFile, res.Snapshot)
	})
	if err != nil {
		c.restore(ctx, saved)
		return res, err
	}

	err = step(ctx, run, c.logger, c.metrics, "history.append", func(ctx context.Context) error {
		return c.ledger.Append(ctx, res.Record)
	})
	if err != nil {
		c.restore(ctx, saved)
		return res, err
	}

	c.logger.InfoContext(ctx, "collection completed",
		slog.String("date", res.Record.Date),
		slog.Int("backups", len(collector.BackupsUsed(res.Record))))
	return res, nil
}

// restore puts back the documents a failed run replaced
func (c *Collector) restore(ctx context.Context, saved []files.Preserved) {
	for _, p := range saved {
		if err := p.Restore(); err != nil {
			c.logger.WarnContext(ctx, "failed to restore document", slog.String("error", err.Error()))
		}
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"anyumarket/internal/catalog"
	"anyumarket/internal/collector"
	"anyumarket/internal/config"
	"anyumarket/internal/history"
	"anyumarket/internal/infrastructure"
	"anyumarket/internal/market"
	"anyumarket/internal/pipeline"
)

// Version is the application version reported by the health endpoint
const Version = infrastructure.ServiceVersion

// Runtime holds what every binary shares
type Runtime struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.PipelineMetrics
	Ledger  history.Store
	Catalog *catalog.Catalog
}

// Bootstrap initializes logging, telemetry, directories and storage
func Bootstrap(cfg *config.Config) (*Runtime, error) {
	if err := market.ValidateReference(); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logCfg := cfg.Logging
	if !filepath.IsAbs(logCfg.FilePath) {
		logCfg.FilePath = filepath.Join(paths.RootDir, logCfg.FilePath)
	}
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewPipelineMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	ledger, err := history.Open(cfg.History, paths, logger)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	return &Runtime{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		OTel:    providers,
		Metrics: metrics,
		Ledger:  ledger,
		Catalog: catalog.New(paths.CatalogFile, cfg.Report.CatalogLimit, logger),
	}, nil
}

// NewCollector builds the daily collection pipeline over the configured
// search capability.
func (rt *Runtime) NewCollector() (*pipeline.Collector, error) {
	searcher, err := NewSearcher(rt.Config.Search)
	if err != nil {
		return nil, err
	}

	sources := market.DefaultSources()
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name)
	}

	aggregator := collector.NewAggregator(searcher, sources, collector.Config{
		ResultCount:       rt.Config.Search.ResultCount,
		RequestsPerSecond: rt.Config.Search.RequestsPerSecond,
		Burst:             rt.Config.Search.Burst,
	}, rt.Logger, collector.WithMetrics(rt.Metrics))

	return pipeline.NewCollector(aggregator, rt.Ledger, rt.Paths, names, rt.Config.Report.Seed, rt.Logger,
		pipeline.WithCollectMetrics(rt.Metrics)), nil
}

// NewReporter builds the weekly report pipeline
func (rt *Runtime) NewReporter() *pipeline.Reporter {
	return pipeline.NewReporter(rt.Ledger, rt.Catalog, rt.Paths, rt.Config.Report, rt.Logger,
		pipeline.WithReportMetrics(rt.Metrics))
}

// NewSearcher returns the fixture searcher when a fixture file is configured
// and the command searcher otherwise.
func NewSearcher(cfg config.SearchConfig) (collector.Searcher, error) {
	if cfg.FixtureFile != "" {
		return collector.LoadFixtureSearcher(cfg.FixtureFile)
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("no search command or fixture file configured")
	}
	return collector.NewCommandSearcher(cfg.Command, cfg.Args...), nil
}

// Close releases the store and flushes telemetry
func (rt *Runtime) Close(ctx context.Context) error {
	var firstErr error
	if err := rt.Ledger.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close history store: %w", err)
	}
	if err := rt.OTel.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to shut down telemetry: %w", err)
	}
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

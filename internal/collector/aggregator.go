package collector

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"anyumarket/internal/extraction"
	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// Config tunes how sources are queried
type Config struct {
	// ResultCount is the number of results requested per query.
	ResultCount int
	// RequestsPerSecond throttles search calls; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns the collection defaults.
func DefaultConfig() Config {
	return Config{ResultCount: 5, RequestsPerSecond: 2, Burst: 1}
}

// Metrics receives collection counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObservationFound(ctx context.Context, source string)
	SearchFailed(ctx context.Context, source string)
}

// Aggregator collects prices from the declared sources in order
type Aggregator struct {
	searcher Searcher
	sources  []market.Source
	limiter  *rate.Limiter
	config   Config
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithMetrics attaches collection metrics.
func WithMetrics(m Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithClock overrides the clock used for observation dates.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an aggregator over sources in precedence order.
func NewAggregator(searcher Searcher, sources []market.Source, config Config, logger *slog.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ResultCount <= 0 {
		config.ResultCount = DefaultConfig().ResultCount
	}

	a := &Aggregator{
		searcher: searcher,
		sources:  sources,
		config:   config,
		logger:   logger.With(slog.String("component", "collector")),
		now:      time.Now,
	}
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CollectAll queries every source in declared order. The returned slice has
// one result per source, in the same order. Only context cancellation is
// returned as an error.
func (a *Aggregator) CollectAll(ctx context.Context) ([]domain.SourceResult, error) {
	results := make([]domain.SourceResult, 0, len(a.sources))
	for _, src := range a.sources {
		res, err := a.Collect(ctx, src)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Collect queries one source for each product it covers. For every product
// the query terms are tried in order and results are scanned in rank order;
// the first extracted price ends the search.
func (a *Aggregator) Collect(ctx context.Context, src market.Source) (domain.SourceResult, error) {
	date := a.now().Format(domain.DateLayout)
	res := domain.SourceResult{
		Source:       src.Name,
		Observations: make(map[domain.ProductID]domain.PriceObservation),
	}

	for _, q := range src.Queries {
		product, ok := market.Product(q.Product)
		if !ok {
			a.logger.WarnContext(ctx, "skipping query for unknown product",
				slog.String("source", src.Name),
				slog.String("product", string(q.Product)))
			continue
		}

		price, found, err := a.searchProduct(ctx, src.Name, product, q.Terms)
		if err != nil {
			return domain.SourceResult{}, err
		}
		if !found {
			a.logger.InfoContext(ctx, "no price found",
				slog.String("source", src.Name),
				slog.String("product", product.Name))
			continue
		}

		label := src.Name
		if q.Label != "" {
			label = q.Label
		}
		res.Observations[product.ID] = domain.PriceObservation{
			Product: product.ID,
			Source:  label,
			Price:   price,
			Date:    date,
		}
		if a.metrics != nil {
			a.metrics.ObservationFound(ctx, label)
		}
		a.logger.InfoContext(ctx, "price found",
			slog.String("source", label),
			slog.String("product", product.Name),
			slog.Float64("price", price))
	}

	return res, nil
}

func (a *Aggregator) searchProduct(ctx context.Context, source string, product domain.Product, terms []string) (float64, bool, error) {
	for _, term := range terms {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return 0, false, err
			}
		}

		results, err := a.searcher.Search(ctx, term, a.config.ResultCount)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, false, ctxErr
			}
			a.logger.WarnContext(ctx, "search failed",
				slog.String("source", source),
				slog.String("query", term),
				slog.String("error", err.Error()))
			if a.metrics != nil {
				a.metrics.SearchFailed(ctx, source)
			}
			continue
		}

		for _, r := range results {
			if price, ok := extraction.Extract(r.Text(), product.Name); ok {
				return price, true, nil
			}
		}
	}
	return 0, false, nil
}

// Package weekly computes Monday to Sunday price averages from the history
// ledger and their change against the previous week.
package weekly

import (
	"context"
	"log/slog"
	"time"

	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// WeekBounds returns the Monday and Sunday of the week containing ref, at
// midnight in ref's location.
func WeekBounds(ref time.Time) (monday, sunday time.Time) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	// time.Weekday starts on Sunday; shift so Monday is 0
	offset := (int(day.Weekday()) + 6) % 7
	monday = day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// PreviousWeekBounds returns the Monday and Sunday of the week before the
// one containing ref.
func PreviousWeekBounds(ref time.Time) (monday, sunday time.Time) {
	currentMonday, _ := WeekBounds(ref)
	sunday = currentMonday.AddDate(0, 0, -1)
	return sunday.AddDate(0, 0, -6), sunday
}

// Average returns the mean price of a product over the records holding a
// price for it, and the number of such records. The mean is nil when no
// record qualifies.
func Average(records []domain.MergedDailyRecord, id domain.ProductID) (*float64, int) {
	var sum float64
	n := 0
	for _, r := range records {
		if price, ok := r.Price(id); ok {
			sum += price
			n++
		}
	}
	if n == 0 {
		return nil, 0
	}
	return domain.Float(sum / float64(n)), n
}

// ComputeChange returns the movement from previous to current. It is nil
// unless both are present and previous is non-zero.
func ComputeChange(current, previous *float64) *domain.Change {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	diff := *current - *previous
	return &domain.Change{
		Diff:    diff,
		Percent: 100 * diff / *previous,
	}
}

// RangeReader reads dated records from the history ledger
type RangeReader interface {
	Range(ctx context.Context, start, end string) ([]domain.MergedDailyRecord, error)
}

// Aggregator builds weekly aggregates from the ledger
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "weekly"))}
}

// Aggregate computes the aggregate of the week containing ref. Missing data
// yields absent figures; only ledger read failures are returned as errors.
func (a *Aggregator) Aggregate(ctx context.Context, ledger RangeReader, ref time.Time) (domain.WeeklyAggregate, error) {
	start, end := WeekBounds(ref)
	prevStart, prevEnd := PreviousWeekBounds(ref)

	current, err := ledger.Range(ctx, start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	if err != nil {
		return domain.WeeklyAggregate{}, err
	}
	previous, err := ledger.Range(ctx, prevStart.Format(domain.DateLayout), prevEnd.Format(domain.DateLayout))
	if err != nil {
		return domain.WeeklyAggregate{}, err
	}

	agg := domain.WeeklyAggregate{
		WeekStart: start.Format(domain.DateLayout),
		WeekEnd:   end.Format(domain.DateLayout),
		Products:  make(map[domain.ProductID]domain.ProductWeek),
	}
	for _, p := range market.Products() {
		avg, samples := Average(current, p.ID)
		prev, _ := Average(previous, p.ID)
		agg.Products[p.ID] = domain.ProductWeek{
			Average:  avg,
			Previous: prev,
			Change:   ComputeChange(avg, prev),
			Samples:  samples,
		}
	}

	a.logger.InfoContext(ctx, "weekly aggregate computed",
		slog.String("week_start", agg.WeekStart),
		slog.String("week_end", agg.WeekEnd),
		slog.Int("days", len(current)),
		slog.Int("previous_days", len(previous)))
	return agg, nil
}

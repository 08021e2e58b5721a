// Package history persists the ledger of merged daily records. The ledger is
// keyed by calendar date and capped to a retention window; eviction always
// removes the oldest dates first.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"anyumarket/internal/config"
	"anyumarket/pkg/contracts/domain"
)

// DefaultRetention is the number of dated entries kept in the ledger.
const DefaultRetention = 60

// Store is the history ledger
type Store interface {
	// Append upserts the record keyed by its date and trims the ledger.
	Append(ctx context.Context, record domain.MergedDailyRecord) error
	// Range returns the records dated within [start, end], oldest first.
	Range(ctx context.Context, start, end string) ([]domain.MergedDailyRecord, error)
	// All returns every record, oldest first.
	All(ctx context.Context) ([]domain.MergedDailyRecord, error)
	Close() error
}

// Open creates the store selected by the history configuration.
func Open(cfg config.HistoryConfig, paths *config.Paths, logger *slog.Logger) (Store, error) {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	switch cfg.Backend {
	case "", "json":
		return NewJSONStore(paths.HistoryFile, retention, logger), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = paths.HistoryDB
		}
		return OpenSQLite(dsn, retention, logger)
	case "postgres":
		return OpenPostgres(cfg.DSN, retention, logger)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.Backend)
	}
}

// evictedDates returns the dates to evict so that at most retention remain.
func evictedDates(dates []string, retention int) []string {
	if len(dates) <= retention {
		return nil
	}
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)
	return sorted[:len(sorted)-retention]
}

func inRange(date, start, end string) bool {
	return date >= start && date <= end
}

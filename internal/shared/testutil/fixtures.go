package testutil

import (
	"testing"

	"anyumarket/internal/config"
	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// LedgerDay builds a ledger record with an entry for every tracked product.
// Products missing from prices have no price.
func LedgerDay(date string, prices map[domain.ProductID]float64) domain.MergedDailyRecord {
	r := domain.MergedDailyRecord{Date: date, Products: map[domain.ProductID]domain.ProductEntry{}}
	for _, p := range market.Products() {
		entry := domain.ProductEntry{Sources: []domain.PriceObservation{}}
		if v, ok := prices[p.ID]; ok {
			entry.Price = domain.Float(v)
		}
		r.Products[p.ID] = entry
	}
	return r
}

// TestPaths creates the data layout under a temporary root
func TestPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{DataDir: "data", LogsDir: "logs"})
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("failed to create test directories: %v", err)
	}
	return paths
}

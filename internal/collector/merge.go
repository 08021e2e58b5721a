package collector

import (
	"time"

	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// Merge builds the daily record from per-source results given in precedence
// order. The first source holding a price for a product sets the merged
// price; every source that found one is listed. Backup prices fill products
// that are still absent and are recorded as a backup source.
func Merge(date time.Time, results []domain.SourceResult, backups []market.BackupPrice) domain.MergedDailyRecord {
	day := date.Format(domain.DateLayout)
	record := domain.MergedDailyRecord{
		Date:      day,
		Timestamp: date,
		Products:  make(map[domain.ProductID]domain.ProductEntry),
	}

	for _, p := range market.Products() {
		entry := domain.ProductEntry{Sources: []domain.PriceObservation{}}
		for _, res := range results {
			obs, ok := res.Observations[p.ID]
			if !ok {
				continue
			}
			if entry.Price == nil {
				entry.Price = domain.Float(obs.Price)
			}
			entry.Sources = append(entry.Sources, obs)
		}
		record.Products[p.ID] = entry
	}

	for _, b := range backups {
		entry, ok := record.Products[b.Product]
		if !ok || entry.Price != nil {
			continue
		}
		entry.Price = domain.Float(b.Price)
		entry.Sources = append(entry.Sources, domain.PriceObservation{
			Product: b.Product,
			Source:  b.Label,
			Price:   b.Price,
			Date:    day,
			Backup:  true,
		})
		record.Products[b.Product] = entry
	}

	return record
}

// BackupsUsed lists the products whose merged price came from the backup
// table.
func BackupsUsed(record domain.MergedDailyRecord) []domain.ProductID {
	var used []domain.ProductID
	for _, p := range market.Products() {
		entry := record.Products[p.ID]
		if len(entry.Sources) == 1 && entry.Sources[0].Backup {
			used = append(used, p.ID)
		}
	}
	return used
}

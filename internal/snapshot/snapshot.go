// Package snapshot builds the daily market document consumed by the market
// page: national prices from the latest merged record, their regional
// breakdown, and the movement against the previous snapshot.
package snapshot

import (
	"anyumarket/internal/files"
	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// RegionQuote is one region's price and its change since the previous
// snapshot
type RegionQuote struct {
	Price  *float64 `json:"price"`
	Change *float64 `json:"change"`
}

// ProductSnapshot is the daily view of one product
type ProductSnapshot struct {
	Name                  string                 `json:"name"`
	Unit                  string                 `json:"unit"`
	NationalPrice         *float64               `json:"national_price"`
	NationalChange        *float64               `json:"national_change"`
	NationalChangePercent *float64               `json:"national_change_percent"`
	Regions               map[string]RegionQuote `json:"regions"`
}

// Market is the market.json document
type Market struct {
	UpdateDate  string                               `json:"update_date"`
	UpdateTime  string                               `json:"update_time"`
	DataSources []string                             `json:"data_source"`
	Products    map[domain.ProductID]ProductSnapshot `json:"products"`
}

// Synthesizer expands national prices into regions
type Synthesizer interface {
	Synthesize(national map[domain.ProductID]float64) domain.RegionalSnapshot
}

// Build creates the snapshot for a merged record. Changes are absent when
// there is no previous snapshot or no previous price to compare with.
func Build(record domain.MergedDailyRecord, previous *Market, synth Synthesizer, sources []string) Market {
	national := make(map[domain.ProductID]float64)
	for _, p := range market.Products() {
		if price, ok := record.Price(p.ID); ok {
			national[p.ID] = price
		}
	}
	regional := synth.Synthesize(national)

	snap := Market{
		UpdateDate:  record.Timestamp.Format(domain.DateLayout),
		UpdateTime:  record.Timestamp.Format("15:04"),
		DataSources: sources,
		Products:    make(map[domain.ProductID]ProductSnapshot),
	}

	for _, p := range market.Products() {
		var prev *ProductSnapshot
		if previous != nil {
			if ps, ok := previous.Products[p.ID]; ok {
				prev = &ps
			}
		}

		ps := ProductSnapshot{
			Name:    p.Name,
			Unit:    p.Unit,
			Regions: make(map[string]RegionQuote),
		}
		if price, ok := national[p.ID]; ok {
			ps.NationalPrice = domain.Float(price)
			if prev != nil && prev.NationalPrice != nil {
				diff := market.Round(price-*prev.NationalPrice, p.Precision)
				ps.NationalChange = domain.Float(diff)
				if *prev.NationalPrice != 0 {
					ps.NationalChangePercent = domain.Float(market.Round(100*diff / *prev.NationalPrice, 2))
				}
			}
		}

		for _, r := range market.Regions() {
			if r.IsNational() {
				continue
			}
			q, _ := regional.Quote(r.Name, p.ID)
			quote := RegionQuote{Price: q.Price}
			if q.Price != nil && prev != nil {
				if pq, ok := prev.Regions[r.Name]; ok && pq.Price != nil {
					quote.Change = domain.Float(market.Round(*q.Price-*pq.Price, p.Precision))
				}
			}
			ps.Regions[r.Name] = quote
		}
		snap.Products[p.ID] = ps
	}
	return snap
}

// Load reads a snapshot document. A missing document returns nil.
func Load(path string) (*Market, error) {
	var m Market
	found, err := files.ReadJSON(path, &m)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &m, nil
}

// Save writes the snapshot atomically.
func Save(path string, m Market) error {
	return files.WriteJSONAtomic(path, m)
}

package domain

import "time"

// Change is a week-over-week or day-over-day movement
type Change struct {
	Diff    float64 `json:"diff"`
	Percent float64 `json:"percent"`
}

// ProductWeek holds the weekly figures of one product. Nil fields mean the
// figure could not be computed from the ledger.
type ProductWeek struct {
	Average  *float64 `json:"average"`
	Previous *float64 `json:"previous"`
	Change   *Change  `json:"change"`
	Samples  int      `json:"samples"`
}

// WeeklyAggregate summarises a Monday to Sunday reporting period
type WeeklyAggregate struct {
	WeekStart string                    `json:"week_start"`
	WeekEnd   string                    `json:"week_end"`
	Products  map[ProductID]ProductWeek `json:"products"`
}

// RegionalQuote is a synthesised regional price with its movement
type RegionalQuote struct {
	Price  *float64 `json:"price"`
	Change *Change  `json:"change,omitempty"`
}

// RegionalSnapshot maps region name to per-product quotes
type RegionalSnapshot map[string]map[ProductID]RegionalQuote

// Quote returns the quote for a region and product, if present.
func (s RegionalSnapshot) Quote(region string, id ProductID) (RegionalQuote, bool) {
	byProduct, ok := s[region]
	if !ok {
		return RegionalQuote{}, false
	}
	q, ok := byProduct[id]
	return q, ok
}

// ArtifactKind names the two report documents
type ArtifactKind string

const (
	ArtifactSpreadsheet ArtifactKind = "excel"
	ArtifactNarrative   ArtifactKind = "txt"
)

// ReportArtifact is a rendered report document on disk
type ReportArtifact struct {
	Kind        ArtifactKind `json:"kind"`
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	WeekStart   string       `json:"week_start"`
	WeekEnd     string       `json:"week_end"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// CatalogEntry records one published weekly report
type CatalogEntry struct {
	ID              string    `json:"id,omitempty"`
	WeekStart       string    `json:"week_start" validate:"required"`
	WeekEnd         string    `json:"week_end" validate:"required"`
	SpreadsheetName string    `json:"spreadsheet_name" validate:"required"`
	NarrativeName   string    `json:"narrative_name" validate:"required"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Catalog is the persisted index of published reports, newest first
type Catalog struct {
	Latest  *CatalogEntry  `json:"latest"`
	History []CatalogEntry `json:"history"`
}

package domain

import "time"

// DateLayout is the calendar-date format used in ledgers, catalogs and file names.
const DateLayout = "2006-01-02"

// ProductID identifies one of the tracked commodities
type ProductID string

const (
	ProductPig     ProductID = "pig"
	ProductPiglet  ProductID = "piglet"
	ProductEgg     ProductID = "egg"
	ProductHen     ProductID = "hen"
	ProductCorn    ProductID = "corn"
	ProductSoybean ProductID = "soybean"
)

// Product describes a tracked commodity and how its prices are presented
type Product struct {
	ID        ProductID `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Unit      string    `json:"unit" validate:"required"`
	Precision int       `json:"precision" validate:"oneof=0 2"`
}

// RegionKind distinguishes the national aggregate from provinces
type RegionKind string

const (
	RegionNational RegionKind = "national"
	RegionProvince RegionKind = "province"
)

// Region is a geographic unit of the regional breakdown
type Region struct {
	Name string     `json:"name" validate:"required"`
	Kind RegionKind `json:"kind" validate:"required,oneof=national province"`
}

// IsNational reports whether the region is the national aggregate.
func (r Region) IsNational() bool {
	return r.Kind == RegionNational
}

// VariationProfile bounds the ratio applied to a national price for one
// region and product.
type VariationProfile struct {
	Min float64 `json:"min" validate:"gt=0,ltefield=Max"`
	Max float64 `json:"max" validate:"gt=0"`
}

// PriceObservation is a single price found by one source
type PriceObservation struct {
	Product ProductID `json:"product"`
	Source  string    `json:"source"`
	Price   float64   `json:"price"`
	Date    string    `json:"date"`
	Backup  bool      `json:"backup,omitempty"`
}

// SourceResult holds what one source found in a collection run, at most one
// observation per product.
type SourceResult struct {
	Source       string                         `json:"source"`
	Observations map[ProductID]PriceObservation `json:"observations"`
}

// ProductEntry is the merged view of one product for one day. Price is nil
// when no source produced a value.
type ProductEntry struct {
	Price   *float64           `json:"price"`
	Sources []PriceObservation `json:"sources"`
}

// MergedDailyRecord is the ledger entry for one calendar day
type MergedDailyRecord struct {
	Date      string                     `json:"date"`
	Timestamp time.Time                  `json:"timestamp"`
	Products  map[ProductID]ProductEntry `json:"products"`
}

// Price returns the merged price of a product, if any.
func (r MergedDailyRecord) Price(id ProductID) (float64, bool) {
	entry, ok := r.Products[id]
	if !ok || entry.Price == nil {
		return 0, false
	}
	return *entry.Price, true
}

// Float returns a pointer to v, for optional price fields.
func Float(v float64) *float64 {
	return &v
}

package exporter

import (
	"fmt"
	"strconv"

	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// NoData is the placeholder for an absent price.
const NoData = "无数据"

// FormatPrice formats v with the product precision. Values that round to
// zero are printed unsigned.
func FormatPrice(v float64, precision int) string {
	r := market.Round(v, precision)
	if r == 0 {
		r = 0 // drops negative zero
	}
	return strconv.FormatFloat(r, 'f', precision, 64)
}

// FormatSigned is FormatPrice with a leading + for positive values.
func FormatSigned(v float64, precision int) string {
	s := FormatPrice(v, precision)
	if market.Round(v, precision) > 0 {
		return "+" + s
	}
	return s
}

// FormatPercent formats a percentage with two decimals and a sign.
func FormatPercent(p float64) string {
	return FormatSigned(p, 2) + "%"
}

// FormatCell renders one spreadsheet cell for a product quote.
func FormatCell(q domain.RegionalQuote, p domain.Product) string {
	if q.Price == nil {
		return NoData
	}
	price := FormatPrice(*q.Price, p.Precision)
	if q.Change == nil {
		return price
	}
	return fmt.Sprintf("%s(%s,%s)", price,
		FormatSigned(q.Change.Diff, p.Precision),
		FormatPercent(q.Change.Percent))
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

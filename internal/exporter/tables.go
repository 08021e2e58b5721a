package exporter

import (
	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// RegionHeader is the first column title of both tables.
const RegionHeader = "地区"

// TableGroups lists the products of each spreadsheet table, in column order.
var TableGroups = [2][]domain.ProductID{
	{domain.ProductPig, domain.ProductPiglet, domain.ProductEgg},
	{domain.ProductHen, domain.ProductCorn, domain.ProductSoybean},
}

// Table is a header row followed by one row per region
type Table struct {
	Header []string
	Rows   [][]string
}

// BuildTables lays the snapshot out as the two report tables. Regions keep
// the canonical order, national first. A region or product missing from the
// snapshot renders as NoData.
func BuildTables(snapshot domain.RegionalSnapshot) [2]Table {
	var tables [2]Table
	for i, group := range TableGroups {
		products := make([]domain.Product, 0, len(group))
		header := []string{RegionHeader}
		for _, id := range group {
			p, _ := market.Product(id)
			products = append(products, p)
			header = append(header, p.Name+"("+p.Unit+")")
		}

		table := Table{Header: header}
		for _, r := range market.Regions() {
			row := []string{r.Name}
			for _, p := range products {
				q, _ := snapshot.Quote(r.Name, p.ID)
				row = append(row, FormatCell(q, p))
			}
			table.Rows = append(table.Rows, row)
		}
		tables[i] = table
	}
	return tables
}

// Package exporter renders weekly aggregates into report documents.
//
// The spreadsheet holds two stacked tables of regional quotes, the first for
// live hogs, piglets and eggs, the second for culled hens, corn and soybean
// meal. The narrative is a plain text report with an overview of the week,
// a static outlook and a provenance section. CSVWriter exports the history
// ledger for spreadsheet tools.
//
// Cells follow one format throughout:
//
//	15.20(+0.50,+3.45%)   price with change
//	15.20                 price without a previous period
//	无数据                 no price
package exporter

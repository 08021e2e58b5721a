package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"anyumarket/internal/config"
	"anyumarket/internal/files"
	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// HistoryHeaders are the columns of the history export.
var HistoryHeaders = []string{"Date", "Product", "Price", "Sources"}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options. Relative paths
// land in the reports directory.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	var buf bytes.Buffer
	// Write BOM if requested (helps Excel recognize UTF-8)
	if options.BOMPrefix {
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
	}

	writer := csv.NewWriter(&buf)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	return files.WriteFileAtomic(fullPath, buf.Bytes(), 0644)
}

// WriteHistory exports ledger records, one row per product and day.
func (w *CSVWriter) WriteHistory(filePath string, records []domain.MergedDailyRecord) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   HistoryHeaders,
		Records:   HistoryRows(records),
		BOMPrefix: true,
	})
}

// HistoryRows flattens records in date then product order. Absent prices
// are left empty; backup sources are marked.
func HistoryRows(records []domain.MergedDailyRecord) [][]string {
	var rows [][]string
	for _, r := range records {
		for _, p := range market.Products() {
			entry := r.Products[p.ID]
			price := ""
			if entry.Price != nil {
				price = formatFloat(*entry.Price)
			}
			sources := make([]string, 0, len(entry.Sources))
			for _, s := range entry.Sources {
				label := s.Source
				if s.Backup {
					label += "(backup)"
				}
				sources = append(sources, label)
			}
			rows = append(rows, []string{r.Date, p.Name, price, strings.Join(sources, ";")})
		}
	}
	return rows
}

// resolvePath resolves a path to the appropriate directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}

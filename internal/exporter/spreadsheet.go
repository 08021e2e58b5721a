package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"anyumarket/internal/files"
	"anyumarket/pkg/contracts/domain"
)

// SheetName is the single worksheet of the weekly spreadsheet.
const SheetName = "重点省份行情"

// SpreadsheetName returns the file name of the weekly spreadsheet.
func SpreadsheetName(weekStart, weekEnd string) string {
	return fmt.Sprintf("本周行情数据_%s至%s.xlsx", weekStart, weekEnd)
}

// SpreadsheetWriter renders regional snapshots into xlsx workbooks
type SpreadsheetWriter struct {
	logger *slog.Logger
}

// NewSpreadsheetWriter creates a spreadsheet writer.
func NewSpreadsheetWriter(logger *slog.Logger) *SpreadsheetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpreadsheetWriter{logger: logger.With(slog.String("component", "spreadsheet"))}
}

// Render builds the workbook for a snapshot. The second table starts after
// one blank row below the first.
func (w *SpreadsheetWriter) Render(snapshot domain.RegionalSnapshot) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Calibri", Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	row := 1
	for _, table := range BuildTables(snapshot) {
		lines := append([][]string{table.Header}, table.Rows...)
		for _, line := range lines {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			values := make([]interface{}, len(line))
			for i, v := range line {
				values[i] = v
			}
			if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
				f.Close()
				return nil, err
			}
			row++
		}
		row++
	}

	if err := f.SetCellStyle(SheetName, "A1", fmt.Sprintf("D%d", row-2), style); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "B", "D", 20); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write renders the snapshot and stores it atomically at path.
func (w *SpreadsheetWriter) Write(path string, snapshot domain.RegionalSnapshot) error {
	f, err := w.Render(snapshot)
	if err != nil {
		return fmt.Errorf("failed to render spreadsheet: %w", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to encode spreadsheet: %w", err)
	}
	if err := files.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return err
	}

	w.logger.Info("spreadsheet written",
		slog.String("path", path),
		slog.Int("size_bytes", buf.Len()))
	return nil
}

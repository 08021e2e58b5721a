// Command weeklyreport renders the weekly spreadsheet and narrative report
// and records them in the report catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anyumarket/internal/app"
	"anyumarket/internal/config"
	"anyumarket/internal/exporter"
	"anyumarket/pkg/contracts/domain"
)

func main() {
	dateStr := flag.String("date", "", "any date in the report week (YYYY-MM-DD), defaults to today")
	exportCSV := flag.String("export-csv", "", "also export the full price history to this CSV file")
	flag.Parse()

	if err := run(*dateStr, *exportCSV); err != nil {
		fmt.Fprintf(os.Stderr, "weeklyreport: %v\n", err)
		os.Exit(1)
	}
}

func run(dateStr, exportCSV string) error {
	ref := time.Now()
	if dateStr != "" {
		d, err := time.ParseInLocation(domain.DateLayout, dateStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", dateStr, err)
		}
		ref = d
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt, err := app.Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := rt.NewReporter().Run(ctx, ref)
	if err != nil {
		return err
	}
	rt.Logger.InfoContext(ctx, "weekly report finished",
		slog.String("week_start", res.Aggregate.WeekStart),
		slog.String("week_end", res.Aggregate.WeekEnd),
		slog.String("spreadsheet", res.Spreadsheet.Path),
		slog.String("narrative", res.Narrative.Path))

	if exportCSV == "" {
		return nil
	}
	records, err := rt.Ledger.All(ctx)
	if err != nil {
		return err
	}
	if err := exporter.NewCSVWriter(rt.Paths).WriteHistory(exportCSV, records); err != nil {
		return err
	}
	rt.Logger.InfoContext(ctx, "history exported",
		slog.String("file", exportCSV),
		slog.Int("records", len(records)))
	return nil
}

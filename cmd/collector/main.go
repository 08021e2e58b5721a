// Command collector gathers today's market prices, appends them to the
// history store and refreshes the market snapshot.
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
	"anyumarket/pkg/contracts/domain"
)

func main() {
	dateStr := flag.String("date", "", "collection date (YYYY-MM-DD), defaults to today")
	fixture := flag.String("fixture", "", "read search results from a JSON fixture instead of the search command")
	flag.Parse()

	if err := run(*dateStr, *fixture); err != nil {
		fmt.Fprintf(os.Stderr, "collector: %v\n", err)
		os.Exit(1)
	}
}

func run(dateStr, fixture string) error {
	date := time.Now()
	if dateStr != "" {
		d, err := time.ParseInLocation(domain.DateLayout, dateStr, time.Local)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", dateStr, err)
		}
		date = d
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if fixture != "" {
		cfg.Search.FixtureFile = fixture
	}

	rt, err := app.Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	collector, err := rt.NewCollector()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Search.Timeout)
	defer cancel()

	res, err := collector.Run(ctx, date)
	if err != nil {
		return err
	}

	rt.Logger.InfoContext(ctx, "collection finished",
		slog.String("date", res.Record.Date),
		slog.Int("products", len(res.Record.Products)),
		slog.String("snapshot", rt.Paths.SnapshotFile))
	return nil
}

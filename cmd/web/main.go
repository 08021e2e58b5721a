// Command web serves the report documents and triggers the weekly report on
// its schedule.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"anyumarket/internal/app"
	"anyumarket/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt, err := app.Bootstrap(cfg)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	application, err := app.NewApplication(rt)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.Logger.InfoContext(ctx, "application starting",
		slog.String("service", "anyu-market-report"),
		slog.String("version", app.Version),
		slog.Int("port", cfg.Server.Port))

	return application.Run(ctx)
}

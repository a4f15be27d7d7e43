// SPDX-License-Identifier: GPL-3.0-or-later

// Command clickd links a configuration file into a router and runs it
// until stopped, in the style of Atsika-aznet's cmd/azurl: flag-based,
// no subcommands, one job per invocation.
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

	"github.com/clickrouter/click"
	"github.com/clickrouter/click/elements"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("clickd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a configuration file (required)")
	threads := fs.Int("threads", 1, "number of router threads")
	tickets := fs.Uint("default-tickets", click.DefaultTickets, "default stride-scheduler ticket count")
	verbose := fs.Bool("verbose", false, "log Debug-level events in addition to Info")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "clickd - run a configuration file as a router")
		fmt.Fprintln(fs.Output(), "Usage:")
		fmt.Fprintln(fs.Output(), "  clickd -config <file> [-threads N] [-default-tickets N] [-verbose]")
	}
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if *configPath == "" {
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	src, err := os.ReadFile(*configPath)
	if err != nil {
		logger.Error("clickdReadConfig", "path", *configPath, "error", err.Error())
		return 1
	}

	cfg := click.NewConfig(
		click.WithLogger(logger),
		click.WithThreads(*threads),
		click.WithDefaultTickets(uint32(*tickets)),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := click.Link(ctx, cfg, elements.Registry(), *configPath, string(src))
	if err != nil {
		logger.Error("clickdLinkFailed", "error", err.Error())
		if multi, ok := err.(*click.MultiError); ok {
			return clamp(len(multi.Records))
		}
		return 1
	}
	logger.Info("clickdRunning", "runID", r.RunID, "threads", *threads)

	go logStopRequests(ctx, r, logger, cancel)

	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("clickdRunFailed", "error", err.Error())
		r.Cleanup(click.CleanupInitFailed)
		return 1
	}
	r.Cleanup(click.CleanupNormal)
	return 0
}

// logStopRequests waits for the first RequestStop, logs its reason as an
// Info event, and calls cancel so the router stops, clickd's default
// exit-on-first-stop behavior.
func logStopRequests(ctx context.Context, r *click.Router, logger *slog.Logger, cancel context.CancelFunc) {
	select {
	case <-ctx.Done():
	case reason := <-r.StopRequests():
		logger.Info("clickdStopRequested", "reason", reason, "at", time.Now().Format(time.RFC3339))
		cancel()
	}
}

// clamp keeps an error-record count inside the conventional 1-125 exit
// code range shells reserve for application use.
func clamp(n int) int {
	if n <= 0 {
		return 1
	}
	if n > 125 {
		return 125
	}
	return n
}

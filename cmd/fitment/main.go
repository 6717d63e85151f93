// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/fitment"
	"github.com/poiesic/fitment/batch"
	"github.com/poiesic/fitment/config"
	"github.com/poiesic/fitment/core"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fitment",
		Usage: "Extract vehicle fitment data from product titles in batches",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Process pending records after the checkpoint",
				Action: runCommand,
				Flags:  runFlags(),
			},
			{
				Name:   "replay",
				Usage:  "Reprocess the records listed in a failure-replay file",
				Action: replayCommand,
				Flags: append(runFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the failure-replay JSON file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "start",
						Usage: "Number of replay entries to skip",
						Value: 0,
					},
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Continue after the replay checkpoint instead of skipping entries",
					},
				),
			},
			{
				Name:  "checkpoint",
				Usage: "Inspect or change the checkpoint",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the current checkpoint",
						Action: checkpointShowCommand,
						Flags:  []cli.Flag{replayFlag()},
					},
					{
						Name:      "set",
						Usage:     "Overwrite the checkpoint",
						ArgsUsage: "<row-id>",
						Action:    checkpointSetCommand,
						Flags:     []cli.Flag{replayFlag()},
					},
				},
			},
			{
				Name:   "results",
				Usage:  "Print the documents a run stored in the badger sink",
				Action: resultsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "run",
						Aliases:  []string{"r"},
						Usage:    "Run id printed in the run summary",
						Required: true,
					},
				},
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of records to fetch",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of records processed concurrently",
			Value: 10,
		},
		&cli.DurationFlag{
			Name:  "batch-delay",
			Usage: "Pause between batches",
			Value: 1 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "save-report",
			Usage: "Write a batch_results_*.json report for successful runs",
		},
		&cli.StringFlag{
			Name:  "report-dir",
			Usage: "Directory for run reports",
			Value: ".",
		},
		&cli.BoolFlag{
			Name:  "strict-items",
			Usage: "Drop extracted items that do not match the fitment item schema",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Attempts per record for failed provider calls",
			Value: 1,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress line on stderr",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Update the progress line every N records",
			Value: 1,
		},
	}
}

func replayFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "replay",
		Usage: "Use the replay checkpoint instead of the pending one",
	}
}

func runOptions(c *cli.Context) (fitment.RunOptions, error) {
	opts := fitment.RunOptions{
		Params: batch.Params{
			Limit:     c.Int("limit"),
			BatchSize: c.Int("batch-size"),
			Delay:     c.Duration("batch-delay"),
		},
		Retry: batch.RetryPolicy{
			MaxAttempts: c.Int("max-attempts"),
			BaseDelay:   c.Duration("retry-delay"),
		},
		StrictItems: c.Bool("strict-items"),
		SaveReport:  c.Bool("save-report"),
		ReportDir:   c.String("report-dir"),
	}

	if opts.Params.Limit < 0 {
		return opts, fmt.Errorf("limit cannot be negative")
	}
	if opts.Params.BatchSize <= 0 {
		return opts, fmt.Errorf("batch-size must be greater than 0")
	}
	if opts.Params.Delay < 0 {
		return opts, fmt.Errorf("batch-delay cannot be negative")
	}
	if opts.Retry.MaxAttempts <= 0 {
		return opts, fmt.Errorf("max-attempts must be greater than 0")
	}
	if opts.Retry.BaseDelay < 0 {
		return opts, fmt.Errorf("retry-delay cannot be negative")
	}
	if c.Bool("progress") {
		if c.Int("report-interval") <= 0 {
			return opts, fmt.Errorf("report-interval must be greater than 0")
		}
		opts.Observer = batch.NewProgressObserver(os.Stderr, c.Int("report-interval"))
	}
	return opts, nil
}

func openService(ctx context.Context) (*fitment.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	svc, err := fitment.NewService(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, cfg, nil
}

func runCommand(c *cli.Context) error {
	return execute(c, func(ctx context.Context, svc *fitment.Service, opts fitment.RunOptions) (core.RunSummary, error) {
		return svc.Run(ctx, opts)
	})
}

func replayCommand(c *cli.Context) error {
	if c.Int("start") < 0 {
		return fmt.Errorf("start cannot be negative")
	}
	if c.Bool("resume") && c.Int("start") > 0 {
		return fmt.Errorf("start and resume cannot be combined")
	}
	return execute(c, func(ctx context.Context, svc *fitment.Service, opts fitment.RunOptions) (core.RunSummary, error) {
		if c.Bool("resume") {
			return svc.ResumeReplay(ctx, c.String("file"), opts)
		}
		return svc.Replay(ctx, c.String("file"), c.Int("start"), opts)
	})
}

func execute(c *cli.Context, run func(context.Context, *fitment.Service, fitment.RunOptions) (core.RunSummary, error)) error {
	opts, err := runOptions(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintf(os.Stderr, "Source: %s table %s\n", cfg.SourceDriver, cfg.SourceTable)
	fmt.Fprintf(os.Stderr, "Provider: %s model %s\n", cfg.Provider, cfg.Model)
	fmt.Fprintf(os.Stderr, "Sink: %s\n", cfg.Sink)
	fmt.Fprintln(os.Stderr)

	summary, err := run(ctx, svc, opts)
	if err != nil {
		return err
	}
	printSummary(&summary)

	if summary.Error != "" {
		return fmt.Errorf("run failed: %s", summary.Error)
	}
	return nil
}

func printSummary(s *core.RunSummary) {
	fmt.Fprintf(os.Stderr, "Run: %s\n", s.RunID)
	if !s.Success {
		fmt.Fprintf(os.Stderr, "Result: %s\n", s.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "Processed: %d records in %d batches (%d successful, %d failed)\n",
		s.TotalRecordsProcessed, s.BatchesProcessed, s.TotalSuccessful, s.TotalFailed)
	fmt.Fprintf(os.Stderr, "Duration: %.1fs\n", s.DurationSeconds)
	if s.JSONFile != "" {
		fmt.Fprintf(os.Stderr, "Report: %s\n", s.JSONFile)
	}
}

func checkpointShowCommand(c *cli.Context) error {
	svc, _, err := openService(c.Context)
	if err != nil {
		return err
	}
	defer svc.Close()

	rowID, err := svc.Checkpoint(c.Context, c.Bool("replay"))
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	fmt.Fprintln(c.App.Writer, rowID)
	return nil
}

func checkpointSetCommand(c *cli.Context) error {
	rowID, err := parseRowID(c.Args().First())
	if err != nil {
		return err
	}

	svc, _, err := openService(c.Context)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SetCheckpoint(c.Context, c.Bool("replay"), rowID); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	slog.Info("checkpoint updated", "row_id", rowID, "replay", c.Bool("replay"))
	return nil
}

func parseRowID(arg string) (int64, error) {
	if arg == "" {
		return 0, fmt.Errorf("row id is required")
	}
	rowID, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || rowID < 0 {
		return 0, fmt.Errorf("invalid row id %q: must be a non-negative integer", arg)
	}
	return rowID, nil
}

func resultsCommand(c *cli.Context) error {
	svc, _, err := openService(c.Context)
	if err != nil {
		return err
	}
	defer svc.Close()

	docs, err := svc.Results(c.Context, c.String("run"))
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

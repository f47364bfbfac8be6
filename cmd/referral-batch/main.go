package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/async"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/bootstrap"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/ingest"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		dir        = flag.String("dir", "", "directory of referral documents (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		inmem      = flag.Bool("inmem", false, "keep history in an in-memory SQLite database")
		workers    = flag.Int("workers", 4, "concurrent documents")
		watch      = flag.Bool("watch", false, "keep running and process files as they arrive")
		stub       = flag.Bool("stub", false, "skip the model and return the stub record")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "referrals.xlsx")
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel, true)
	slog.SetDefault(logger)

	if *stub {
		cfg.LLM.Mode = "stub"
	}
	if *inmem || cfg.Database.Driver == "" {
		cfg.Database.Driver = repository.DriverSQLite
		cfg.Database.DSN = "file:referral-batch?mode=memory&cache=shared"
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{SkipStore: true}, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var processed, failures atomic.Int64
	queue := async.NewProcessorQueue(func(ctx context.Context, job async.Job) error {
		_, err := app.Extraction.ProcessPath(ctx, job.Path, job.Format)
		if err != nil {
			failures.Add(1)
			return err
		}
		processed.Add(1)
		return nil
	}, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(*workers*4),
		async.WithProcessTimeout(cfg.Server.RequestTimeout),
	)

	if *watch {
		events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{*dir},
			InitialScan: true,
			SkipHidden:  true,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
		logger.Info("watching for referrals", "dir", *dir)
		for c := range events {
			if err := queue.Enqueue(ctx, async.Job{Path: c.Path, Format: c.Format}); err != nil {
				logger.Warn("enqueue failed", "path", c.Path, "error", err)
			}
		}
	} else {
		candidates, stats, err := ingest.Discover(*dir, true)
		if err != nil {
			logger.Error("failed to scan directory", "error", err)
			os.Exit(1)
		}
		logger.Info("scan complete", "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
		for _, c := range candidates {
			if err := queue.Enqueue(ctx, async.Job{Path: c.Path, Format: c.Format}); err != nil {
				logger.Warn("enqueue failed", "path", c.Path, "error", err)
				break
			}
		}
	}

	queue.Shutdown(context.Background())

	total := int(processed.Load() + failures.Load())
	if total > 0 {
		xlsx, err := app.Export.ExportHistoryXLSX(context.Background(), total)
		if err != nil {
			logger.Error("failed to export history", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("batch processing complete",
		"files_processed", processed.Load(),
		"failures", failures.Load(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", processed.Load())
	fmt.Printf("- Failures: %d\n", failures.Load())
	if total > 0 {
		fmt.Printf("- Output: %s\n", *out)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/bootstrap"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/export"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		out        = flag.String("out", "referral-history.xlsx", "output XLSX file path")
		limit      = flag.Int("limit", 1000, "most recent entries to export")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel, true)
	if cfg.Database.Driver == "" {
		logger.Error("history store disabled; set DB_DRIVER and DB_URL")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{
		Driver:      cfg.Database.Driver,
		DSN:         cfg.Database.DSN,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	history := repository.NewHistoryRepository(db, logger)
	xlsx, err := export.NewService(history, logger).ExportHistoryXLSX(ctx, *limit)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("write output", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("history exported", "path", *out, "bytes", len(xlsx))
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/bootstrap"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		stub       = flag.Bool("stub", false, "skip the model and return the stub record")
		format     = flag.String("format", "", "format tag (pdf|image|text|word); inferred from the extension when empty")
		record     = flag.Bool("history", false, "append the result to the history store")
		timeout    = flag.Duration("timeout", 3*time.Minute, "overall processing timeout")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: referral-extract [flags] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel, true)
	slog.SetDefault(logger)

	if *stub {
		cfg.LLM.Mode = "stub"
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if v := common.NewValidator().Field("format", *format, common.KnownFormat); v.HasErrors() {
		logger.Error("invalid flag", "error", v.ErrorMessage())
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{SkipStore: true, SkipHistory: !*record}, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	res, procErr := app.Extraction.ProcessPath(ctx, path, constants.SourceFormat(*format))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Outcome); err != nil {
		logger.Error("encode outcome", "error", err)
		os.Exit(1)
	}
	if procErr != nil {
		logger.Error("extraction failed", "path", path, "code", common.CodeOf(procErr), "error", procErr)
		os.Exit(1)
	}
}

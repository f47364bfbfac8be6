package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/bootstrap"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/ocr"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/textextract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	format := flag.String("format", "", "format tag (pdf|image|text|word); inferred when empty")
	flag.Parse()
	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-format tag] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := common.LoadConfig("")
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}
	logger = bootstrap.NewLogger(os.Stderr, cfg.LogLevel, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	engine := ocr.NewEngine(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
	}, logger)
	n := textextract.NewNormalizer(textextract.Config{MaxPages: cfg.OCR.MaxPages}, engine, engine, logger)

	start := time.Now()
	doc, err := n.Normalize(ctx, path, constants.SourceFormat(*format))
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "code", common.CodeOf(err), "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	stats := doc.Stats()
	logger.Info("text extraction OK",
		"format", doc.Format(),
		"pages", stats.Pages,
		"characters", stats.CharacterCount,
		"words", stats.WordCount,
		"insufficient", doc.Insufficient(),
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Println(doc.RawText())
}

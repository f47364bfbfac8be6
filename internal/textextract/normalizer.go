package textextract

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

type Config struct {
	MaxPages int // OCR page cap for PDFs, default 8
}

// Normalizer converts a supported input file into a NormalizedDocument.
type Normalizer struct {
	cfg       Config
	ocr       PageRecognizer
	raster    Rasterizer
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

func NewNormalizer(cfg Config, ocr PageRecognizer, raster Rasterizer, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 8
	}
	return &Normalizer{cfg: cfg, ocr: ocr, raster: raster, pageCount: pdfPageCount, logger: logger}
}

// ResolveFormat returns the declared format, or the one implied by the
// extension of path when declared is empty. It never touches the file.
func ResolveFormat(path string, declared constants.SourceFormat) (constants.SourceFormat, error) {
	if declared != "" {
		if !declared.Valid() {
			return "", common.UnsupportedFormatError(string(declared))
		}
		return declared, nil
	}
	f, ok := constants.FormatForPath(path)
	if !ok {
		return "", common.UnsupportedFormatError(constants.NormalizeExt(extOf(path)))
	}
	return f, nil
}

// Normalize extracts the text of path according to format.
func (n *Normalizer) Normalize(ctx context.Context, path string, format constants.SourceFormat) (NormalizedDocument, error) {
	format, err := ResolveFormat(path, format)
	if err != nil {
		n.logger.Warn("textextract.unsupported_format", "path", path, "error", err)
		return NormalizedDocument{}, err
	}

	start := time.Now()
	n.logger.Info("textextract.start", "path", path, "format", format, "job_id", common.JobIDFromContext(ctx))

	var doc NormalizedDocument
	switch format {
	case constants.FormatPDF:
		doc, err = n.extractPDF(ctx, path)
	case constants.FormatImage:
		doc, err = n.extractImage(ctx, path)
	case constants.FormatText:
		doc, err = readText(path)
	case constants.FormatWord:
		doc, err = readDocx(path)
	}
	if err != nil {
		n.logger.Error("textextract.failed",
			"path", path,
			"format", format,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return NormalizedDocument{}, err
	}

	n.logger.Info("textextract.ok",
		"path", path,
		"format", format,
		"chars", doc.CharacterCount(),
		"words", doc.WordCount(),
		"pages", doc.Pages(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

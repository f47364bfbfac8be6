package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/schema"
)

// Config holds behavior flags for the processor.
type Config struct {
	// GateOnClassification skips the model call for documents the classifier
	// does not consider referrals.
	GateOnClassification bool
}

// Processor runs normalize -> classify -> extract -> validate for one document.
// It holds no per-request state and is safe for concurrent use.
type Processor struct {
	cfg        Config
	normalizer TextNormalizer
	classifier DocumentClassifier
	extractor  StructuredExtractor
	logger     *slog.Logger
}

func NewProcessor(cfg Config, n TextNormalizer, c DocumentClassifier, e StructuredExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{cfg: cfg, normalizer: n, classifier: c, extractor: e, logger: logger}
}

// Process runs the pipeline over the file at path. format may be empty to infer
// it from the extension.
//
// Insufficient text and validation problems are reported through the outcome,
// not the error. When extraction fails the returned outcome still carries the
// text stats and classification next to the error.
func (p *Processor) Process(ctx context.Context, path string, format constants.SourceFormat) (ExtractionOutcome, error) {
	jobID := common.JobIDFromContext(ctx)
	start := time.Now()

	doc, err := p.normalizer.Normalize(ctx, path, format)
	if err != nil {
		p.logger.Error("pipeline.normalize.failed", "job_id", jobID, "path", path, "error", err)
		return ExtractionOutcome{Status: constants.StatusFailed, SourceFormat: format}, common.WrapError(err, "normalize")
	}

	stats := doc.Stats()
	out := ExtractionOutcome{
		Status:       constants.StatusFailed,
		SourceFormat: doc.Format(),
		TextStats:    &stats,
	}
	p.logger.Info("pipeline.normalize.ok",
		"job_id", jobID,
		"format", doc.Format(),
		"chars", stats.CharacterCount,
		"words", stats.WordCount,
		"pages", stats.Pages,
	)

	text := strings.TrimSpace(doc.RawText())

	// Short text gets the classifier's fixed insufficient-content result.
	cls := p.classifier.Classify(text)
	out.Classification = &cls

	if doc.Insufficient() {
		p.logger.Warn("pipeline.insufficient_text", "job_id", jobID, "chars", stats.CharacterCount)
		out.Status = constants.StatusInsufficientText
		return out, nil
	}

	p.logger.Info("pipeline.classify.ok",
		"job_id", jobID,
		"is_referral", cls.IsReferral,
		"confidence", cls.Confidence,
		"score", cls.Score,
	)

	if p.cfg.GateOnClassification && !cls.IsReferral {
		res := schema.NormalizeAndValidate(map[string]any{})
		msg := "Extraction skipped: " + cls.Reason
		out.Status = constants.StatusSkippedNotReferral
		out.Record = res.Value()
		out.ValidationWarning = &msg
		p.logger.Info("pipeline.extract.skipped", "job_id", jobID, "reason", cls.Reason)
		return out, nil
	}

	raw, err := p.extractor.Extract(ctx, text, schema.Description())
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "job_id", jobID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return out, common.WrapError(err, "extract")
	}

	res := schema.NormalizeAndValidate(raw)
	out.Record = res.Value()
	out.ValidationWarning = res.Warning
	if res.Warning != nil {
		out.Status = constants.StatusCompletedWithWarning
		p.logger.Warn("pipeline.validate.warning", "job_id", jobID, "warning", *res.Warning)
	} else {
		out.Status = constants.StatusCompleted
	}

	p.logger.Info("pipeline.done",
		"job_id", jobID,
		"status", out.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

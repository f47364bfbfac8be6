package llm

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

// Config tunes the single model call made per document.
type Config struct {
	Mode          Mode
	MaxInputChars int // runes of document text sent to the model
	MaxTokens     int
	Temperature   float32
}

// Extractor turns document text into a JSON value shaped by a schema description.
type Extractor struct {
	cfg       Config
	completer Completer
	logger    *slog.Logger
}

// NewExtractor builds an Extractor. completer may be nil in stub mode.
func NewExtractor(cfg Config, completer Completer, logger *slog.Logger) *Extractor {
	if cfg.Mode == "" {
		cfg.Mode = ModeLive
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 8000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, completer: completer, logger: logger}
}

func (e *Extractor) Mode() Mode { return e.cfg.Mode }

// Extract makes one model call and recovers JSON from the answer. The returned
// value is whatever JSON the model produced; shaping it is left to the caller.
func (e *Extractor) Extract(ctx context.Context, text string, schemaDesc any) (any, error) {
	jobID := common.JobIDFromContext(ctx)

	if e.cfg.Mode == ModeStub {
		e.logger.Info("llm.extract.stub", "job_id", jobID)
		return StubRecord(), nil
	}
	if e.completer == nil {
		return nil, common.ExtractionFailedError("no model client configured", nil)
	}

	input, truncated := Truncate(text, e.cfg.MaxInputChars)
	user, err := BuildUserPrompt(input, schemaDesc)
	if err != nil {
		return nil, common.ExtractionFailedError("build prompt", err)
	}

	start := time.Now()
	e.logger.Info("llm.extract.start",
		"job_id", jobID,
		"provider", e.completer.Name(),
		"text_runes", utf8.RuneCountInString(text),
		"truncated", truncated,
	)

	raw, err := e.completer.Complete(ctx, CompletionRequest{
		System:      SystemPrompt,
		User:        user,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		e.logger.Error("llm.extract.failed", "job_id", jobID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.ExtractionFailedError("model request failed", err)
	}

	v, err := RecoverJSON(raw)
	if err != nil {
		e.logger.Error("llm.extract.malformed", "job_id", jobID, "bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	e.logger.Info("llm.extract.ok", "job_id", jobID, "bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
	return v, nil
}

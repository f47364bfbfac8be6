// Package bootstrap wires the extraction pipeline and its outer services from
// a loaded configuration. Binaries call Build once and Close on exit.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/classifier"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/export"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/llm"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/llm/gemini"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/llm/openai"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/ocr"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/pipeline"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/services/extraction"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/storage"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/textextract"
)

// App holds every long-lived component. DB, History and Export are nil when
// the history store is disabled.
type App struct {
	Config     *common.Config
	OCR        *ocr.Engine
	Normalizer *textextract.Normalizer
	Processor  *pipeline.Processor
	Store      storage.Store
	DB         *repository.DB
	History    repository.HistoryRepository
	Extraction *extraction.Service
	Export     *export.Service

	logger *slog.Logger
}

// Options narrows what Build wires. Tools that only need part of the stack
// skip the rest.
type Options struct {
	SkipStore   bool
	SkipHistory bool
}

func Build(ctx context.Context, cfg *common.Config, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, logger: logger}

	app.OCR = ocr.NewEngine(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
	}, logger)
	app.Normalizer = textextract.NewNormalizer(textextract.Config{MaxPages: cfg.OCR.MaxPages}, app.OCR, app.OCR, logger)

	mode, ok := llm.ParseMode(cfg.LLM.Mode)
	if !ok {
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM mode %q", cfg.LLM.Mode), common.ErrInvalidInput)
	}
	var completer llm.Completer
	if mode == llm.ModeLive {
		c, err := NewCompleter(ctx, cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
		completer = c
	}
	extractor := llm.NewExtractor(llm.Config{
		Mode:          mode,
		MaxInputChars: cfg.LLM.MaxInputChars,
		MaxTokens:     cfg.LLM.MaxTokens,
		Temperature:   cfg.LLM.Temperature,
	}, completer, logger)

	cls := classifier.New(cfg.Pipeline.StrongThreshold, cfg.Pipeline.TotalThreshold)
	app.Processor = pipeline.NewProcessor(pipeline.Config{GateOnClassification: cfg.Pipeline.GateOnClassification}, app.Normalizer, cls, extractor, logger)

	if !opts.SkipStore {
		st, err := NewStore(cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
		app.Store = st
	}

	if !opts.SkipHistory && cfg.Database.Driver != "" {
		db, err := repository.Open(ctx, repository.Config{
			Driver:          cfg.Database.Driver,
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		app.DB = db
		app.History = repository.NewHistoryRepository(db, logger)
		app.Export = export.NewService(app.History, logger)
	}

	app.Extraction = extraction.NewService(app.Processor, app.Store, app.History, logger)

	logger.Info("bootstrap.ready",
		"llm_mode", mode,
		"llm_provider", cfg.LLM.Provider,
		"storage", storeName(app.Store),
		"db_driver", cfg.Database.Driver,
		"gate", cfg.Pipeline.GateOnClassification,
	)
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewCompleter returns the chat client for cfg.Provider, wrapped in a response
// cache when cfg.CacheSize is positive.
func NewCompleter(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	var c llm.Completer
	switch cfg.Provider {
	case openai.FlavorOpenAI, openai.FlavorAzure:
		c = openai.NewClient(openai.Config{
			Flavor:     cfg.Provider,
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Endpoint:   cfg.AzureEndpoint,
			Deployment: cfg.AzureDeployment,
			APIVersion: cfg.AzureAPIVersion,
			Timeout:    cfg.Timeout,
		}, logger)
	case "gemini":
		g, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model}, logger)
		if err != nil {
			return nil, common.WrapAppError(common.CodeConfig, "gemini client", common.ErrInvalidInput, err)
		}
		c = g
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM provider %q", cfg.Provider), common.ErrInvalidInput)
	}

	if cfg.CacheSize <= 0 {
		return c, nil
	}
	cached, err := llm.NewCachingCompleter(c, cfg.CacheSize, logger)
	if err != nil {
		return nil, common.WrapAppError(common.CodeConfig, "completion cache", common.ErrInvalidInput, err)
	}
	return cached, nil
}

func NewStore(cfg common.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case "", "local":
		return storage.NewLocalStore(cfg.UploadDir, logger)
	case "s3":
		return storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		}, logger)
	}
	return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown storage backend %q", cfg.Backend), common.ErrInvalidInput)
}

func storeName(s storage.Store) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}

// NewLogger builds the process logger. JSON output is used by the batch tools,
// text output by the server.
func NewLogger(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

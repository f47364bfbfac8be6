package extraction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/pipeline"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/storage"
)

// ErrHistoryDisabled is returned by Recent when no history store is wired.
var ErrHistoryDisabled = errors.New("history store not configured")

// Processor is the pipeline entry point. Implemented by *pipeline.Processor.
type Processor interface {
	Process(ctx context.Context, path string, format constants.SourceFormat) (pipeline.ExtractionOutcome, error)
}

// Result is one processed document together with its bookkeeping.
type Result struct {
	JobID      string
	SourceFile string
	FileType   string // lowercased extension, no dot
	SHA256     string
	Outcome    pipeline.ExtractionOutcome
}

// Service runs uploads and server-side paths through the pipeline and records
// every attempt in the history store. store and history may be nil.
type Service struct {
	proc    Processor
	store   storage.Store
	history repository.HistoryRepository
	logger  *slog.Logger
}

func NewService(proc Processor, store storage.Store, history repository.HistoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{proc: proc, store: store, history: history, logger: logger}
}

// Upload stores r, processes the stored copy and releases it. The extension of
// filename decides the format; unsupported names are rejected before anything
// is written.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (Result, error) {
	res := Result{JobID: uuid.NewString(), SourceFile: filename, FileType: constants.NormalizeExt(filepath.Ext(filename))}
	ctx = common.WithJobID(ctx, res.JobID)

	format, ok := constants.FormatForPath(filename)
	if !ok {
		err := common.UnsupportedFormatError(res.FileType)
		s.logger.Warn("extraction.upload.rejected", "job_id", res.JobID, "filename", filename, "error", err)
		res.Outcome = pipeline.ExtractionOutcome{Status: constants.StatusFailed}
		return res, err
	}
	if s.store == nil {
		res.Outcome = pipeline.ExtractionOutcome{Status: constants.StatusFailed, SourceFormat: format}
		return res, common.NewAppError(common.CodeStorage, "no upload store configured", common.ErrStorage)
	}

	stored, err := s.store.Save(ctx, res.JobID, filename, r)
	if err != nil {
		res.Outcome = pipeline.ExtractionOutcome{Status: constants.StatusFailed, SourceFormat: format}
		return res, err
	}
	defer func() {
		if err := s.store.Release(context.WithoutCancel(ctx), stored); err != nil {
			s.logger.Warn("extraction.upload.release_failed", "job_id", res.JobID, "error", err)
		}
	}()
	res.SHA256 = stored.SHA256

	return s.run(ctx, res, stored.LocalPath, format)
}

// ProcessPath processes a file that is already readable by this process.
func (s *Service) ProcessPath(ctx context.Context, path string, format constants.SourceFormat) (Result, error) {
	res := Result{JobID: uuid.NewString(), SourceFile: filepath.Base(path), FileType: constants.NormalizeExt(filepath.Ext(path))}
	ctx = common.WithJobID(ctx, res.JobID)
	return s.run(ctx, res, path, format)
}

func (s *Service) run(ctx context.Context, res Result, path string, format constants.SourceFormat) (Result, error) {
	start := time.Now()
	s.logger.Info("extraction.start", "job_id", res.JobID, "source_file", res.SourceFile, "format", format)

	out, err := s.proc.Process(ctx, path, format)
	res.Outcome = out
	s.record(ctx, res, err)

	if err != nil {
		s.logger.Error("extraction.failed", "job_id", res.JobID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return res, err
	}
	s.logger.Info("extraction.ok",
		"job_id", res.JobID,
		"status", out.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (s *Service) record(ctx context.Context, res Result, procErr error) {
	if s.history == nil {
		return
	}
	e := HistoryEntryFor(res, procErr)
	if s.store != nil {
		e.StorageBackend = s.store.Name()
	}
	if _, err := s.history.Append(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("extraction.history.append_failed", "job_id", res.JobID, "error", err)
	}
}

// Recent proxies the history store.
func (s *Service) Recent(ctx context.Context, limit int) ([]repository.HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/pipeline"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/services/extraction"
)

const (
	ServiceName = "medical-referral-extractor"
	Version     = "1.0.0"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// Extractor is the part of *extraction.Service the transports use.
type Extractor interface {
	Upload(ctx context.Context, filename string, r io.Reader) (extraction.Result, error)
	ProcessPath(ctx context.Context, path string, format constants.SourceFormat) (extraction.Result, error)
	Recent(ctx context.Context, limit int) ([]repository.HistoryEntry, error)
}

// Exporter renders history as a workbook. Implemented by *export.Service.
type Exporter interface {
	ExportHistoryXLSX(ctx context.Context, limit int) ([]byte, error)
}

type HTTPConfig struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type HTTPServer struct {
	cfg      HTTPConfig
	svc      Extractor
	exporter Exporter // nil disables the xlsx download
	logger   *slog.Logger
	now      func() time.Time
}

func NewHTTPServer(cfg HTTPConfig, svc Extractor, exporter Exporter, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}
	return &HTTPServer{cfg: cfg, svc: svc, exporter: exporter, logger: logger, now: time.Now}
}

// Handler returns the routed handler with middleware applied.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors(s.cfg.AllowedOrigins))
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Get("/supported-formats", s.supportedFormats)
	r.Post("/upload", s.upload)
	r.Get("/history", s.history)
	r.Get("/history/export.xlsx", s.exportHistory)
	return r
}

func (s *HTTPServer) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"message":           "Medical Referral Extraction Service is running",
		"supported_formats": constants.SupportedExtensions(),
		"version":           Version,
	})
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": float64(s.now().UnixMicro()) / 1e6,
	})
}

func (s *HTTPServer) supportedFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"supported_formats": constants.SupportedExtensions(),
		"descriptions":      constants.ExtDescriptions,
	})
}

// uploadResponse is the outcome flattened next to the job bookkeeping.
type uploadResponse struct {
	JobID      string `json:"job_id,omitempty"`
	FileType   string `json:"file_type,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
	pipeline.ExtractionOutcome
	Error string `json:"error,omitempty"`
}

func (s *HTTPServer) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit of "+strconv.FormatInt(s.cfg.MaxUploadBytes, 10)+" bytes")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit of "+strconv.FormatInt(tooBig.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	v := common.NewValidator().
		Field("filename", header.Filename, common.Required, common.MaxLength(255)).
		Field("size", header.Size, common.MaxBytes(s.cfg.MaxUploadBytes))
	if err := v.Error(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Upload(r.Context(), header.Filename, file)
	resp := uploadResponse{
		JobID:             res.JobID,
		FileType:          res.FileType,
		SourceFile:        res.SourceFile,
		ExtractionOutcome: res.Outcome,
	}
	code := StatusFor(res.Outcome, err)
	switch {
	case err != nil:
		resp.Error = err.Error()
	case res.Outcome.Status == constants.StatusInsufficientText:
		resp.Error = "Could not extract sufficient text from document"
	}
	writeJSON(w, code, resp)
}

// StatusFor maps an outcome and its error onto an HTTP status code.
func StatusFor(out pipeline.ExtractionOutcome, err error) int {
	if err == nil {
		if out.Status == constants.StatusInsufficientText {
			return http.StatusBadRequest
		}
		return http.StatusOK
	}
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrTextRead):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (s *HTTPServer) history(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.svc.Recent(r.Context(), limit)
	if err != nil {
		if errors.Is(err, extraction.ErrHistoryDisabled) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("http.history.failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}
	if entries == nil {
		entries = []repository.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *HTTPServer) exportHistory(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, extraction.ErrHistoryDisabled.Error())
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	xlsx, err := s.exporter.ExportHistoryXLSX(r.Context(), limit)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="referral-history.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

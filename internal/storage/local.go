package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

// LocalStore writes uploads to <dir>/<job id>.<ext> and deletes them on Release.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.WrapAppError(common.CodeStorage, "create upload dir", common.ErrStorage, err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Save(_ context.Context, jobID, filename string, r io.Reader) (StoredFile, error) {
	name := cleanName(filename)
	ext := extOf(name)
	path := filepath.Join(s.dir, jobID+"."+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return StoredFile{}, common.WrapAppError(common.CodeStorage, "create upload file", common.ErrStorage, err)
	}
	size, sum, err := writeHashed(f, r)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close upload: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, common.WrapAppError(common.CodeStorage, "save upload", common.ErrStorage, err)
	}

	s.logger.Info("storage.local.saved", "job_id", jobID, "path", path, "bytes", size, "sha256", sum)
	return StoredFile{
		JobID:     jobID,
		Filename:  name,
		Ext:       ext,
		LocalPath: path,
		Size:      size,
		SHA256:    sum,
	}, nil
}

// Release removes the saved file. A file that is already gone is not an error.
func (s *LocalStore) Release(_ context.Context, f StoredFile) error {
	if f.LocalPath == "" {
		return nil
	}
	if err := os.Remove(f.LocalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("storage.local.cleanup_failed", "job_id", f.JobID, "path", f.LocalPath, "error", err)
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

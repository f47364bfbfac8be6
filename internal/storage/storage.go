// Package storage keeps uploaded documents somewhere the pipeline can read them.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
)

// StoredFile describes one saved upload.
type StoredFile struct {
	JobID     string
	Filename  string // client-supplied base name
	Ext       string // normalized, no dot
	LocalPath string // readable path handed to the pipeline
	Size      int64
	SHA256    string
	ObjectKey string // set by the S3 backend only
}

// Store saves uploads and releases the local copy once processing is done.
type Store interface {
	Save(ctx context.Context, jobID, filename string, r io.Reader) (StoredFile, error)
	Release(ctx context.Context, f StoredFile) error
	Name() string
}

// writeHashed copies r into f while hashing, returning size and hex sha256.
func writeHashed(f *os.File, r io.Reader) (int64, string, error) {
	h := sha256.New()
	n, err := io.Copy(f, io.TeeReader(r, h))
	if err != nil {
		return n, "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return n, "", fmt.Errorf("sync upload: %w", err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// cleanName strips any directory part a client may have sent.
func cleanName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "unknown"
	}
	return name
}

func extOf(filename string) string {
	return constants.NormalizeExt(filepath.Ext(filename))
}

package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
)

// Candidate is a file whose extension maps to a supported format.
type Candidate struct {
	Path   string
	Format constants.SourceFormat
}

// DirStats summarizes a directory walk and the processing that followed it.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Discover walks root and returns the supported files beneath it in lexical
// order. Unreadable entries are counted as failures and the walk continues.
func Discover(root string, skipHidden bool) ([]Candidate, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var out []Candidate
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		format, ok := constants.FormatForPath(path)
		if !ok {
			return nil
		}
		stats.Matched++
		out = append(out, Candidate{Path: path, Format: format})
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk: %w", err)
	}
	return out, stats, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Rasterize renders the first maxPages pages of a PDF to PNG files.
// Pages are returned in page order. cleanup removes the temp directory and is
// never nil.
func (e *Engine) Rasterize(ctx context.Context, pdfPath string, maxPages int) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "ref-pp-*")
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.rasterize.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(maxPages))
	}
	args = append(args, pdfPath, prefix)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		msg := strings.TrimSpace(string(errb))
		cleanup()
		return nil, func() {}, fmt.Errorf("pdftoppm: %w: %s", err, truncate(msg, 512))
	}

	// collect generated pngs (page-1.png, page-2.png, ... or zero-padded)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})
	if maxPages > 0 && len(matches) > maxPages {
		matches = matches[:maxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return nil, func() {}, fmt.Errorf("pdftoppm produced no images")
	}
	e.logger.Debug("ocr.rasterize.ok", "pdf", pdfPath, "pages", len(matches))
	return matches, cleanup, nil
}

// pageNumber parses N out of ".../page-N.png".
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	i := strings.LastIndex(base, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0
	}
	return n
}

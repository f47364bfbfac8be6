package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

// extractPDF rasterizes up to MaxPages pages and OCRs them one by one.
// The first failing page aborts the document.
func (n *Normalizer) extractPDF(ctx context.Context, path string) (NormalizedDocument, error) {
	if n.raster == nil || n.ocr == nil {
		return NormalizedDocument{}, common.OCRFailureError("no OCR engine configured", nil)
	}

	total, err := n.pageCount(path)
	if err != nil {
		n.logger.Warn("textextract.pdf.page_count_failed", "path", path, "error", err)
	} else if total > n.cfg.MaxPages {
		n.logger.Info("textextract.pdf.page_cap", "path", path, "pages_total", total, "max_pages", n.cfg.MaxPages)
	}

	images, cleanup, err := n.raster.Rasterize(ctx, path, n.cfg.MaxPages)
	if err != nil {
		return NormalizedDocument{}, common.OCRFailureError("rasterize pdf", err)
	}
	defer cleanup()

	parts := make([]string, 0, len(images))
	for i, img := range images {
		pageNo := i + 1
		txt, err := n.ocr.RecognizePage(ctx, img)
		if err != nil {
			n.logger.Error("textextract.pdf.page_failed", "path", path, "page", pageNo, "error", err)
			return NormalizedDocument{}, common.OCRFailureError(fmt.Sprintf("ocr page %d of %d", pageNo, len(images)), err)
		}
		n.logger.Debug("textextract.pdf.page_ok", "page", pageNo, "pages", len(images), "chars", len(txt))
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNo, txt))
	}
	return NewDocument(strings.Join(parts, "\n\n"), constants.FormatPDF, len(images)), nil
}

package textextract

import (
	"context"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

func (n *Normalizer) extractImage(ctx context.Context, path string) (NormalizedDocument, error) {
	if n.ocr == nil {
		return NormalizedDocument{}, common.OCRFailureError("no OCR engine configured", nil)
	}
	txt, err := n.ocr.RecognizePage(ctx, path)
	if err != nil {
		return NormalizedDocument{}, common.OCRFailureError("ocr image", err)
	}
	return NewDocument(txt, constants.FormatImage, 1), nil
}

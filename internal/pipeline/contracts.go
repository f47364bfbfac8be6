package pipeline

import (
	"context"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/classifier"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/textextract"
)

// TextNormalizer turns a file into plain text. Implemented by *textextract.Normalizer.
type TextNormalizer interface {
	Normalize(ctx context.Context, path string, format constants.SourceFormat) (textextract.NormalizedDocument, error)
}

// DocumentClassifier scores text. Implemented by *classifier.Classifier.
type DocumentClassifier interface {
	Classify(text string) classifier.Result
}

// StructuredExtractor asks a model for JSON. Implemented by *llm.Extractor.
type StructuredExtractor interface {
	Extract(ctx context.Context, text string, schemaDesc any) (any, error)
}

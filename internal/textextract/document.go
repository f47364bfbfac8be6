package textextract

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
)

// MinTextChars is the trimmed length below which a document is insufficient.
const MinTextChars = 50

// NormalizedDocument is the text of one input plus derived statistics.
// Build it with NewDocument; the counts cannot drift from the text.
type NormalizedDocument struct {
	rawText   string
	format    constants.SourceFormat
	charCount int
	wordCount int
	pages     int
}

// TextStats is the statistics block exposed on the wire.
type TextStats struct {
	CharacterCount int `json:"character_count"`
	WordCount      int `json:"word_count"`
	Pages          int `json:"pages"`
}

func NewDocument(text string, format constants.SourceFormat, pages int) NormalizedDocument {
	return NormalizedDocument{
		rawText:   text,
		format:    format,
		charCount: utf8.RuneCountInString(text),
		wordCount: len(strings.Fields(text)),
		pages:     pages,
	}
}

func (d NormalizedDocument) RawText() string { return d.rawText }
func (d NormalizedDocument) Format() constants.SourceFormat { return d.format }
func (d NormalizedDocument) CharacterCount() int { return d.charCount }
func (d NormalizedDocument) WordCount() int { return d.wordCount }
func (d NormalizedDocument) Pages() int { return d.pages }

// Insufficient reports whether the trimmed text is too short to process.
func (d NormalizedDocument) Insufficient() bool {
	return utf8.RuneCountInString(strings.TrimSpace(d.rawText)) < MinTextChars
}

func (d NormalizedDocument) Stats() TextStats {
	return TextStats{CharacterCount: d.charCount, WordCount: d.wordCount, Pages: d.pages}
}

func (d NormalizedDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		RawText        string                 `json:"raw_text"`
		SourceFormat   constants.SourceFormat `json:"source_format"`
		CharacterCount int                    `json:"character_count"`
		WordCount      int                    `json:"word_count"`
		Pages          int                    `json:"pages"`
	}{d.rawText, d.format, d.charCount, d.wordCount, d.pages})
}

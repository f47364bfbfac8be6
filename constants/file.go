package constants

import (
	"path/filepath"
	"sort"
	"strings"
)

// SourceFormat is the declared format tag of an input document.
type SourceFormat string

const (
	FormatPDF   SourceFormat = "pdf"
	FormatImage SourceFormat = "image"
	FormatText  SourceFormat = "text"
	FormatWord  SourceFormat = "word"
)

// extFormats maps a lowercased extension (no dot) to its format tag.
var extFormats = map[string]SourceFormat{
	"pdf":  FormatPDF,
	"jpg":  FormatImage,
	"jpeg": FormatImage,
	"png":  FormatImage,
	"bmp":  FormatImage,
	"tif":  FormatImage,
	"tiff": FormatImage,
	"txt":  FormatText,
	"docx": FormatWord,
}

// ExtDescriptions is served by the supported-formats endpoint.
var ExtDescriptions = map[string]string{
	".pdf":  "Portable Document Format (with OCR)",
	".jpg":  "JPEG Image (with OCR)",
	".jpeg": "JPEG Image (with OCR)",
	".png":  "PNG Image (with OCR)",
	".bmp":  "Bitmap Image (with OCR)",
	".tif":  "TIFF Image (with OCR)",
	".tiff": "TIFF Image (with OCR)",
	".txt":  "Plain Text File",
	".docx": "Microsoft Word Document",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt returns the format for ext ("pdf", ".PDF", ...).
func FormatForExt(ext string) (SourceFormat, bool) {
	f, ok := extFormats[NormalizeExt(ext)]
	return f, ok
}

// FormatForPath returns the format implied by the extension of path.
func FormatForPath(path string) (SourceFormat, bool) {
	return FormatForExt(filepath.Ext(path))
}

// Valid reports whether f is one of the known format tags.
func (f SourceFormat) Valid() bool {
	switch f {
	case FormatPDF, FormatImage, FormatText, FormatWord:
		return true
	}
	return false
}

// SupportedExtensions returns the accepted extensions with a leading dot, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extFormats))
	for ext := range extFormats {
		out = append(out, "."+ext)
	}
	sort.Strings(out)
	return out
}

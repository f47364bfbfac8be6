package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForPath(t *testing.T) {
	cases := map[string]SourceFormat{
		"/tmp/a.pdf":         FormatPDF,
		"scan.JPG":           FormatImage,
		"fax.tiff":           FormatImage,
		"notes.txt":          FormatText,
		"letter.DOCX":        FormatWord,
		"dir.with.dot/x.png": FormatImage,
	}
	for path, want := range cases {
		got, ok := FormatForPath(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	for _, path := range []string{"a.doc", "b.xlsx", "noext", "c.heic"} {
		_, ok := FormatForPath(path)
		assert.False(t, ok, path)
	}
}

func TestSupportedExtensionsSortedWithDot(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, ".pdf")
	assert.Contains(t, exts, ".docx")
	assert.IsIncreasing(t, exts)
	for _, e := range exts {
		_, ok := ExtDescriptions[e]
		assert.True(t, ok, "missing description for %s", e)
	}
}

func TestSourceFormatValid(t *testing.T) {
	assert.True(t, FormatWord.Valid())
	assert.False(t, SourceFormat("spreadsheet").Valid())
	assert.False(t, SourceFormat("").Valid())
}

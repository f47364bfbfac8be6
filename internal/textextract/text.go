package textextract

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

// readText reads a plain text file as UTF-8, falling back to Latin-1.
func readText(path string) (NormalizedDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return NormalizedDocument{}, common.TextReadError("read text file", err)
	}
	return NewDocument(decodeText(b), constants.FormatText, 0), nil
}

func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return norm.NFC.String(string(b))
	}
	// ISO-8859-1 maps every byte, so this cannot fail.
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func extOf(path string) string { return filepath.Ext(path) }

package textextract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

const tablesMarker = "\n\n--- Tables ---\n"

// readDocx reads word/document.xml from a .docx archive. Body paragraphs come
// first, then top-level table rows after tablesMarker.
func readDocx(path string) (NormalizedDocument, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return NormalizedDocument{}, common.TextReadError("open docx", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return NormalizedDocument{}, common.TextReadError("word/document.xml not found in archive", nil)
	}

	rc, err := docFile.Open()
	if err != nil {
		return NormalizedDocument{}, common.TextReadError("open document.xml", err)
	}
	defer rc.Close()

	text, err := parseDocumentXML(rc)
	if err != nil {
		return NormalizedDocument{}, common.TextReadError("parse document.xml", err)
	}
	return NewDocument(norm.NFC.String(text), constants.FormatWord, 0), nil
}

// docxParser tracks open elements by their index in stack; -1 means none.
type docxParser struct {
	stack   []string
	tblIdx  int
	rowIdx  int
	cellIdx int
	paraIdx int
	inText  bool

	para       strings.Builder
	cellParas  []string
	cells      []string
	paragraphs []string
	rows       []string
}

func parseDocumentXML(rd io.Reader) (string, error) {
	p := &docxParser{tblIdx: -1, rowIdx: -1, cellIdx: -1, paraIdx: -1}
	dec := xml.NewDecoder(rd)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("xml token: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t.Name.Local)
		case xml.EndElement:
			p.end()
		case xml.CharData:
			if p.inText {
				p.para.Write(t)
			}
		}
	}

	out := strings.Join(p.paragraphs, "\n")
	if len(p.rows) > 0 {
		out += tablesMarker + strings.Join(p.rows, "\n")
	}
	return out, nil
}

func (p *docxParser) start(name string) {
	pi := len(p.stack) - 1
	parent := ""
	if pi >= 0 {
		parent = p.stack[pi]
	}
	here := len(p.stack)

	switch name {
	case "tbl":
		if parent == "body" && p.tblIdx < 0 {
			p.tblIdx = here
		}
	case "tr":
		if p.tblIdx >= 0 && pi == p.tblIdx {
			p.rowIdx = here
			p.cells = p.cells[:0]
		}
	case "tc":
		if p.rowIdx >= 0 && pi == p.rowIdx {
			p.cellIdx = here
			p.cellParas = p.cellParas[:0]
		}
	case "p":
		if p.paraIdx < 0 && (parent == "body" || (p.cellIdx >= 0 && pi == p.cellIdx)) {
			p.paraIdx = here
			p.para.Reset()
		}
	case "t":
		p.inText = parent == "r" && p.ownsRun()
	case "tab":
		if parent == "r" && p.ownsRun() {
			p.para.WriteString("\t")
		}
	case "br", "cr":
		if parent == "r" && p.ownsRun() {
			p.para.WriteString("\n")
		}
	}
	p.stack = append(p.stack, name)
}

func (p *docxParser) end() {
	if len(p.stack) == 0 {
		return
	}
	idx := len(p.stack) - 1
	name := p.stack[idx]
	p.stack = p.stack[:idx]

	switch {
	case name == "t":
		p.inText = false
	case name == "p" && idx == p.paraIdx:
		text := p.para.String()
		if p.cellIdx >= 0 {
			p.cellParas = append(p.cellParas, text)
		} else if strings.TrimSpace(text) != "" {
			p.paragraphs = append(p.paragraphs, text)
		}
		p.paraIdx = -1
	case name == "tc" && idx == p.cellIdx:
		p.cells = append(p.cells, strings.TrimSpace(strings.Join(p.cellParas, "\n")))
		p.cellIdx = -1
	case name == "tr" && idx == p.rowIdx:
		row := strings.Join(p.cells, " | ")
		if strings.TrimSpace(row) != "" {
			p.rows = append(p.rows, row)
		}
		p.rowIdx = -1
	case name == "tbl" && idx == p.tblIdx:
		p.tblIdx = -1
	}
}

// ownsRun reports whether the run on top of the stack belongs to the tracked
// paragraph directly (not to a text box nested inside it).
func (p *docxParser) ownsRun() bool {
	if p.paraIdx < 0 {
		return false
	}
	return !slices.Contains(p.stack[p.paraIdx+1:], "txbxContent")
}

// Package pdftext turns a PDF's text layer into positioned word tokens and
// visual rows. It deliberately does no OCR: a page without a text layer
// yields no tokens and no text.
package pdftext

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/neo2475/odoo-importer/internal/domain"
)

// Document is an open PDF. Close must be called when done.
type Document struct {
	f *os.File
	r *pdf.Reader
}

// Open opens the PDF at path.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Document{f: f, r: r}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.r.NumPage()
}

// PageTokens extracts the positioned word tokens of page n (1-based),
// in reading order. Returns nil when the page has no text layer.
func (d *Document) PageTokens(n int) []domain.Token {
	if n < 1 || n > d.r.NumPage() {
		return nil
	}
	p := d.r.Page(n)
	if p.V.IsNull() {
		return nil
	}
	return assembleWords(p.Content().Text, pageHeight(p))
}

// PageText reconstructs the plain text of page n from its tokens, one line
// per visual row, words joined by single spaces. When word assembly yields
// nothing it falls back to the library's raw text extraction, so the output
// is non-empty whenever the page has any text at all.
func (d *Document) PageText(n int) string {
	tokens := d.PageTokens(n)
	if len(tokens) == 0 {
		if n < 1 || n > d.r.NumPage() {
			return ""
		}
		raw, err := d.r.Page(n).GetPlainText(nil)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(raw)
	}

	rows := GroupRows(tokens, defaultRowTolerance)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row))
		for _, tok := range row {
			parts = append(parts, tok.Text)
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// Text returns the plain text of the whole document, pages joined by
// newlines. Empty string when no page has a text layer.
func (d *Document) Text() string {
	parts := make([]string, 0, d.r.NumPage())
	for n := 1; n <= d.r.NumPage(); n++ {
		parts = append(parts, d.PageText(n))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// ExtractText opens the PDF at path and returns its whole-document text.
func ExtractText(path string) (string, error) {
	doc, err := Open(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()
	text := doc.Text()
	if text == "" {
		return "", fmt.Errorf("extract %s: %w", path, domain.ErrNoTextLayer)
	}
	return text, nil
}

// pageHeight resolves the page's MediaBox height, walking up the page tree
// for inherited boxes. Returns 0 when no MediaBox is found; callers then
// fall back to baseline-relative vertical coordinates.
func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			return mb.Index(3).Float64() - mb.Index(1).Float64()
		}
	}
	return 0
}

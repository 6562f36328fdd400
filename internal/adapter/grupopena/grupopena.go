// Package grupopena parses Grupo Peña Automoción delivery notes. The layout
// is a fixed-geometry table on the first page: item code, description,
// quantity and unit price each live in their own horizontal band.
package grupopena

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/neo2475/odoo-importer/internal/domain"
	"github.com/neo2475/odoo-importer/internal/numparse"
	"github.com/neo2475/odoo-importer/internal/pdftext"
)

const (
	supplierName = "GRUPO PEÑA AUTOMOCION, S.L."

	// Horizontal bands are template-specific tuning for this vendor's PDF
	// generator; do not generalize them.
	codeBandMin, codeBandMax   = 30.0, 120.0
	descBandMin, descBandMax   = 130.0, 300.0
	qtyBandMin, qtyBandMax     = 300.0, 360.0
	priceBandMin, priceBandMax = 470.0, 510.0

	rowTolerance = 1.2

	surchargePhrase = "aportacion al servicio de reparto"
	surchargeName   = "APORTACION AL SERVICIO DE REPARTO"
)

var (
	numRe           = regexp.MustCompile(`^-?\d+[.,]\d{2,4}$`)
	codeRe          = regexp.MustCompile(`^[0-9A-Za-z]{3}-[0-9A-Za-z-]+$`)
	refShapeRe      = regexp.MustCompile(`^[A-Z0-9]{5,}$`)
	refTailRe       = regexp.MustCompile(`([A-Z0-9]{5,})$`)
	leadingDigitsRe = regexp.MustCompile(`^\d+`)
)

// Adapter implements the grupo_pena vendor layout.
type Adapter struct{}

// New returns the grupo_pena adapter.
func New() *Adapter { return &Adapter{} }

// Key returns "grupo_pena".
func (*Adapter) Key() string { return "grupo_pena" }

// Detect matches by filename convention first (GPA_ prefix or GPA- infix),
// then by accent-insensitive supplier names in the text.
func (*Adapter) Detect(text, filename string) bool {
	fn := strings.ToUpper(filename)
	if strings.HasPrefix(fn, "GPA_") || strings.Contains(fn, "GPA-") {
		return true
	}
	t := strings.ToUpper(stripAccents(text))
	if strings.Contains(t, "GRUPO PENA") || strings.Contains(t, "GP AUTOMOCION") {
		return true
	}
	up := strings.ToUpper(text)
	return strings.Contains(up, "GRUPO PEÑA") || strings.Contains(up, "GP AUTOMOCIÓN")
}

// Parse extracts the order lines and document metadata from the delivery
// note at path.
func (*Adapter) Parse(path string) (*domain.ImportDoc, error) {
	doc, err := pdftext.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return buildDoc(doc.PageTokens(1))
}

// buildDoc assembles the document from the first page's tokens. A note
// without a single matched line is an error, not an empty document.
func buildDoc(words []domain.Token) (*domain.ImportDoc, error) {
	text := joinTokens(words)

	lines := parseLines(words)
	if len(lines) == 0 {
		return nil, domain.ErrNoLineItems
	}
	if hasSurcharge(text) {
		lines = append(lines, surchargeLine())
	}

	return &domain.ImportDoc{
		Lines: lines,
		Meta: domain.DocumentMeta{
			SupplierName: supplierName,
			SupplierRef:  deliveryRef(words),
			Warehouse:    detectWarehouse(text),
		},
		Header: domain.Header(),
	}, nil
}

// parseLines walks the grouped rows and keeps those that carry a code token
// in the code band plus a quantity in the quantity band.
func parseLines(words []domain.Token) []domain.OrderLine {
	var lines []domain.OrderLine
	for _, row := range pdftext.GroupRows(words, rowTolerance) {
		codeTok, ok := findCode(row)
		if !ok {
			continue
		}

		var descParts []string
		for _, w := range row {
			if w.X0 >= descBandMin && w.X0 < descBandMax {
				descParts = append(descParts, w.Text)
			}
		}
		desc := strings.TrimSpace(strings.Join(descParts, " "))

		qty, ok := findQuantity(row)
		if !ok {
			continue
		}
		price, ok := findPrice(row)
		if !ok {
			continue
		}

		// The printed code carries a 3-char prefix before the first
		// hyphen; the real article code is what follows.
		code := codeTok.Text
		if i := strings.Index(code, "-"); i >= 0 {
			code = code[i+1:]
		}

		lines = append(lines, domain.OrderLine{
			Code:        code,
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			DiscountPct: "0.00",
		})
	}
	return lines
}

func findCode(row domain.Row) (domain.Token, bool) {
	for _, w := range row {
		if w.X0 >= codeBandMin && w.X0 <= codeBandMax && codeRe.MatchString(w.Text) {
			return w, true
		}
	}
	return domain.Token{}, false
}

func findQuantity(row domain.Row) (string, bool) {
	for _, w := range row {
		if w.X0 >= qtyBandMin && w.X0 <= qtyBandMax && numRe.MatchString(w.Text) {
			return numparse.Canonical(w.Text), true
		}
	}
	return "", false
}

// findPrice prefers the price band; a lone "-" there means a zero price.
// Without a band hit the rightmost numeric token in the row wins.
func findPrice(row domain.Row) (string, bool) {
	for _, w := range row {
		if w.X0 < priceBandMin || w.X0 > priceBandMax {
			continue
		}
		if w.Text == "-" {
			return "0", true
		}
		if numRe.MatchString(w.Text) {
			return numparse.Canonical(w.Text), true
		}
	}
	var best *domain.Token
	for i := range row {
		if !numRe.MatchString(row[i].Text) {
			continue
		}
		if best == nil || row[i].X0 > best.X0 {
			best = &row[i]
		}
	}
	if best != nil {
		return numparse.Canonical(best.Text), true
	}
	return "", false
}

// deliveryRef locates the albarán reference: a nearby alphanumeric token in
// a ±5-token window around any token starting with "albar", falling back to
// asterisk-delimited tokens at the sheet footer.
func deliveryRef(words []domain.Token) string {
	for i, w := range words {
		if !strings.HasPrefix(strings.ToLower(w.Text), "albar") {
			continue
		}
		lo := i - 5
		if lo < 0 {
			lo = 0
		}
		hi := i + 6
		if hi > len(words) {
			hi = len(words)
		}
		for j := lo; j < hi; j++ {
			if isRefShape(words[j].Text) {
				return words[j].Text
			}
		}
	}
	for _, w := range words {
		if !strings.Contains(w.Text, "*") {
			continue
		}
		s := strings.Trim(w.Text, "*")
		m := refTailRe.FindStringSubmatch(s)
		if m != nil && isRefShape(m[1]) {
			return leadingDigitsRe.ReplaceAllString(m[1], "")
		}
	}
	return ""
}

func isRefShape(s string) bool {
	if !refShapeRe.MatchString(s) {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// detectWarehouse maps fixed address fragments to warehouse names.
func detectWarehouse(text string) string {
	t := strings.ReplaceAll(text, "\n", " ")
	switch {
	case strings.Contains(t, "Ctra. Aeropuerto, Km. 4"):
		return "Central"
	case strings.Contains(t, "Calle Ingeniero Ribera"):
		return "Amargacena"
	case strings.Contains(t, "MIRALBAIDA"):
		return "Miralbaida"
	}
	return ""
}

func hasSurcharge(text string) bool {
	return strings.Contains(strings.ToLower(stripAccents(text)), surchargePhrase)
}

func surchargeLine() domain.OrderLine {
	return domain.OrderLine{
		Description: surchargeName,
		Quantity:    "1",
		UnitPrice:   "2.67",
		DiscountPct: "0.00",
	}
}

func joinTokens(words []domain.Token) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

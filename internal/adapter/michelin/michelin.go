// Package michelin parses Michelin delivery notes. The layout is text-first:
// line items are anchored to CAI product codes, with quantities refined by a
// geometric pass under the "Cantidad" column header when the page carries
// positioned text.
package michelin

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/neo2475/odoo-importer/internal/domain"
	"github.com/neo2475/odoo-importer/internal/pdftext"
)

const (
	supplierName = "MICHELIN ESPAÑA PORTUGAL, S.A."

	// Quantity digits are searched in this half-width around the center of
	// the "Cantidad" header.
	qtyBandHalfWidth = 120.0

	// Backward window scanned from each CAI anchor in the text passes.
	caiWindow = 1000

	defaultDescription = "SIN DESCRIPCIÓN"
)

var warehouseByCode = map[string]string{
	"H0064309": "Central",
	"H0064310": "Miralbaida",
	"H0123390": "Amargacena",
}

var (
	directItemRe  = regexp.MustCompile(`(?is)CANTIDAD\s*\n\s*(\d+(?:[.,]\d+)?)\s*\n\s*(.+?)\s*CAI\s*:\s*([A-Z0-9\-./_]+)`)
	caiAnchorRe   = regexp.MustCompile(`(?i)CAI\s*:\s*([A-Z0-9\-./_]+)`)
	caiLineCodeRe = regexp.MustCompile(`(?i)CAI[:\s]*([A-Z0-9\-/._]+)`)
	letterRe      = regexp.MustCompile(`[A-Za-zÁÉÍÓÚÜÑáéíóúüñ]`)
	smallIntRe    = regexp.MustCompile(`\b(\d{1,3})\b`)
	trailingQtyRe = regexp.MustCompile(`(\d{1,3})$`)
	wsRe          = regexp.MustCompile(`[ \t]+`)

	tyreSizeRe  = regexp.MustCompile(`(?i)\b\d{3}/\d{2}\s*(?:R|ZR)?\s*\d{2}\b`)
	tubelessRe  = regexp.MustCompile(`\bTL\b`)
	treadNameRe = regexp.MustCompile(`(?i)\b(PILOT|ENERGY|PRIMACY|ALPIN|CROSSCLIMATE)\b`)

	refAlbaranRe  = regexp.MustCompile(`(?i)N\W*de\W*albar[aá]n\s*\n\s*([A-Z0-9\-/]+)`)
	refFallbackRe = regexp.MustCompile(`\b1[A-Z0-9]{7,8}\b`)
	entregasRe    = regexp.MustCompile(`(?is)ENTREGAS\s+DIARIAS.*?\n\s*(H\d{7})`)
	siteCodeRe    = regexp.MustCompile(`\b(H\d{7})\b`)
)

var descNoise = map[string]bool{
	"MI": true, "MICHELIN": true, "LP": true, "MARCA": true, "CAR": true,
}

// Adapter implements the michelin vendor layout.
type Adapter struct{}

// New returns the michelin adapter.
func New() *Adapter { return &Adapter{} }

// Key returns "michelin".
func (*Adapter) Key() string { return "michelin" }

// Detect requires the brand name plus either the daily-deliveries banner or
// a CAI label.
func (*Adapter) Detect(text, _ string) bool {
	t := strings.ToUpper(text)
	return strings.Contains(t, "MICHELIN") &&
		(strings.Contains(t, "ENTREGAS DIARIAS") || strings.Contains(t, "CAI :"))
}

// Parse extracts the order lines and document metadata from the delivery
// note at path.
func (*Adapter) Parse(path string) (*domain.ImportDoc, error) {
	doc, err := pdftext.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return buildDoc(doc.Text(), quantitiesByCAI(doc))
}

// buildDoc assembles the document from the note's text and the positioned
// quantity overrides. A note without a single matched line is an error, not
// an empty document.
func buildDoc(text string, qtyByCAI map[string]string) (*domain.ImportDoc, error) {
	lines := textItems(text)
	if len(lines) == 0 {
		return nil, domain.ErrNoLineItems
	}

	// The text passes misread quantities on notes that print the column
	// spaced letter by letter. Positioned digits under the header fix them.
	if len(qtyByCAI) > 0 {
		for i := range lines {
			if q, ok := qtyByCAI[lines[i].Code]; ok {
				lines[i].Quantity = q
			}
		}
	}

	return &domain.ImportDoc{
		Lines: lines,
		Meta: domain.DocumentMeta{
			SupplierName: supplierName,
			SupplierRef:  deliveryRef(text),
			Warehouse:    detectWarehouse(text),
		},
		Header: domain.Header(),
	}, nil
}

func normWS(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

func looksLikeTyre(line string) bool {
	return tyreSizeRe.MatchString(line) ||
		tubelessRe.MatchString(line) ||
		treadNameRe.MatchString(line)
}

// textItems runs both text passes over the note. The direct pass catches the
// well-formed "CANTIDAD / qty / desc ... CAI : code" block; the anchor pass
// scans backwards from every CAI label for a quantity and a description.
// Both contribute items, in order.
func textItems(text string) []domain.OrderLine {
	var items []domain.OrderLine

	for _, m := range directItemRe.FindAllStringSubmatch(text, -1) {
		desc := m[2]
		if i := strings.IndexByte(desc, '\n'); i >= 0 {
			desc = desc[:i]
		}
		items = append(items, domain.OrderLine{
			Code:        strings.TrimSpace(m[3]),
			Description: normWS(desc),
			Quantity:    strings.TrimSpace(m[1]),
		})
	}

	for _, loc := range caiAnchorRe.FindAllStringSubmatchIndex(text, -1) {
		cai := strings.TrimSpace(text[loc[2]:loc[3]])
		start := loc[0] - caiWindow
		if start < 0 {
			start = 0
		}
		window := text[start:loc[0]]

		var lines []string
		for _, ln := range strings.Split(window, "\n") {
			if ln := normWS(ln); ln != "" {
				lines = append(lines, ln)
			}
		}
		headIdx := 0
		for i, ln := range lines {
			if strings.Contains(strings.ToUpper(ln), "CANTIDAD") {
				headIdx = i
			}
		}
		lines = lines[headIdx:]

		qty := "1"
		for i := len(lines) - 1; i >= 0; i-- {
			if letterRe.MatchString(lines[i]) {
				continue
			}
			if m := smallIntRe.FindStringSubmatch(lines[i]); m != nil {
				qty = m[1]
				break
			}
		}

		items = append(items, domain.OrderLine{
			Code:        cai,
			Description: pickDescription(lines),
			Quantity:    qty,
		})
	}
	return items
}

// pickDescription scans the window bottom-up for a tyre-looking line, then
// settles for the last substantial line.
func pickDescription(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		ln := lines[i]
		if descNoise[strings.ToUpper(ln)] || len(ln) <= 2 {
			continue
		}
		if looksLikeTyre(ln) {
			return ln
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		ln := lines[i]
		if !descNoise[strings.ToUpper(ln)] && len(ln) > 2 {
			return ln
		}
	}
	return defaultDescription
}

type pageLine struct {
	y    int
	toks []domain.Token
}

// quantitiesByCAI reads each page's positioned tokens and maps CAI codes to
// the digit run nearest above them inside the quantity band. Handles headers
// printed letter by letter ("C a n t i d a d").
func quantitiesByCAI(doc *pdftext.Document) map[string]string {
	out := map[string]string{}
	for n := 1; n <= doc.NumPages(); n++ {
		collectPageQuantities(doc.PageTokens(n), out)
	}
	return out
}

func collectPageQuantities(words []domain.Token, out map[string]string) {
	if len(words) == 0 {
		return
	}

	byY := map[int][]domain.Token{}
	for _, w := range words {
		y := int(math.Round(w.Top))
		byY[y] = append(byY[y], w)
	}
	lines := make([]pageLine, 0, len(byY))
	for y, toks := range byY {
		sort.Slice(toks, func(i, j int) bool { return toks[i].X0 < toks[j].X0 })
		lines = append(lines, pageLine{y: y, toks: toks})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].y < lines[j].y })

	header, ok := findQtyHeader(lines, words)
	if !ok {
		return
	}
	center := (header.X0 + header.X1) / 2
	bandX0, bandX1 := center-qtyBandHalfWidth, center+qtyBandHalfWidth

	// Digit runs per line inside the band.
	digitsByY := map[int]string{}
	for _, ln := range lines {
		var b strings.Builder
		for _, w := range ln.toks {
			if w.X0 >= bandX0 && w.X1 <= bandX1 && isDigits(w.Text) {
				b.WriteString(w.Text)
			}
		}
		if b.Len() > 0 {
			digitsByY[ln.y] = b.String()
		}
	}

	for _, ln := range lines {
		parts := make([]string, 0, len(ln.toks))
		for _, w := range ln.toks {
			parts = append(parts, w.Text)
		}
		joined := strings.Join(parts, " ")
		compact := strings.ReplaceAll(joined, " ", "")
		if !strings.Contains(joined, "CAI") && !strings.Contains(compact, "CAI") {
			continue
		}
		mc := caiLineCodeRe.FindStringSubmatch(compact)
		if mc == nil {
			continue
		}
		cai := mc[1]

		// Nearest digit line above the CAI and below the header.
		best, found := 0, false
		for y := range digitsByY {
			if float64(y) > header.Bottom && y < ln.y {
				if !found || y > best {
					best, found = y, true
				}
			}
		}
		if !found {
			continue
		}
		if m := trailingQtyRe.FindStringSubmatch(digitsByY[best]); m != nil {
			out[cai] = m[1]
		}
	}
}

// findQtyHeader locates the "Cantidad" column header, first as eight
// consecutive single-letter tokens, then as a whole word.
func findQtyHeader(lines []pageLine, words []domain.Token) (domain.Token, bool) {
	for _, ln := range lines {
		for i := 0; i+8 <= len(ln.toks); i++ {
			var b strings.Builder
			for _, t := range ln.toks[i : i+8] {
				b.WriteString(t.Text)
			}
			if strings.ToLower(b.String()) == "cantidad" {
				bottom := ln.toks[0].Bottom
				for _, t := range ln.toks {
					if t.Bottom > bottom {
						bottom = t.Bottom
					}
				}
				return domain.Token{
					Text:   "Cantidad",
					X0:     ln.toks[i].X0,
					X1:     ln.toks[i+7].X1,
					Top:    ln.toks[i].Top,
					Bottom: bottom,
				}, true
			}
		}
	}
	for _, w := range words {
		if strings.ToLower(strings.TrimSpace(w.Text)) == "cantidad" {
			return w, true
		}
	}
	return domain.Token{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// deliveryRef extracts the delivery note number printed under the
// "Nº de albarán" label, falling back to the 1-prefixed document code.
func deliveryRef(text string) string {
	if m := refAlbaranRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return refFallbackRe.FindString(text)
}

// detectWarehouse resolves the delivery site code to a warehouse name.
// Unknown codes pass through unchanged.
func detectWarehouse(text string) string {
	code := ""
	if m := entregasRe.FindStringSubmatch(text); m != nil {
		code = strings.TrimSpace(m[1])
	}
	if code == "" {
		if m := siteCodeRe.FindStringSubmatch(text); m != nil {
			code = strings.TrimSpace(m[1])
		}
	}
	if name, ok := warehouseByCode[code]; ok {
		return name
	}
	return code
}

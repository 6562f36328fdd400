// Package varona parses Varona 2008 delivery notes: a first-page table with
// a fixed code band, free-floating quantity, rightmost-price geometry and a
// cascading discount column.
package varona

import (
	"math"
	"regexp"
	"strings"

	"github.com/neo2475/odoo-importer/internal/domain"
	"github.com/neo2475/odoo-importer/internal/numparse"
	"github.com/neo2475/odoo-importer/internal/pdftext"
)

const (
	supplierName = "VARONA 2008, S.L."

	codeBandMin, codeBandMax   = 30.0, 80.0
	qtyBandMin, qtyBandMax     = 100.0, 300.0
	priceBandMin, priceBandMax = 300.0, 450.0
	discBandMin, discBandMax   = 450.0, 520.0

	rowTolerance = 1.0

	// A bare "-" within this distance to the left of a number is that
	// number's visually detached minus sign.
	hyphenReach = 10.0

	surchargeName = "APORTACION AL SERVICIO DE REPARTO"
)

var (
	numPrefixRe   = regexp.MustCompile(`^-?\d+,\d{2}`)
	numFullRe     = regexp.MustCompile(`^-?\d+,\d{2}$`)
	codeRe        = regexp.MustCompile(`^[0-9A-Z]{5,}$`)
	gluedNegRe    = regexp.MustCompile(`^(.*?)-(\d+,\d{2})$`)
	trailingNumRe = regexp.MustCompile(`-\d+,\d{2}$`)
	refRe         = regexp.MustCompile(`VA02\s+(\d{2}\.\d{3})`)
	filenameRe    = regexp.MustCompile(`VA0\d+`)
)

// warehouseNames maps the printed warehouse label to its Odoo name,
// in detection priority order.
var warehouseNames = []struct{ label, name string }{
	{"CENTRAL", "Central"},
	{"MIRALBAIDA", "Miralbaida"},
	{"AMARGACENA", "Amargacena"},
}

// Adapter implements the varona vendor layout.
type Adapter struct{}

// New returns the varona adapter.
func New() *Adapter { return &Adapter{} }

// Key returns "varona".
func (*Adapter) Key() string { return "varona" }

// Detect matches on the supplier name in the text or a VA0-prefixed
// document number in the filename.
func (*Adapter) Detect(text, filename string) bool {
	return strings.Contains(text, "VARONA 2008") ||
		filenameRe.MatchString(strings.ToUpper(filename))
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
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, w.Text)
	}
	text := strings.Join(parts, "\n")

	lines := parseLines(words)
	if len(lines) == 0 {
		return nil, domain.ErrNoLineItems
	}
	if hasSurcharge(strings.Join(parts, " ")) {
		lines = append(lines, domain.OrderLine{
			Description: surchargeName,
			Quantity:    "1.00",
			UnitPrice:   "2.67",
			DiscountPct: "0.00",
		})
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

type numToken struct {
	val string
	x   float64
	tok domain.Token
}

func parseLines(words []domain.Token) []domain.OrderLine {
	var lines []domain.OrderLine
	for _, row := range pdftext.GroupRows(words, rowTolerance) {
		codeIdx := -1
		for i, w := range row {
			if w.X0 >= codeBandMin && w.X0 <= codeBandMax && codeRe.MatchString(w.Text) {
				codeIdx = i
				break
			}
		}
		if codeIdx < 0 {
			continue
		}

		var nums []numToken
		for _, w := range row {
			if m := numPrefixRe.FindString(w.Text); m != "" {
				nums = append(nums, numToken{val: m, x: w.X0, tok: w})
			}
		}
		if len(nums) == 0 {
			continue
		}

		priceTok := pickPrice(nums)
		price := numparse.Canonical(priceTok.val)
		rightX := priceTok.x

		// Everything after the code and left of the price is quantity
		// and description territory.
		var between []domain.Token
		for _, w := range row[codeIdx+1:] {
			if w.X0 < rightX {
				between = append(between, w)
			}
		}

		qty := pickQuantity(row, nums, between, row[codeIdx].X0, rightX)
		disc := pickDiscount(nums)
		desc := buildDescription(between)

		// The printed code carries a 3-char vendor prefix.
		code := row[codeIdx].Text
		if len(code) > 3 {
			code = code[3:]
		}

		lines = append(lines, domain.OrderLine{
			Code:        code,
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			DiscountPct: disc,
		})
	}
	return lines
}

// pickPrice prefers the rightmost numeric token in the price band, then the
// rightmost numeric token anywhere in the row.
func pickPrice(nums []numToken) numToken {
	best := -1
	for i, n := range nums {
		if n.x >= priceBandMin && n.x <= priceBandMax {
			if best < 0 || n.x > nums[best].x {
				best = i
			}
		}
	}
	if best >= 0 {
		return nums[best]
	}
	best = 0
	for i, n := range nums {
		if n.x > nums[best].x {
			best = i
		}
	}
	return nums[best]
}

// pickQuantity prefers a numeric token in the quantity band, then the first
// numeric strictly between the code and the price. A detached "-" just left
// of the chosen number supplies its sign; a negative number glued to the end
// of a description token is the next fallback; otherwise quantity is 1.
func pickQuantity(row domain.Row, nums []numToken, between []domain.Token, leftX, rightX float64) string {
	var cand *numToken
	for i := range nums {
		if nums[i].x >= qtyBandMin && nums[i].x <= qtyBandMax {
			cand = &nums[i]
			break
		}
	}
	if cand == nil {
		for i := range nums {
			if nums[i].x > leftX && nums[i].x < rightX {
				cand = &nums[i]
				break
			}
		}
	}
	if cand != nil {
		return numparse.Canonical(joinDetachedMinus(row, *cand))
	}
	for _, w := range between {
		if m := gluedNegRe.FindStringSubmatch(w.Text); m != nil {
			return numparse.Canonical("-" + m[2])
		}
	}
	return "1.00"
}

func joinDetachedMinus(row domain.Row, n numToken) string {
	for _, w := range row {
		if w.Text != "-" {
			continue
		}
		d := n.x - w.X0
		if d > 0 && d <= hyphenReach {
			return "-" + n.val
		}
	}
	return n.val
}

// pickDiscount collects discount candidates (≤100) in the discount band.
// Two or more cascade: the last two compound multiplicatively.
func pickDiscount(nums []numToken) string {
	var vals []float64
	for _, n := range nums {
		if n.x < discBandMin || n.x > discBandMax {
			continue
		}
		v := numparse.ParseDecimal(n.val, math.NaN())
		if !math.IsNaN(v) && v <= 100 {
			vals = append(vals, v)
		}
	}
	switch len(vals) {
	case 0:
		return "0.00"
	case 1:
		return numparse.FormatPct(vals[0])
	default:
		return numparse.FormatPct(numparse.CombineDiscounts(vals[len(vals)-2:]))
	}
}

// buildDescription joins the non-numeric tokens between code and price,
// stripping a negative number glued to the tail of a word.
func buildDescription(between []domain.Token) string {
	var parts []string
	for _, w := range between {
		t := w.Text
		if t == "-" || numFullRe.MatchString(t) {
			continue
		}
		t = trailingNumRe.ReplaceAllString(t, "")
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// deliveryRef extracts the VA02 document number.
func deliveryRef(text string) string {
	m := refRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "VA02" + strings.ReplaceAll(m[1], ".", "")
}

// detectWarehouse scans for the delivery address. The Central street
// address short-circuits; otherwise warehouse-name line prefixes are
// scanned and the last matching line wins, then a bare substring match
// anywhere decides.
func detectWarehouse(text string) string {
	if strings.Contains(text, "Ctra. Aeropuerto, Km. 4") {
		return "Central"
	}
	dest := ""
	for _, line := range strings.Split(text, "\n") {
		up := strings.ToUpper(strings.TrimSpace(line))
		for _, wh := range warehouseNames {
			if strings.HasPrefix(up, wh.label) {
				dest = wh.name
			}
		}
	}
	if dest != "" {
		return dest
	}
	up := strings.ToUpper(text)
	for _, wh := range warehouseNames {
		if strings.Contains(up, wh.label) {
			return wh.name
		}
	}
	return ""
}

func hasSurcharge(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "aportación al servicio de reparto") ||
		strings.Contains(t, "aportacion al servicio de reparto")
}

package odoo

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/neo2475/odoo-importer/internal/record"
)

var (
	skuBracketRe  = regexp.MustCompile(`\[(.*?)\]`)
	skuLeadingRe  = regexp.MustCompile(`^([A-Za-z0-9\-._]+)`)
	letterDigitRe = regexp.MustCompile(`^([A-Za-z]{1,10}\d{2,15})`)
	alnumRe       = regexp.MustCompile(`^([A-Za-z0-9]+)`)
	whitesRe      = regexp.MustCompile(`\s+`)
	longDigitsRe  = regexp.MustCompile(`\d{5,}`)
)

// NormalizeCode strips all whitespace from an internal reference. Case,
// hyphens and dots are kept as supplier references rely on them.
func NormalizeCode(s string) string {
	return whitesRe.ReplaceAllString(strings.TrimSpace(s), "")
}

// ExtractSKU pulls the bare vendor code out of a product cell. The bracketed
// prefix wins; inside it a letters-then-digits run is preferred over the
// leading alphanumeric token.
func ExtractSKU(raw string) string {
	if raw == "" {
		return ""
	}
	if m := skuBracketRe.FindStringSubmatch(raw); m != nil {
		inside := strings.TrimSpace(m[1])
		if ld := letterDigitRe.FindStringSubmatch(inside); ld != nil {
			return NormalizeCode(ld[1])
		}
		if tok := alnumRe.FindStringSubmatch(inside); tok != nil {
			return NormalizeCode(tok[1])
		}
		return NormalizeCode(inside)
	}
	if m := skuLeadingRe.FindStringSubmatch(raw); m != nil {
		return NormalizeCode(m[1])
	}
	return NormalizeCode(raw)
}

// LongDigitRuns returns the distinct digit runs of five or more characters
// in the given strings, sorted. Used as extra needles for partial product
// matching.
func LongDigitRuns(srcs ...string) []string {
	seen := map[string]bool{}
	for _, src := range srcs {
		for _, m := range longDigitsRe.FindAllString(src, -1) {
			seen[m] = true
		}
	}
	runs := make([]string, 0, len(seen))
	for r := range seen {
		runs = append(runs, r)
	}
	sort.Strings(runs)
	return runs
}

// ImportHash fingerprints a table's order-relevant content so re-imports of
// the same delivery note can be detected server side.
func ImportHash(partnerID int64, ref, source string, rows []record.LineCells) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(partnerID, 10)))
	h.Write([]byte(ref))
	h.Write([]byte(source))
	for _, r := range rows {
		base := strings.Join([]string{
			strings.TrimSpace(r.Product),
			strings.TrimSpace(r.Description),
			strings.TrimSpace(r.Quantity),
			strings.TrimSpace(r.UnitPrice),
			strings.TrimSpace(r.Discount),
		}, "|")
		h.Write([]byte(base))
	}
	return hex.EncodeToString(h.Sum(nil))
}

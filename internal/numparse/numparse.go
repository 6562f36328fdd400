// Package numparse converts locale-formatted numeric strings (comma decimal
// separator, optional thousands separators) into canonical values, and folds
// cascading percentage discounts into one effective percentage.
package numparse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var numTokenRe = regexp.MustCompile(`[-+]?\d+[.,]?\d*`)

// ParseDecimal parses a Spanish-locale number ("1.234,56") into a float64.
// Dots are treated as thousands separators and the comma as the decimal
// separator. Empty or unparseable input returns def, never an error.
func ParseDecimal(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	f, _ := d.Float64()
	return f
}

// ParseFlexible parses a number that may use either separator convention:
// when both appear, whichever comes last is the decimal separator. Used for
// CSV values that may have been edited by hand. Returns def on failure.
func ParseFlexible(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	f, _ := d.Float64()
	return f
}

// Canonical rewrites a comma-decimal token as a decimal-point string,
// preserving the digits exactly as written ("2,00" -> "2.00").
func Canonical(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

// CombineDiscounts folds a sequence of percentage discounts into one
// effective percentage by multiplying retained fractions:
// effective = 100 * (1 - prod(1 - d/100)). An empty sequence yields 0.
func CombineDiscounts(values []float64) float64 {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	retained := one
	for _, v := range values {
		retained = retained.Mul(one.Sub(decimal.NewFromFloat(v).Div(hundred)))
	}
	f, _ := one.Sub(retained).Mul(hundred).Float64()
	return f
}

// ParseDiscountChain extracts every numeric token from a free-form discount
// cell ("65 15", "65, 15%") and compounds them, rounded to 6 decimals.
func ParseDiscountChain(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", " "))
	if s == "" {
		return 0
	}
	var vals []float64
	for _, tok := range numTokenRe.FindAllString(s, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(tok, ",", "."))
		if err != nil {
			continue
		}
		f, _ := d.Float64()
		vals = append(vals, f)
	}
	f, _ := decimal.NewFromFloat(CombineDiscounts(vals)).Round(6).Float64()
	return f
}

// FormatPct renders a percentage with exactly two decimals ("70.25").
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

package pdftext

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/neo2475/odoo-importer/internal/domain"
)

// baselineTolerance groups raw text fragments onto the same baseline before
// word assembly. Fragments of one printed line share an identical baseline
// in well-formed PDFs; the tolerance absorbs rounding noise only.
const baselineTolerance = 0.5

// wordGapFactor is the fraction of the font size beyond which a horizontal
// gap between fragments is treated as a word boundary.
const wordGapFactor = 0.3

// assembleWords merges the page's raw text fragments (often single
// characters) into word tokens. PDF Y coordinates grow upward from the page
// bottom; tokens are emitted with Top growing downward, derived from the
// page height when known and from the negated baseline otherwise.
func assembleWords(texts []pdf.Text, pageH float64) []domain.Token {
	fragments := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		fragments = append(fragments, t)
	}
	if len(fragments) == 0 {
		return nil
	}

	// Top of page first, then left to right.
	sort.SliceStable(fragments, func(i, j int) bool {
		if fragments[i].Y != fragments[j].Y {
			return fragments[i].Y > fragments[j].Y
		}
		return fragments[i].X < fragments[j].X
	})

	var tokens []domain.Token
	var (
		cur      strings.Builder
		curX0    float64
		curEnd   float64
		curY     float64
		curSize  float64
		building bool
	)

	flush := func() {
		if !building {
			return
		}
		text := strings.TrimSpace(cur.String())
		if text != "" {
			top := -curY
			if pageH > 0 {
				top = pageH - curY
			}
			size := curSize
			if size <= 0 {
				size = 1
			}
			tokens = append(tokens, domain.Token{
				Text:   text,
				X0:     curX0,
				X1:     curEnd,
				Top:    top,
				Bottom: top + size,
			})
		}
		cur.Reset()
		building = false
	}

	for _, t := range fragments {
		sameLine := building && abs(t.Y-curY) <= baselineTolerance
		if sameLine {
			gap := t.X - curEnd
			maxGap := wordGapFactor * t.FontSize
			if maxGap <= 0 {
				maxGap = 1.0
			}
			if gap > maxGap {
				flush()
			}
		} else {
			flush()
		}
		if !building {
			curX0 = t.X
			curY = t.Y
			curSize = t.FontSize
			building = true
		}
		cur.WriteString(t.S)
		curEnd = t.X + t.W
		if t.FontSize > curSize {
			curSize = t.FontSize
		}
	}
	flush()

	return tokens
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

package pdftext

import (
	"sort"

	"github.com/neo2475/odoo-importer/internal/domain"
)

// defaultRowTolerance is used for text reconstruction. Vendor matchers pass
// their own tuned tolerance to GroupRows.
const defaultRowTolerance = 1.0

// GroupRows clusters tokens into visual rows. Tokens are taken in vertical
// order; a token joins the current row while its Top is within tol of the
// row's reference Top, which is fixed by the row's first token and never
// recomputed. Each closed row is sorted left to right.
func GroupRows(tokens []domain.Token, tol float64) []domain.Row {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]domain.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top < sorted[j].Top
	})

	var rows []domain.Row
	var row domain.Row
	refY := sorted[0].Top
	for _, tok := range sorted {
		if len(row) == 0 || abs(tok.Top-refY) <= tol {
			if len(row) == 0 {
				refY = tok.Top
			}
			row = append(row, tok)
			continue
		}
		rows = append(rows, sortRow(row))
		row = domain.Row{tok}
		refY = tok.Top
	}
	if len(row) > 0 {
		rows = append(rows, sortRow(row))
	}
	return rows
}

func sortRow(row domain.Row) domain.Row {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].X0 < row[j].X0
	})
	return row
}

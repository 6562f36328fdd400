package record

import "github.com/neo2475/odoo-importer/internal/domain"

// LineCells is one data row read back through the header, independent of
// column order.
type LineCells struct {
	Product     string
	Description string
	Quantity    string
	UnitPrice   string
	Discount    string
}

// HasColumns reports whether every named column is present in the header.
func (t *Table) HasColumns(cols ...string) bool {
	idx := t.columnIndex()
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			return false
		}
	}
	return true
}

// Lines returns the per-line cells of every row.
func (t *Table) Lines() []LineCells {
	idx := t.columnIndex()
	lines := make([]LineCells, 0, len(t.Rows))
	for _, row := range t.Rows {
		lines = append(lines, LineCells{
			Product:     cell(row, idx, domain.ColProduct),
			Description: cell(row, idx, domain.ColDescription),
			Quantity:    cell(row, idx, domain.ColQuantity),
			UnitPrice:   cell(row, idx, domain.ColUnitPrice),
			Discount:    cell(row, idx, domain.ColDiscount),
		})
	}
	return lines
}

// DocumentCells returns the supplier name, supplier reference and delivery
// destination from the first row. Empty when the table has no rows.
func (t *Table) DocumentCells() (supplier, ref, deliverTo string) {
	if len(t.Rows) == 0 {
		return "", "", ""
	}
	idx := t.columnIndex()
	row := t.Rows[0]
	return cell(row, idx, domain.ColSupplier),
		cell(row, idx, domain.ColSupplierRef),
		cell(row, idx, domain.ColDeliverTo)
}

func (t *Table) columnIndex() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		idx[col] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

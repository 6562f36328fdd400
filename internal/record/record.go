// Package record flattens a parsed delivery note into the fixed-schema
// table consumed by the exporters and the purchase-order importer.
package record

import (
	"fmt"

	"github.com/neo2475/odoo-importer/internal/domain"
)

// Table is an in-memory rendition of the output schema: a header row and
// one row per order line, all cells as strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Build flattens doc into a Table. The product cell is a composite
// "[code] description"; lines without a code carry the description alone.
// Document metadata repeats on every row.
func Build(doc *domain.ImportDoc) *Table {
	header := doc.Header
	if len(header) == 0 {
		header = domain.Header()
	}

	t := &Table{Header: header, Rows: make([][]string, 0, len(doc.Lines))}
	for _, line := range doc.Lines {
		cells := map[string]string{
			domain.ColSupplier:    doc.Meta.SupplierName,
			domain.ColSupplierRef: doc.Meta.SupplierRef,
			domain.ColProduct:     productCell(line),
			domain.ColDescription: line.Description,
			domain.ColQuantity:    line.Quantity,
			domain.ColUnitPrice:   line.UnitPrice,
			domain.ColDiscount:    line.DiscountPct,
			domain.ColDeliverTo:   doc.Meta.Warehouse,
		}
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = cells[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func productCell(line domain.OrderLine) string {
	if line.Code == "" {
		return line.Description
	}
	return fmt.Sprintf("[%s] %s", line.Code, line.Description)
}

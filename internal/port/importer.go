package port

import (
	"context"

	"github.com/neo2475/odoo-importer/internal/record"
)

// ImportResult reports what the ERP made of one delivery note.
type ImportResult struct {
	OrderID   int64
	OrderName string
	Skipped   bool // already imported
	Refund    bool
}

// OrderImporter abstracts purchase-order creation in the ERP.
type OrderImporter interface {
	ImportTable(ctx context.Context, table *record.Table) (*ImportResult, error)
}

package port

import "github.com/neo2475/odoo-importer/internal/record"

// Exporter abstracts serialization of a flattened table to a local file.
type Exporter interface {
	Export(pdfPath string, table *record.Table) (string, error)
}

package csvexport

import (
	"github.com/neo2475/odoo-importer/internal/port"
	"github.com/neo2475/odoo-importer/internal/record"
)

// FileExporter writes flattened tables to an output directory as CSV,
// optionally with an XLSX sibling.
type FileExporter struct {
	outDir string
	xlsx   bool
}

// NewFileExporter returns an exporter targeting outDir.
func NewFileExporter(outDir string, xlsx bool) *FileExporter {
	return &FileExporter{outDir: outDir, xlsx: xlsx}
}

var _ port.Exporter = (*FileExporter)(nil)

// Export writes the table for pdfPath and returns the CSV path.
func (e *FileExporter) Export(pdfPath string, table *record.Table) (string, error) {
	csvPath := OutputPath(pdfPath, e.outDir, ".csv")
	if err := WriteFile(csvPath, table); err != nil {
		return "", err
	}
	if e.xlsx {
		if err := WriteXLSXFile(OutputPath(pdfPath, e.outDir, ".xlsx"), table); err != nil {
			return "", err
		}
	}
	return csvPath, nil
}

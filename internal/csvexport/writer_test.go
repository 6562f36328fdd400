package csvexport

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/neo2475/odoo-importer/internal/domain"
	"github.com/neo2475/odoo-importer/internal/record"
)

func sampleTable() *record.Table {
	return record.Build(&domain.ImportDoc{
		Lines: []domain.OrderLine{
			{Code: "1234", Description: "FILTRO ACEITE", Quantity: "2.00", UnitPrice: "15.50", DiscountPct: "0.00"},
			{Code: "5678", Description: "PASTILLAS, FRENO", Quantity: "1.00", UnitPrice: "31.20", DiscountPct: "70.25"},
		},
		Meta: domain.DocumentMeta{
			SupplierName: "GRUPO PEÑA AUTOMOCION, S.L.",
			SupplierRef:  "AB1234",
			Warehouse:    "Central",
		},
		Header: domain.Header(),
	})
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteTable(sampleTable()))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.Header(), rows[0])
	assert.Equal(t, "[1234] FILTRO ACEITE", rows[1][2])
	// Commas in cells survive the round trip.
	assert.Equal(t, "PASTILLAS, FRENO", rows[2][3])
	assert.Equal(t, "70.25", rows[2][6])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "GPA_123.csv")
	require.NoError(t, WriteFile(path, sampleTable()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, BOM))

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, BOM)))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "GRUPO PEÑA AUTOMOCION, S.L.", rows[1][0])
}

func TestWriteXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GPA_123.xlsx")
	require.NoError(t, WriteXLSXFile(path, sampleTable()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Supplier", rows[0][0])
	assert.Equal(t, "[5678] PASTILLAS, FRENO", rows[2][2])
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "GPA_123.csv"), OutputPath("in/GPA_123.pdf", "out", ".csv"))
	assert.Equal(t, filepath.Join("out", "va020123.xlsx"), OutputPath("/abs/va020123.PDF", "out", ".xlsx"))
}

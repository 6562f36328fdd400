package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo2475/odoo-importer/internal/domain"
)

func TestBuild(t *testing.T) {
	doc := &domain.ImportDoc{
		Lines: []domain.OrderLine{
			{Code: "1234", Description: "FILTRO ACEITE", Quantity: "2.00", UnitPrice: "15.50", DiscountPct: "0.00"},
			{Description: "APORTACION AL SERVICIO DE REPARTO", Quantity: "1", UnitPrice: "2.67", DiscountPct: "0.00"},
		},
		Meta: domain.DocumentMeta{
			SupplierName: "GRUPO PEÑA AUTOMOCION, S.L.",
			SupplierRef:  "AB1234",
			Warehouse:    "Central",
		},
		Header: domain.Header(),
	}

	table := Build(doc)
	assert.Equal(t, domain.Header(), table.Header)
	require.Len(t, table.Rows, 2)

	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Header))
	}

	assert.Equal(t, []string{
		"GRUPO PEÑA AUTOMOCION, S.L.", "AB1234",
		"[1234] FILTRO ACEITE", "FILTRO ACEITE", "2.00", "15.50", "0.00",
		"Central",
	}, table.Rows[0])

	// No code: the product cell is the bare description.
	assert.Equal(t, "APORTACION AL SERVICIO DE REPARTO", table.Rows[1][2])
}

func TestBuild_EmptyFieldsStayEmpty(t *testing.T) {
	doc := &domain.ImportDoc{
		Lines: []domain.OrderLine{{Code: "214522", Description: "205/55 R 16", Quantity: "4"}},
		Meta:  domain.DocumentMeta{SupplierName: "MICHELIN ESPAÑA PORTUGAL, S.A."},
	}

	table := Build(doc)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "", row[5]) // unit price
	assert.Equal(t, "", row[6]) // discount
	assert.Equal(t, "", row[7]) // deliver to
}

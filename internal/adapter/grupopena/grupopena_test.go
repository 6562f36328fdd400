package grupopena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo2475/odoo-importer/internal/domain"
)

func tok(text string, x0, top float64) domain.Token {
	return domain.Token{Text: text, X0: x0, X1: x0 + 20, Top: top, Bottom: top + 8}
}

func TestDetect(t *testing.T) {
	a := New()

	assert.True(t, a.Detect("", "GPA_0001.pdf"))
	assert.True(t, a.Detect("", "albaran-gpa-12.PDF"))
	assert.True(t, a.Detect("Factura GRUPO PEÑA AUTOMOCION, S.L.", "x.pdf"))
	assert.True(t, a.Detect("factura grupo peña automoción", "x.pdf"))
	assert.True(t, a.Detect("GP AUTOMOCIÓN entrega", "x.pdf"))
	assert.False(t, a.Detect("VARONA 2008, S.L.", "x.pdf"))
}

func TestParseLines_BasicRow(t *testing.T) {
	words := []domain.Token{
		tok("ABC-1234", 40, 100),
		tok("FILTRO", 150, 100),
		tok("ACEITE", 210, 100),
		tok("2,00", 320, 100),
		tok("15,50", 480, 100),
	}

	lines := parseLines(words)
	require.Len(t, lines, 1)
	assert.Equal(t, "1234", lines[0].Code)
	assert.Equal(t, "FILTRO ACEITE", lines[0].Description)
	assert.Equal(t, "2.00", lines[0].Quantity)
	assert.Equal(t, "15.50", lines[0].UnitPrice)
	assert.Equal(t, "0.00", lines[0].DiscountPct)
}

func TestParseLines_DashPriceMeansZero(t *testing.T) {
	words := []domain.Token{
		tok("XYZ-77A", 40, 100),
		tok("JUNTA", 150, 100),
		tok("1,00", 320, 100),
		tok("-", 480, 100),
	}

	lines := parseLines(words)
	require.Len(t, lines, 1)
	assert.Equal(t, "0", lines[0].UnitPrice)
}

func TestParseLines_PriceFallsBackToRightmostNumeric(t *testing.T) {
	words := []domain.Token{
		tok("XYZ-501", 40, 100),
		tok("CORREA", 150, 100),
		tok("3,00", 320, 100),
		tok("9,99", 420, 100), // outside the price band
	}

	lines := parseLines(words)
	require.Len(t, lines, 1)
	assert.Equal(t, "9.99", lines[0].UnitPrice)
}

func TestParseLines_SkipsRowsWithoutQuantity(t *testing.T) {
	words := []domain.Token{
		tok("ABC-1", 40, 100),
		tok("TEXTO", 150, 100),
		tok("15,50", 480, 100),
	}
	assert.Empty(t, parseLines(words))
}

func TestParseLines_MultipleRows(t *testing.T) {
	words := []domain.Token{
		tok("ABC-1", 40, 100), tok("UNO", 150, 100), tok("1,00", 320, 100), tok("5,00", 480, 100),
		tok("ABC-2", 40, 120), tok("DOS", 150, 120), tok("2,00", 320, 120), tok("6,00", 480, 120),
	}

	lines := parseLines(words)
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].Code)
	assert.Equal(t, "2", lines[1].Code)
}

func TestDeliveryRef_AlbaranNeighborhood(t *testing.T) {
	words := []domain.Token{
		tok("Fecha", 10, 50),
		tok("Albarán", 40, 50),
		tok("n.", 80, 50),
		tok("AB12345", 120, 50),
	}
	assert.Equal(t, "AB12345", deliveryRef(words))
}

func TestDeliveryRef_RequiresLetterAndDigit(t *testing.T) {
	words := []domain.Token{
		tok("Albarán", 40, 50),
		tok("123456", 80, 50),  // digits only: not a reference
		tok("ABCDEF", 120, 50), // letters only: not a reference
	}
	assert.Equal(t, "", deliveryRef(words))
}

func TestDeliveryRef_AsteriskFallback(t *testing.T) {
	words := []domain.Token{
		tok("pie", 10, 700),
		tok("*07AB1234*", 60, 700),
	}
	assert.Equal(t, "AB1234", deliveryRef(words))
}

func TestDetectWarehouse(t *testing.T) {
	assert.Equal(t, "Central", detectWarehouse("entrega Ctra. Aeropuerto, Km. 4 Córdoba"))
	assert.Equal(t, "Amargacena", detectWarehouse("Calle Ingeniero Ribera s/n"))
	assert.Equal(t, "Miralbaida", detectWarehouse("POLIGONO MIRALBAIDA"))
	assert.Equal(t, "", detectWarehouse("sin dirección conocida"))
}

func TestHasSurcharge_AccentInsensitive(t *testing.T) {
	assert.True(t, hasSurcharge("APORTACIÓN AL SERVICIO DE REPARTO 2,67"))
	assert.True(t, hasSurcharge("aportacion al servicio de reparto"))
	assert.False(t, hasSurcharge("sin aportaciones"))
}

func TestSurchargeLine(t *testing.T) {
	l := surchargeLine()
	assert.Equal(t, "", l.Code)
	assert.Equal(t, surchargeName, l.Description)
	assert.Equal(t, "1", l.Quantity)
	assert.Equal(t, "2.67", l.UnitPrice)
	assert.Equal(t, "0.00", l.DiscountPct)
}

func TestBuildDoc_NoLines(t *testing.T) {
	doc, err := buildDoc(nil)
	require.ErrorIs(t, err, domain.ErrNoLineItems)
	assert.Nil(t, doc)

	// Tokens without any code-band match are just as fatal.
	doc, err = buildDoc([]domain.Token{tok("GRUPO PEÑA AUTOMOCION", 200, 20)})
	require.ErrorIs(t, err, domain.ErrNoLineItems)
	assert.Nil(t, doc)
}

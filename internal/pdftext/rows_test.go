package pdftext

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo2475/odoo-importer/internal/domain"
)

func tok(text string, x0, top float64) domain.Token {
	return domain.Token{Text: text, X0: x0, X1: x0 + 10, Top: top, Bottom: top + 8}
}

func TestGroupRows_Basic(t *testing.T) {
	tokens := []domain.Token{
		tok("b", 50, 10.5),
		tok("a", 20, 10.0),
		tok("c", 30, 25.0),
	}

	rows := GroupRows(tokens, 1.0)
	require.Len(t, rows, 2)

	assert.Equal(t, "a", rows[0][0].Text)
	assert.Equal(t, "b", rows[0][1].Text)
	assert.Equal(t, "c", rows[1][0].Text)
}

func TestGroupRows_FirstTokenFixesReference(t *testing.T) {
	// 10.0 anchors the row; 11.0 is within tolerance of the anchor but
	// 12.0 is not, even though it is within tolerance of 11.0. The
	// reference is never recomputed.
	tokens := []domain.Token{
		tok("a", 10, 10.0),
		tok("b", 20, 11.0),
		tok("c", 30, 12.0),
	}

	rows := GroupRows(tokens, 1.0)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 1)
	assert.Equal(t, "c", rows[1][0].Text)
}

func TestGroupRows_Idempotent(t *testing.T) {
	tokens := []domain.Token{
		tok("a", 10, 5.0),
		tok("b", 40, 5.4),
		tok("c", 10, 20.0),
		tok("d", 70, 20.9),
		tok("e", 10, 40.0),
	}

	first := GroupRows(tokens, 1.0)
	second := GroupRows(tokens, 1.0)
	assert.Equal(t, first, second)
}

func TestGroupRows_Empty(t *testing.T) {
	assert.Nil(t, GroupRows(nil, 1.0))
}

func TestAssembleWords_MergesAdjacentChars(t *testing.T) {
	// "GPA" written as three touching single-char fragments, then a
	// separate word further right on the same baseline.
	texts := []pdf.Text{
		{S: "G", X: 30, Y: 700, W: 5, FontSize: 10},
		{S: "P", X: 35, Y: 700, W: 5, FontSize: 10},
		{S: "A", X: 40, Y: 700, W: 5, FontSize: 10},
		{S: "X1", X: 80, Y: 700, W: 10, FontSize: 10},
	}

	tokens := assembleWords(texts, 842)
	require.Len(t, tokens, 2)
	assert.Equal(t, "GPA", tokens[0].Text)
	assert.Equal(t, 30.0, tokens[0].X0)
	assert.Equal(t, 45.0, tokens[0].X1)
	assert.Equal(t, "X1", tokens[1].Text)
	assert.InDelta(t, 142.0, tokens[0].Top, 1e-9)
}

func TestAssembleWords_SplitsRowsByBaseline(t *testing.T) {
	texts := []pdf.Text{
		{S: "abajo", X: 30, Y: 100, W: 20, FontSize: 8},
		{S: "arriba", X: 30, Y: 700, W: 20, FontSize: 8},
	}

	tokens := assembleWords(texts, 842)
	require.Len(t, tokens, 2)
	// Top grows downward, so the visually higher fragment comes first.
	assert.Equal(t, "arriba", tokens[0].Text)
	assert.Equal(t, "abajo", tokens[1].Text)
	assert.Less(t, tokens[0].Top, tokens[1].Top)
}

func TestAssembleWords_NoTokensFromWhitespace(t *testing.T) {
	texts := []pdf.Text{{S: "  ", X: 10, Y: 10, W: 4}, {S: "\n", X: 20, Y: 10, W: 0}}
	assert.Nil(t, assembleWords(texts, 842))
}

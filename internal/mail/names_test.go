package mail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Albar_n_VA02_123.pdf", SanitizeFilename("Albarán VA02 123.pdf"))
	assert.Equal(t, "GPA_123.pdf", SanitizeFilename("  GPA 123.pdf "))
	assert.Equal(t, "adjunto.pdf", SanitizeFilename(""))
}

func TestEnsurePDFExt(t *testing.T) {
	assert.Equal(t, "nota.pdf", EnsurePDFExt("nota.bin", "application/pdf"))
	assert.Equal(t, "nota.pdf", EnsurePDFExt("nota.pdf", "application/pdf"))
	assert.Equal(t, "nota.PDF", EnsurePDFExt("nota.PDF", "application/octet-stream"))
	assert.Equal(t, "nota.bin", EnsurePDFExt("nota.bin", "application/octet-stream"))
}

func TestIsPDFPart(t *testing.T) {
	assert.True(t, IsPDFPart("application/pdf", ""))
	assert.True(t, IsPDFPart("application/octet-stream", "nota.PDF"))
	assert.True(t, IsPDFPart("text/plain", "nota.pdf"))
	assert.False(t, IsPDFPart("application/octet-stream", "nota.zip"))
	assert.False(t, IsPDFPart("text/plain", "cuerpo.txt"))
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	p1 := UniquePath(dir, "nota.pdf")
	assert.Equal(t, filepath.Join(dir, "nota.pdf"), p1)
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o644))

	p2 := UniquePath(dir, "nota.pdf")
	assert.Equal(t, filepath.Join(dir, "nota-1.pdf"), p2)
	require.NoError(t, os.WriteFile(p2, []byte("x"), 0o644))

	p3 := UniquePath(dir, "nota.pdf")
	assert.Equal(t, filepath.Join(dir, "nota-2.pdf"), p3)

	// Non-pdf extensions are replaced.
	assert.Equal(t, filepath.Join(dir, "raro.pdf"), UniquePath(dir, "raro.dat"))
}

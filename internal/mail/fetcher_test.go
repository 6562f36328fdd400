package mail

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neo2475/odoo-importer/internal/config"
)

// rawMessage is a multipart mail with a text body, an attached PDF and an
// inline PDF whose name only appears in the Content-Type params.
func rawMessage() string {
	return "From: pedidos@varona.es\r\n" +
		"To: compras@taller.es\r\n" +
		"Subject: Albaran VA02\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=frontier\r\n" +
		"\r\n" +
		"--frontier\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Adjunto el albaran.\r\n" +
		"--frontier\r\n" +
		"Content-Type: application/pdf; name=\"albaran uno.pdf\"\r\n" +
		"Content-Disposition: attachment; filename=\"albaran uno.pdf\"\r\n" +
		"\r\n" +
		"%PDF-1.4 fake\r\n" +
		"--frontier\r\n" +
		"Content-Type: application/pdf; name=\"dentro.pdf\"\r\n" +
		"Content-Disposition: inline\r\n" +
		"\r\n" +
		"%PDF-1.4 fake too\r\n" +
		"--frontier--\r\n"
}

func TestSavePDFs(t *testing.T) {
	dir := t.TempDir()
	section := &imap.BodySectionName{}
	msg := &imap.Message{
		Envelope: &imap.Envelope{
			Subject: "Albaran VA02",
			From:    []*imap.Address{{MailboxName: "pedidos", HostName: "varona.es"}},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(rawMessage()),
		},
	}

	f := NewFetcher(config.MailConfig{}, zap.NewNop())
	files := f.savePDFs(msg, section, dir)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "albaran_uno.pdf"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "dentro.pdf"), files[1].Path)
	for _, file := range files {
		assert.Equal(t, "pedidos@varona.es", file.From)
		assert.Equal(t, "Albaran VA02", file.Subject)
		info, err := os.Stat(file.Path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSavePDFs_NoBody(t *testing.T) {
	f := NewFetcher(config.MailConfig{}, zap.NewNop())
	files := f.savePDFs(&imap.Message{}, &imap.BodySectionName{}, t.TempDir())
	assert.Empty(t, files)
}

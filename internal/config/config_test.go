package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "imap.gmail.com", cfg.Mail.Host)
	assert.True(t, cfg.Mail.UnseenOnly)
	assert.True(t, cfg.Mail.MarkSeen)
	assert.Empty(t, cfg.Mail.Labels)

	assert.True(t, cfg.Import.DedupByPartnerRef)
	assert.False(t, cfg.Import.Force)
	assert.Equal(t, 4, cfg.Import.Concurrency)

	assert.Equal(t, "inbox", cfg.Paths.InputDir)
	assert.Equal(t, "out", cfg.Paths.OutputDir)
	assert.Equal(t, "processed", cfg.Paths.ProcessedDir)

	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ODOOIMP_MAIL_LABELS", "Facturas, Albaranes ,")
	t.Setenv("ODOOIMP_ODOO_URL", " https://odoo.example.com ")
	t.Setenv("ODOOIMP_IMPORT_FORCE", "true")
	t.Setenv("ODOOIMP_PATHS_INPUT_DIR", "/srv/inbox")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Facturas", "Albaranes"}, cfg.Mail.Labels)
	assert.Equal(t, "https://odoo.example.com", cfg.Odoo.URL)
	assert.True(t, cfg.Import.Force)
	assert.Equal(t, "/srv/inbox", cfg.Paths.InputDir)
}

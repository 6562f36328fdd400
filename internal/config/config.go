package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Mail   MailConfig
	Odoo   OdooConfig
	Import ImportConfig
	Paths  PathsConfig
	Log    LogConfig
}

// MailConfig holds IMAP mailbox settings for attachment retrieval.
type MailConfig struct {
	Host       string   `mapstructure:"host"`
	User       string   `mapstructure:"user"`
	Password   string   `mapstructure:"password"`
	Labels     []string `mapstructure:"labels"`
	UnseenOnly bool     `mapstructure:"unseen_only"`
	MarkSeen   bool     `mapstructure:"mark_seen"`
}

// OdooConfig holds XML-RPC connection settings.
type OdooConfig struct {
	URL      string `mapstructure:"url"`
	DB       string `mapstructure:"db"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// ImportConfig holds purchase-order import behavior settings.
type ImportConfig struct {
	DedupByPartnerRef bool `mapstructure:"dedup_by_partner_ref"`
	Force             bool `mapstructure:"force"`
	Concurrency       int  `mapstructure:"concurrency"`
}

// PathsConfig holds the working directories of the pipeline.
type PathsConfig struct {
	InputDir     string `mapstructure:"input_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the ODOOIMP_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ODOOIMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Mail defaults
	v.SetDefault("mail.host", "imap.gmail.com")
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.labels", "")
	v.SetDefault("mail.unseen_only", true)
	v.SetDefault("mail.mark_seen", true)

	// Odoo defaults
	v.SetDefault("odoo.url", "")
	v.SetDefault("odoo.db", "")
	v.SetDefault("odoo.user", "")
	v.SetDefault("odoo.password", "")

	// Import defaults
	v.SetDefault("import.dedup_by_partner_ref", true)
	v.SetDefault("import.force", false)
	v.SetDefault("import.concurrency", 4)

	// Paths defaults
	v.SetDefault("paths.input_dir", "inbox")
	v.SetDefault("paths.output_dir", "out")
	v.SetDefault("paths.processed_dir", "processed")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"mail.host":                   "ODOOIMP_MAIL_HOST",
		"mail.user":                   "ODOOIMP_MAIL_USER",
		"mail.password":               "ODOOIMP_MAIL_PASSWORD",
		"mail.labels":                 "ODOOIMP_MAIL_LABELS",
		"mail.unseen_only":            "ODOOIMP_MAIL_UNSEEN_ONLY",
		"mail.mark_seen":              "ODOOIMP_MAIL_MARK_SEEN",
		"odoo.url":                    "ODOOIMP_ODOO_URL",
		"odoo.db":                     "ODOOIMP_ODOO_DB",
		"odoo.user":                   "ODOOIMP_ODOO_USER",
		"odoo.password":               "ODOOIMP_ODOO_PASSWORD",
		"import.dedup_by_partner_ref": "ODOOIMP_IMPORT_DEDUP_BY_PARTNER_REF",
		"import.force":                "ODOOIMP_IMPORT_FORCE",
		"import.concurrency":          "ODOOIMP_IMPORT_CONCURRENCY",
		"paths.input_dir":             "ODOOIMP_PATHS_INPUT_DIR",
		"paths.output_dir":            "ODOOIMP_PATHS_OUTPUT_DIR",
		"paths.processed_dir":         "ODOOIMP_PATHS_PROCESSED_DIR",
		"log.level":                   "ODOOIMP_LOG_LEVEL",
		"log.format":                  "ODOOIMP_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Labels arrive as a comma-separated string
	var labels []string
	for _, l := range strings.Split(v.GetString("mail.labels"), ",") {
		l = strings.TrimSpace(l)
		if l != "" {
			labels = append(labels, l)
		}
	}

	cfg.Mail = MailConfig{
		Host:       v.GetString("mail.host"),
		User:       v.GetString("mail.user"),
		Password:   v.GetString("mail.password"),
		Labels:     labels,
		UnseenOnly: v.GetBool("mail.unseen_only"),
		MarkSeen:   v.GetBool("mail.mark_seen"),
	}
	cfg.Odoo = OdooConfig{
		URL:      strings.TrimSpace(v.GetString("odoo.url")),
		DB:       strings.TrimSpace(v.GetString("odoo.db")),
		User:     strings.TrimSpace(v.GetString("odoo.user")),
		Password: strings.TrimSpace(v.GetString("odoo.password")),
	}
	cfg.Import = ImportConfig{
		DedupByPartnerRef: v.GetBool("import.dedup_by_partner_ref"),
		Force:             v.GetBool("import.force"),
		Concurrency:       v.GetInt("import.concurrency"),
	}
	cfg.Paths = PathsConfig{
		InputDir:     v.GetString("paths.input_dir"),
		OutputDir:    v.GetString("paths.output_dir"),
		ProcessedDir: v.GetString("paths.processed_dir"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}

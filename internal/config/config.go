package config

import (
	"strings"

	"github.com/spf13/viper"
)

// AppConfig collects the settings the engine needs at startup.
type AppConfig struct {
	DatabasePath   string
	SiteHostName   string
	SiteBaseURL    string
	SlugRetryLimit int
}

// Load reads configuration from INKLOG_* environment variables and fills in
// safe defaults for anything missing.
func Load() AppConfig {
	v := viper.New()
	v.SetEnvPrefix("inklog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_path", "inklog.db")
	v.SetDefault("site_host_name", "")
	v.SetDefault("site_base_url", "http://localhost:8080")
	v.SetDefault("slug_retry_limit", 10)

	cfg := AppConfig{
		DatabasePath:   strings.TrimSpace(v.GetString("database_path")),
		SiteHostName:   strings.TrimSpace(v.GetString("site_host_name")),
		SiteBaseURL:    strings.TrimSpace(v.GetString("site_base_url")),
		SlugRetryLimit: v.GetInt("slug_retry_limit"),
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "inklog.db"
	}
	if cfg.SlugRetryLimit <= 0 {
		cfg.SlugRetryLimit = 10
	}

	return cfg
}

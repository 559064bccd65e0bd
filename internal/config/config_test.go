package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DatabasePath != "inklog.db" {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.SlugRetryLimit != 10 {
		t.Fatalf("expected default retry limit 10, got %d", cfg.SlugRetryLimit)
	}
	if cfg.SiteBaseURL == "" {
		t.Fatal("expected a default site base url")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("INKLOG_DATABASE_PATH", "/tmp/engine-test.db")
	t.Setenv("INKLOG_SITE_HOST_NAME", "blog.example.com")
	t.Setenv("INKLOG_SLUG_RETRY_LIMIT", "3")

	cfg := Load()

	if cfg.DatabasePath != "/tmp/engine-test.db" {
		t.Fatalf("expected env database path, got %q", cfg.DatabasePath)
	}
	if cfg.SiteHostName != "blog.example.com" {
		t.Fatalf("expected env host name, got %q", cfg.SiteHostName)
	}
	if cfg.SlugRetryLimit != 3 {
		t.Fatalf("expected retry limit 3, got %d", cfg.SlugRetryLimit)
	}
}

func TestLoadRejectsNonPositiveRetryLimit(t *testing.T) {
	t.Setenv("INKLOG_SLUG_RETRY_LIMIT", "-1")

	cfg := Load()
	if cfg.SlugRetryLimit != 10 {
		t.Fatalf("expected fallback retry limit, got %d", cfg.SlugRetryLimit)
	}
}

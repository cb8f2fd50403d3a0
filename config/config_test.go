package config

import (
	"os"
	"path/filepath"
	"testing"
)

// setRequiredEnv supplies the minimum environment Load needs to pass
// validation with the smtp provider.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(configPathEnv, "")
	t.Setenv("DATABASE_URL", "postgres://localhost/dispatch_test?sslmode=disable")
	t.Setenv("FROM_EMAIL", "noreply@example.com")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("default port = %q", cfg.Port)
	}
	if cfg.Mail.Provider != "smtp" || cfg.Mail.SMTP.Port != 587 {
		t.Errorf("unexpected mail defaults: %+v", cfg.Mail)
	}
	if cfg.Dispatch.MaxAttempts != 3 || cfg.Dispatch.BaseDelaySeconds != 2 {
		t.Errorf("unexpected retry defaults: %+v", cfg.Dispatch)
	}
	if cfg.Quotes.FetchLimit != 20 {
		t.Errorf("unexpected fetch limit: %d", cfg.Quotes.FetchLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_MAX_RETRIES", "5")
	t.Setenv("EMAIL_RETRY_BASE_SECONDS", "1")
	t.Setenv("DISPATCH_WORKERS", "8")
	t.Setenv("QUOTES_API_URL", "http://localhost:9999/api/quotes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port override not applied: %q", cfg.Port)
	}
	if cfg.Dispatch.MaxAttempts != 5 || cfg.Dispatch.Workers != 8 {
		t.Errorf("dispatch overrides not applied: %+v", cfg.Dispatch)
	}
	if cfg.Quotes.URL != "http://localhost:9999/api/quotes" {
		t.Errorf("quotes URL override not applied: %q", cfg.Quotes.URL)
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "dispatch.yaml")
	yaml := []byte("port: \"7070\"\nlogLevel: debug\ndispatch:\n  workers: 16\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("PORT", "6060") // env wins over the file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "6060" {
		t.Errorf("env must win over file: port = %q", cfg.Port)
	}
	if cfg.LogLevel != "debug" || cfg.Dispatch.Workers != 16 {
		t.Errorf("file values not applied: level=%q workers=%d", cfg.LogLevel, cfg.Dispatch.Workers)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"missing database url", "DATABASE_URL"},
		{"missing from email", "FROM_EMAIL"},
		{"missing operator email", "ADMIN_EMAIL"},
		{"missing smtp host", "SMTP_HOST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadSendGridProviderRequiresKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAIL_PROVIDER", "sendgrid")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without SENDGRID_API_KEY")
	}

	t.Setenv("SENDGRID_API_KEY", "SG.test-key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mail.Provider != "sendgrid" {
		t.Errorf("provider = %q", cfg.Mail.Provider)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAIL_PROVIDER", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

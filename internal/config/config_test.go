package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Name != "warbler" {
		t.Fatalf("expected default app name, got %q", cfg.App.Name)
	}
	if cfg.Session.CookieName != "warbler_session" {
		t.Fatalf("expected default cookie name, got %q", cfg.Session.CookieName)
	}
	if !cfg.App.CSRFEnabled {
		t.Fatal("csrf must default to enabled")
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected default addr %q", cfg.HTTPAddr())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
name = "warbler-test"
port = 9000

[session]
cookie_name = "sid"

[rabbitmq]
url = ""
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Name != "warbler-test" || cfg.App.Port != 9000 {
		t.Fatalf("file values not applied: %+v", cfg.App)
	}
	if cfg.Session.CookieName != "sid" {
		t.Fatalf("expected cookie name from file, got %q", cfg.Session.CookieName)
	}
	if cfg.RabbitMQ.URL != "" {
		t.Fatalf("expected empty rabbitmq url, got %q", cfg.RabbitMQ.URL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[app]\nport = 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("CSRF_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != 9100 {
		t.Fatalf("expected env port override, got %d", cfg.App.Port)
	}
	if cfg.Session.Secret != "from-env" {
		t.Fatalf("expected env secret override, got %q", cfg.Session.Secret)
	}
	if cfg.App.CSRFEnabled {
		t.Fatal("expected csrf disabled by env")
	}
}

func TestMySQLDSN(t *testing.T) {
	cfg := &Config{MySQL: MySQLConfig{
		Host:     "db.local",
		Port:     3306,
		User:     "warbler",
		Password: "pw",
		DB:       "warbler",
		Params:   "parseTime=true",
	}}
	want := "warbler:pw@tcp(db.local:3306)/warbler?parseTime=true"
	if got := cfg.MySQLDSN(); got != want {
		t.Fatalf("dsn mismatch:\n got %q\nwant %q", got, want)
	}
}

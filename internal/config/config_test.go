package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "test-secret")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("default ttl = %s", cfg.Auth.TokenTTL)
	}
}

func TestLoadFromPathFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleetd.yaml")
	raw := []byte("server:\n  port: 9000\nauth:\n  token_secret: from-file\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("file port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Auth.TokenSecret != "from-file" {
		t.Fatalf("secret = %q", cfg.Auth.TokenSecret)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("env should win over file, level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromPathRejectsMissingSecret(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "")
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error without token secret")
	}
}

func TestLoadFromPathRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_TOKEN_SECRET", "test-secret")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

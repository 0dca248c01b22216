package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("Expected defaults for missing config, got error: %v", err)
	}
	if cfg.Tokens.PrimaryKey != "uefBearerToken" {
		t.Errorf("Expected default primary key, got %q", cfg.Tokens.PrimaryKey)
	}
	if cfg.Session.RequestTimeoutSeconds != 5 {
		t.Errorf("Expected default request timeout 5, got %d", cfg.Session.RequestTimeoutSeconds)
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
hostOrigin: https://lms.example.com
embed:
  url: https://widget.example.com/embed
help:
  id: helpdesk
  displayName: Helpdesk
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.HostOrigin != "https://lms.example.com" {
		t.Errorf("Expected host origin from file, got %q", cfg.HostOrigin)
	}
	// Unset fields keep their defaults.
	if cfg.Tokens.PrimaryKey != "uefBearerToken" {
		t.Errorf("Expected default primary key to survive merge, got %q", cfg.Tokens.PrimaryKey)
	}
	if cfg.Embed.PanelType != "small" {
		t.Errorf("Expected default panel type to survive merge, got %q", cfg.Embed.PanelType)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("hostOrigin: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("Expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation failure without host origin")
	}

	cfg.HostOrigin = "https://lms.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation failure without embed URL")
	}

	cfg.Embed.URL = "https://widget.example.com/embed"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation failure without any entry point")
	}

	cfg.Help.ID = "helpdesk"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
}

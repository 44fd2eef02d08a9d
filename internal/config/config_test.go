package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/photoform/internal/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "photoform.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Expected default port 8888, got %d", cfg.Server.Port)
	}
	if cfg.Layout.Columns != 3 || cfg.Layout.MaxEntries != 9 {
		t.Errorf("Expected default layout, got %+v", cfg.Layout)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
layout:
  empty_slot_policy: omit
  jpeg_quality: 70
server:
  port: 9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Layout.EmptySlotPolicy != layout.Omit {
		t.Errorf("Expected omit policy, got %s", cfg.Layout.EmptySlotPolicy)
	}
	if cfg.Layout.JPEGQuality != 70 {
		t.Errorf("Expected quality 70, got %d", cfg.Layout.JPEGQuality)
	}
	if cfg.Layout.Columns != 3 {
		t.Errorf("Expected untouched columns, got %d", cfg.Layout.Columns)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("Expected default upload cap, got %d", cfg.Server.MaxUploadBytes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	font := filepath.Join(t.TempDir(), "label.ttf")
	if err := os.WriteFile(font, []byte("ttf"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFontPath, font)
	t.Setenv(EnvPort, "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Font.Path != font {
		t.Errorf("Expected font %s, got %s", font, cfg.Font.Path)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"bad yaml", "layout: [", nil},
		{"bad policy", "layout:\n  empty_slot_policy: drop\n", nil},
		{"zero columns", "layout:\n  columns: 0\n", nil},
		{"bad port", "server:\n  port: 70000\n", nil},
		{"missing font", "font:\n  path: /does/not/exist.ttf\n", nil},
		{"bad env port", "", map[string]string{EnvPort: "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("Expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}
}

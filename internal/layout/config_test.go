package layout

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero columns", func(c *Config) { c.Columns = 0 }},
		{"negative max entries", func(c *Config) { c.MaxEntries = -1 }},
		{"zero ratio", func(c *Config) { c.TargetAspectRatio = 0 }},
		{"no presets", func(c *Config) { c.RowHeightPresets = nil }},
		{"preset key zero", func(c *Config) { c.RowHeightPresets = map[int]float64{0: 200} }},
		{"preset too short", func(c *Config) { c.RowHeightPresets = map[int]float64{1: 25} }},
		{"margins too wide", func(c *Config) { c.Margin = 400 }},
		{"meta label too wide", func(c *Config) { c.MetaLabelWidth = 600 }},
		{"zero pixels", func(c *Config) { c.MaxImagePixels = 0 }},
		{"quality over 100", func(c *Config) { c.JPEGQuality = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error")
			}
		})
	}
}

func TestRowHeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RowHeightPresets = map[int]float64{2: 230, 3: 200}

	tests := []struct {
		rows     int
		expected float64
	}{
		{1, 230}, // below every key: smallest key
		{2, 230},
		{3, 200},
		{7, 200}, // above every key: largest key
	}

	for _, tt := range tests {
		if got := cfg.RowHeight(tt.rows); got != tt.expected {
			t.Errorf("Expected %.0f for %d rows, got %.0f", tt.expected, tt.rows, got)
		}
	}
}

func TestParseEmptySlotPolicy(t *testing.T) {
	tests := []struct {
		input    string
		expected EmptySlotPolicy
		wantErr  bool
	}{
		{"placeholder", Placeholder, false},
		{"OMIT", Omit, false},
		{" omit ", Omit, false},
		{"", Placeholder, false},
		{"drop", Placeholder, true},
	}

	for _, tt := range tests {
		got, err := ParseEmptySlotPolicy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Expected error=%v for %q, got %v", tt.wantErr, tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("Expected %s for %q, got %s", tt.expected, tt.input, got)
		}
	}
}

func TestConfigYAML(t *testing.T) {
	input := `
columns: 2
empty_slot_policy: omit
row_height_presets:
  1: 300
  4: 150
`
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if cfg.Columns != 2 {
		t.Errorf("Expected 2 columns, got %d", cfg.Columns)
	}
	if cfg.EmptySlotPolicy != Omit {
		t.Errorf("Expected omit policy, got %s", cfg.EmptySlotPolicy)
	}
	if cfg.RowHeight(4) != 150 {
		t.Errorf("Expected preset 150 for 4 rows, got %.0f", cfg.RowHeight(4))
	}
	if cfg.MaxEntries != 9 {
		t.Errorf("Expected untouched default max entries, got %d", cfg.MaxEntries)
	}
}

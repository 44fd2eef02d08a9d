// Package config loads the photoform YAML configuration
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/photoform/internal/layout"
)

// Environment variables that override the file
const (
	EnvFontPath = "PHOTOFORM_FONT_PATH"
	EnvPort     = "PHOTOFORM_PORT"
)

// Config represents the application configuration
type Config struct {
	Layout layout.Config `yaml:"layout"`
	Font   FontConfig    `yaml:"font"`
	Server ServerConfig  `yaml:"server"`
}

type FontConfig struct {
	// Path to a TrueType font with the glyphs used in labels and addresses
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// MaxUploadBytes caps a single photo upload
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Layout: layout.DefaultConfig(),
		Server: ServerConfig{
			Port:           8888,
			MaxUploadBytes: 10 * 1024 * 1024,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvFontPath); v != "" {
		c.Font.Path = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Font.Path != "" {
		if _, err := os.Stat(c.Font.Path); err != nil {
			return fmt.Errorf("font.path: %w", err)
		}
	}
	return nil
}

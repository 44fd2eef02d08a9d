package batch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFile is written into the output directory after a run
const ManifestFile = "manifest.yaml"

// Manifest records what a batch run produced
type Manifest struct {
	Dataset     string           `yaml:"dataset"`
	GeneratedAt string           `yaml:"generatedat"`
	Policy      string           `yaml:"policy"`
	Documents   []DocumentResult `yaml:"documents"`
}

// DocumentResult is the outcome for one document
type DocumentResult struct {
	ID          string   `yaml:"id"`
	Kind        string   `yaml:"kind"`
	Title       string   `yaml:"title"`
	SiteAddress string   `yaml:"siteaddress,omitempty"`
	PDF         string   `yaml:"pdf,omitempty"`
	XLSX        string   `yaml:"xlsx,omitempty"`
	Entries     int      `yaml:"entries"`
	Photos      int      `yaml:"photos"`
	Cells       int      `yaml:"cells"`
	Pages       int      `yaml:"pages"`
	Warnings    []string `yaml:"warnings,omitempty"`
	Error       string   `yaml:"error,omitempty"`
}

// Failed counts documents that could not be rendered
func (m *Manifest) Failed() int {
	n := 0
	for _, d := range m.Documents {
		if d.Error != "" {
			n++
		}
	}
	return n
}

// WriteManifest saves m as YAML
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

func timestamp() string {
	return time.Now().Format("2006-01-02_15-04-05")
}

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/photoform/internal/form"
)

// DocumentFile is a single form written by hand as YAML:
//
//	kind: cascade
//	site_address: 12 Example Rd
//	entries:
//	  - category: Equipment Delivery
//	    photo: photos/delivery.jpg
//	  - category: Custom
//	    custom_text: Gas meter
type DocumentFile struct {
	Kind        string      `yaml:"kind"`
	Title       string      `yaml:"title"`
	SiteAddress string      `yaml:"site_address"`
	Entries     []FileEntry `yaml:"entries"`
}

type FileEntry struct {
	Category   string `yaml:"category"`
	CustomText string `yaml:"custom_text"`
	// Photo is resolved against the directory of the document file
	Photo string `yaml:"photo"`
}

// LoadDocumentFile reads path into a Document. The returned directory is the
// base for relative photo paths.
func LoadDocumentFile(path string) (Document, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, "", fmt.Errorf("failed to read document file: %w", err)
	}

	var file DocumentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Document{}, "", fmt.Errorf("failed to parse document file: %w", err)
	}

	kind, err := form.ParseKind(file.Kind)
	if err != nil {
		return Document{}, "", err
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := Document{
		ID:          id,
		Kind:        kind,
		Title:       strings.TrimSpace(file.Title),
		SiteAddress: file.SiteAddress,
	}
	if doc.Title == "" {
		doc.Title = kind.Title()
	}

	for i, e := range file.Entries {
		if e.Category != "" && !kind.HasCategory(e.Category) {
			return Document{}, "", fmt.Errorf("entry %d: %w: %q", i, form.ErrUnknownCategory, e.Category)
		}
		doc.Rows = append(doc.Rows, Row{
			DocumentID: id,
			Slot:       int32(i),
			Category:   e.Category,
			CustomText: e.CustomText,
			PhotoPath:  e.Photo,
		})
	}

	return doc, filepath.Dir(path), nil
}

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/photoform/internal/form"
	"github.com/lehigh-university-libraries/photoform/internal/models"
)

// Document is every row of one submitted form
type Document struct {
	ID          string
	Kind        form.Kind
	Title       string
	SiteAddress string
	Rows        []Row
}

// Group collects rows into documents in order of first appearance. Header
// fields are taken from the first row that sets them and entries are sorted
// by slot.
func Group(rows []Row) ([]Document, error) {
	index := make(map[string]int)
	var docs []Document

	for _, row := range rows {
		id := strings.TrimSpace(row.DocumentID)
		if id == "" {
			return nil, fmt.Errorf("row with slot %d has no document_id", row.Slot)
		}

		i, ok := index[id]
		if !ok {
			i = len(docs)
			index[id] = i
			docs = append(docs, Document{ID: id})
		}

		doc := &docs[i]
		if doc.Kind == "" && row.Kind != "" {
			kind, err := form.ParseKind(row.Kind)
			if err != nil {
				return nil, fmt.Errorf("document %s: %w", id, err)
			}
			doc.Kind = kind
		}
		if doc.Title == "" {
			doc.Title = strings.TrimSpace(row.Title)
		}
		if doc.SiteAddress == "" {
			doc.SiteAddress = row.SiteAddress
		}
		doc.Rows = append(doc.Rows, row)
	}

	for i := range docs {
		if docs[i].Kind == "" {
			docs[i].Kind = form.KindCascade
		}
		if docs[i].Title == "" {
			docs[i].Title = docs[i].Kind.Title()
		}
		sort.SliceStable(docs[i].Rows, func(a, b int) bool {
			return docs[i].Rows[a].Slot < docs[i].Rows[b].Slot
		})
	}

	return docs, nil
}

// Inputs reads the photos of d. Photos that cannot be read leave their
// entry without a photo and are reported as warnings.
func (d Document) Inputs(baseDir string) ([]form.EntryInput, []error) {
	inputs := make([]form.EntryInput, 0, len(d.Rows))
	var warnings []error

	for _, row := range d.Rows {
		in := form.EntryInput{Category: row.Category, CustomText: row.CustomText}
		if strings.TrimSpace(in.Category) == "" {
			in.Category = d.Kind.DefaultCategory()
		}

		if row.PhotoPath != "" {
			path := row.PhotoPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				warnings = append(warnings, fmt.Errorf("slot %d: failed to read photo: %w", row.Slot, err))
			} else {
				in.Photo = data
			}
		}

		inputs = append(inputs, in)
	}

	return inputs, warnings
}

// Spec reads and decodes the photos of d into the document the composers
// render. Read and decode problems are returned as warnings.
func (d Document) Spec(baseDir string, ratio float64) (models.DocumentSpec, []error) {
	inputs, warnings := d.Inputs(baseDir)
	spec, decodeWarnings := form.BuildSpec(d.Title, d.SiteAddress, inputs, ratio)
	return spec, append(warnings, decodeWarnings...)
}

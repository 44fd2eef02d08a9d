package form

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/photoform/internal/models"
)

// Kind selects the billing form variant
type Kind string

const (
	KindCascade     Kind = "cascade"
	KindVentilation Kind = "ventilation"
)

type vocabulary struct {
	title      string
	categories []string
}

var vocabularies = map[Kind]vocabulary{
	KindCascade: {
		title: "Cascade Billing Form",
		categories: []string{
			"Equipment Delivery",
			"Hot Water Modular Install",
			"Heating Modular Install",
			"Lower Piping",
			"LLH Install",
			"Flue Install",
			"Exterior Flue Finish",
			"Drain Hose",
			"NCC Panel",
			"Completion Photo",
			models.CustomTag,
		},
	},
	KindVentilation: {
		title:      "Ventilation Billing Form",
		categories: []string{models.CustomTag},
	},
}

// Kinds lists the supported form kinds in display order
func Kinds() []Kind {
	return []Kind{KindCascade, KindVentilation}
}

// ParseKind accepts a kind name case-insensitively; blank means cascade
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindCascade, nil
	}
	if _, ok := vocabularies[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Title is the document title printed for the kind
func (k Kind) Title() string {
	return vocabularies[k].title
}

// Categories returns a copy of the kind's vocabulary, custom sentinel last
func (k Kind) Categories() []string {
	return slices.Clone(vocabularies[k].categories)
}

// DefaultCategory is the category new entries start with
func (k Kind) DefaultCategory() string {
	categories := vocabularies[k].categories
	if len(categories) == 0 {
		return models.CustomTag
	}
	return categories[0]
}

// HasCategory reports whether category belongs to the kind's vocabulary
func (k Kind) HasCategory(category string) bool {
	return slices.Contains(vocabularies[k].categories, category)
}

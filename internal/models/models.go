package models

import (
	"image"
	"strings"
)

// CustomTag is the category sentinel meaning "use the free-text label"
const CustomTag = "Custom"

type labelKind int

const (
	labelCategory labelKind = iota
	labelCustom
)

// Label is either a category tag from the form vocabulary or free text
type Label struct {
	kind labelKind
	tag  string
	text string
}

// Category returns a label for a vocabulary tag
func Category(tag string) Label {
	return Label{kind: labelCategory, tag: tag}
}

// Custom returns a free-text label
func Custom(text string) Label {
	return Label{kind: labelCustom, tag: CustomTag, text: text}
}

// ResolveLabel turns a selected category and the custom text box into a Label.
// The custom text only counts when the category is the custom sentinel.
func ResolveLabel(category, customText string) Label {
	if category == CustomTag {
		return Custom(customText)
	}
	return Category(category)
}

// IsCustom reports whether the label carries free text
func (l Label) IsCustom() bool {
	return l.kind == labelCustom
}

// Tag returns the vocabulary tag the label was created from
func (l Label) Tag() string {
	return l.tag
}

// Display returns the caption printed under the photo. A custom label with
// blank text falls back to the sentinel tag, so the result is never empty
// unless the tag itself is.
func (l Label) Display() string {
	if l.kind == labelCustom {
		if text := strings.TrimSpace(l.text); text != "" {
			return text
		}
	}
	return l.tag
}

func (l Label) String() string {
	return l.Display()
}

// PhotoEntry is one labeled slot of the document
type PhotoEntry struct {
	Label Label
	// Image is nil when no photo was attached
	Image image.Image
}

// HasImage reports whether a photo is attached
func (e PhotoEntry) HasImage() bool {
	return e.Image != nil
}

// DocumentSpec is the snapshot handed to the composers
type DocumentSpec struct {
	Title       string
	SiteAddress string
	Entries     []PhotoEntry
}

// SiteAddressOrDash returns the trimmed address, or "-" when blank
func (d DocumentSpec) SiteAddressOrDash() string {
	if addr := strings.TrimSpace(d.SiteAddress); addr != "" {
		return addr
	}
	return "-"
}

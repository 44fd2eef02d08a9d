package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/photoform/internal/normalize"
)

// EmptySlotPolicy decides what happens to entries without a photo
type EmptySlotPolicy int

const (
	// Placeholder renders imageless entries as "(no photo)" cells and pads
	// the last row with invisible fillers
	Placeholder EmptySlotPolicy = iota
	// Omit drops imageless entries from the grid entirely
	Omit
)

func (p EmptySlotPolicy) String() string {
	switch p {
	case Omit:
		return "omit"
	default:
		return "placeholder"
	}
}

// ParseEmptySlotPolicy parses "placeholder" or "omit"
func ParseEmptySlotPolicy(s string) (EmptySlotPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "placeholder":
		return Placeholder, nil
	case "omit":
		return Omit, nil
	default:
		return Placeholder, fmt.Errorf("unknown empty slot policy %q (expected placeholder or omit)", s)
	}
}

func (p EmptySlotPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *EmptySlotPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseEmptySlotPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// A4 page size in points
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Config enumerates every tunable of the grid document. All lengths are in
// points.
type Config struct {
	Columns           int             `yaml:"columns"`
	MaxEntries        int             `yaml:"max_entries"`
	EmptySlotPolicy   EmptySlotPolicy `yaml:"empty_slot_policy"`
	TargetAspectRatio float64         `yaml:"target_aspect_ratio"`
	// RowHeightPresets maps a grid row count to the row height used for it
	RowHeightPresets map[int]float64 `yaml:"row_height_presets"`

	PageWidth      float64 `yaml:"page_width"`
	PageHeight     float64 `yaml:"page_height"`
	Margin         float64 `yaml:"margin"`
	TitleHeight    float64 `yaml:"title_height"`
	TitleSpacing   float64 `yaml:"title_spacing"`
	MetaHeight     float64 `yaml:"meta_height"`
	MetaLabelWidth float64 `yaml:"meta_label_width"`
	MetaSpacing    float64 `yaml:"meta_spacing"`
	CaptionHeight  float64 `yaml:"caption_height"`
	CellPadding    float64 `yaml:"cell_padding"`
	ImageInset     float64 `yaml:"image_inset"`

	MaxImagePixels int `yaml:"max_image_pixels"`
	JPEGQuality    int `yaml:"jpeg_quality"`
}

// DefaultConfig returns the single-page A4 preset: 3 columns, at most 9
// photos, rows of 260/230/200pt for 1/2/3+ rows.
func DefaultConfig() Config {
	return Config{
		Columns:           3,
		MaxEntries:        9,
		EmptySlotPolicy:   Placeholder,
		TargetAspectRatio: normalize.DefaultTargetRatio,
		RowHeightPresets: map[int]float64{
			1: 260,
			2: 230,
			3: 200,
		},
		PageWidth:      A4Width,
		PageHeight:     A4Height,
		Margin:         20,
		TitleHeight:    22,
		TitleSpacing:   12,
		MetaHeight:     19,
		MetaLabelWidth: 80,
		MetaSpacing:    6,
		CaptionHeight:  22,
		CellPadding:    2,
		ImageInset:     8,
		MaxImagePixels: normalize.DefaultMaxPixels,
		JPEGQuality:    normalize.DefaultJPEGQuality,
	}
}

// Validate checks that the config describes a drawable page
func (c Config) Validate() error {
	if c.Columns < 1 {
		return fmt.Errorf("columns must be at least 1")
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max_entries must not be negative")
	}
	if c.TargetAspectRatio <= 0 {
		return fmt.Errorf("target_aspect_ratio must be positive")
	}
	if len(c.RowHeightPresets) == 0 {
		return fmt.Errorf("row_height_presets must not be empty")
	}
	for rows, height := range c.RowHeightPresets {
		if rows < 1 {
			return fmt.Errorf("row_height_presets key %d must be at least 1", rows)
		}
		if height <= c.CaptionHeight+c.ImageInset {
			return fmt.Errorf("row height %.1f for %d rows leaves no room for the photo", height, rows)
		}
	}
	if c.PageWidth <= 2*c.Margin || c.PageHeight <= 2*c.Margin {
		return fmt.Errorf("margins leave no usable page area")
	}
	if c.MetaLabelWidth >= c.UsableWidth() {
		return fmt.Errorf("meta_label_width must be narrower than the usable width")
	}
	if c.MaxImagePixels < 1 {
		return fmt.Errorf("max_image_pixels must be at least 1")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}
	return nil
}

// UsableWidth is the page width inside the margins
func (c Config) UsableWidth() float64 {
	return c.PageWidth - 2*c.Margin
}

// ColumnWidth is the width of one grid column
func (c Config) ColumnWidth() float64 {
	return c.UsableWidth() / float64(c.Columns)
}

// RowHeight picks the preset for rows: the exact key when present, otherwise
// the largest key below rows, otherwise the smallest key.
func (c Config) RowHeight(rows int) float64 {
	if h, ok := c.RowHeightPresets[rows]; ok {
		return h
	}

	keys := make([]int, 0, len(c.RowHeightPresets))
	for k := range c.RowHeightPresets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	if len(keys) == 0 {
		return 0
	}

	chosen := keys[0]
	for _, k := range keys {
		if k <= rows {
			chosen = k
		}
	}
	return c.RowHeightPresets[chosen]
}

// Package compose renders a DocumentSpec into a single-page PDF billing form
package compose

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/lehigh-university-libraries/photoform/internal/layout"
	"github.com/lehigh-university-libraries/photoform/internal/models"
	"github.com/lehigh-university-libraries/photoform/internal/normalize"
)

// ContentTypePDF is the MIME type of ComposePDF output
const ContentTypePDF = "application/pdf"

const (
	defaultFamily   = "Helvetica"
	embeddedFamily  = "FormFont"
	titleFontSize   = 18
	bodyFontSize    = 10
	metaBorderWidth = 0.9
	ruleWidth       = 0.3
	ellipsis        = "..."
)

type rgb struct{ r, g, b int }

var (
	black = rgb{0, 0, 0}
	grey  = rgb{128, 128, 128}
)

// ComposerConfig configures a Composer
type ComposerConfig struct {
	Layout layout.Config
	// FontPath points to an optional TrueType font used for every string.
	// Without it the core Helvetica font is used, which only covers cp1252.
	FontPath string
	Creator  string
	Logger   *slog.Logger
}

// Composer renders documents. It holds no per-document state and may be
// shared between goroutines.
type Composer struct {
	layout  layout.Config
	font    []byte
	creator string
	logger  *slog.Logger
}

// NewComposer validates cfg and loads the configured font
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Composer{
		layout:  cfg.Layout,
		creator: cfg.Creator,
		logger:  logger,
	}

	if cfg.FontPath != "" {
		font, err := os.ReadFile(cfg.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", cfg.FontPath, err)
		}
		c.font = font
	} else {
		logger.Warn("No font configured, labels outside cp1252 will not render", "fallback", defaultFamily)
	}

	return c, nil
}

// LayoutConfig returns the geometry settings used by the composer
func (c *Composer) LayoutConfig() layout.Config {
	return c.layout
}

// Layout computes the geometry ComposePDF would draw for spec
func (c *Composer) Layout(spec models.DocumentSpec) layout.Layout {
	return layout.Compute(spec, c.layout)
}

// ComposePDF renders spec. Either the full document is returned or an error;
// partial output is never returned.
func (c *Composer) ComposePDF(spec models.DocumentSpec) ([]byte, error) {
	l := c.Layout(spec)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetMargins(c.layout.Margin, c.layout.Margin, c.layout.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(spec.Title, true)
	if c.creator != "" {
		pdf.SetCreator(c.creator, true)
	}

	family, tr := c.registerFont(pdf)

	photos, err := c.embedPhotos(pdf, spec, l)
	if err != nil {
		return nil, err
	}

	pdf.AddPage()
	drawTitle(pdf, l, family, tr)
	drawMeta(pdf, l, family, tr)

	page := 0
	for _, cell := range l.Cells {
		for cell.Page > page {
			pdf.AddPage()
			page++
		}
		c.drawCell(pdf, cell, photos, family, tr)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	c.logger.Debug("Rendered pdf",
		"title", spec.Title,
		"cells", len(l.Cells),
		"photos", len(photos),
		"pages", l.Pages,
		"bytes", buf.Len())

	return buf.Bytes(), nil
}

func (c *Composer) registerFont(pdf *fpdf.Fpdf) (string, func(string) string) {
	if c.font == nil {
		return defaultFamily, pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddUTF8FontFromBytes(embeddedFamily, "", c.font)
	pdf.AddUTF8FontFromBytes(embeddedFamily, "B", c.font)
	return embeddedFamily, func(s string) string { return s }
}

// embedPhotos registers one JPEG per photo cell and returns the image names
// keyed by entry index
func (c *Composer) embedPhotos(pdf *fpdf.Fpdf, spec models.DocumentSpec, l layout.Layout) (map[int]string, error) {
	photos := make(map[int]string)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	for _, cell := range l.Cells {
		if cell.Kind != layout.CellPhoto {
			continue
		}
		entry := spec.Entries[cell.EntryIndex]

		data, err := normalize.Embed(entry.Image, c.layout.TargetAspectRatio, c.layout.MaxImagePixels, c.layout.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare photo %d (%s): %w", cell.EntryIndex, cell.Label, err)
		}

		name := fmt.Sprintf("entry-%d", cell.EntryIndex)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to embed photo %d (%s): %w", cell.EntryIndex, cell.Label, err)
		}
		photos[cell.EntryIndex] = name
	}

	return photos, nil
}

func drawTitle(pdf *fpdf.Fpdf, l layout.Layout, family string, tr func(string) string) {
	pdf.SetFont(family, "B", titleFontSize)
	pdf.SetTextColor(black.r, black.g, black.b)
	pdf.SetXY(l.Title.X, l.Title.Y)
	pdf.CellFormat(l.Title.W, l.Title.H, tr(l.TitleText), "", 0, "C", false, 0, "")
}

func drawMeta(pdf *fpdf.Fpdf, l layout.Layout, family string, tr func(string) string) {
	m := l.Meta

	pdf.SetDrawColor(black.r, black.g, black.b)
	pdf.SetLineWidth(metaBorderWidth)
	pdf.Rect(m.Box.X, m.Box.Y, m.Box.W, m.Box.H, "D")

	pdf.SetDrawColor(grey.r, grey.g, grey.b)
	pdf.SetLineWidth(ruleWidth)
	pdf.Line(m.Value.X, m.Box.Y, m.Value.X, m.Box.Bottom())

	pdf.SetFont(family, "", bodyFontSize)
	pdf.SetXY(m.Label.X, m.Label.Y)
	pdf.CellFormat(m.Label.W, m.Label.H, tr(m.LabelText), "", 0, "L", false, 0, "")
	pdf.SetXY(m.Value.X, m.Value.Y)
	pdf.CellFormat(m.Value.W, m.Value.H, fitLine(pdf, m.ValueText, m.Value.W, tr), "", 0, "L", false, 0, "")
}

func (c *Composer) drawCell(pdf *fpdf.Fpdf, cell layout.Cell, photos map[int]string, family string, tr func(string) string) {
	if cell.Kind == layout.CellFiller {
		return
	}

	pdf.SetDrawColor(grey.r, grey.g, grey.b)
	pdf.SetLineWidth(ruleWidth)
	pdf.Rect(cell.Box.X, cell.Box.Y, cell.Box.W, cell.Box.H, "D")

	pdf.SetFont(family, "", bodyFontSize)

	switch cell.Kind {
	case layout.CellPhoto:
		img := cell.Image
		pdf.ImageOptions(photos[cell.EntryIndex], img.X, img.Y, img.W, img.H, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	case layout.CellPlaceholder:
		area := cell.Box
		area.H -= c.layout.CaptionHeight
		pdf.SetTextColor(grey.r, grey.g, grey.b)
		pdf.SetXY(area.X, area.Y)
		pdf.CellFormat(area.W, area.H, layout.PlaceholderText, "", 0, "CM", false, 0, "")
	}

	pdf.SetTextColor(black.r, black.g, black.b)
	pdf.SetXY(cell.Caption.X, cell.Caption.Y)
	pdf.CellFormat(cell.Caption.W, cell.Caption.H, fitLine(pdf, cell.Label, cell.Caption.W, tr), "", 0, "CM", false, 0, "")
}

// fitLine translates s and shortens it with an ellipsis until it fits on
// one line of width w
func fitLine(pdf *fpdf.Fpdf, s string, w float64, tr func(string) string) string {
	limit := w - 2*pdf.GetCellMargin()
	if out := tr(s); pdf.GetStringWidth(out) <= limit {
		return out
	}

	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := tr(string(runes) + ellipsis)
		if pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

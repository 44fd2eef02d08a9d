// Package sheet renders a DocumentSpec into an XLSX workbook laid out like
// the PDF form: title, site address row and a grid of photos with captions.
package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lehigh-university-libraries/photoform/internal/layout"
	"github.com/lehigh-university-libraries/photoform/internal/models"
	"github.com/lehigh-university-libraries/photoform/internal/normalize"
)

// ContentTypeXLSX is the MIME type of ComposeXLSX output
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the name of the single worksheet
const SheetName = "Billing Form"

const (
	titleRow = 1
	metaRow  = 2
	gridRow  = 4

	// excel sizes columns in characters of roughly 7px
	pxPerChar = 7.0
	a4Paper   = 9
)

// ImageRow returns the worksheet row holding the photos of grid row r
func ImageRow(r int) int {
	return gridRow + 2*r
}

// CaptionRow returns the worksheet row holding the captions of grid row r
func CaptionRow(r int) int {
	return ImageRow(r) + 1
}

func ptToPx(pt float64) float64 {
	return pt * 96 / 72
}

type styles struct {
	title, label, value, photo, placeholder, caption int
}

// ComposeXLSX renders spec with the same geometry rules as the PDF composer
func ComposeXLSX(spec models.DocumentSpec, cfg layout.Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout config: %w", err)
	}

	l := layout.Compute(spec, cfg)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := setupPage(f, l, cfg); err != nil {
		return nil, err
	}
	if err := writeHeader(f, l, st); err != nil {
		return nil, err
	}

	lastPage := 0
	for _, cell := range l.Cells {
		if cell.Page > lastPage {
			lastPage = cell.Page
			top, _ := excelize.CoordinatesToCellName(1, ImageRow(cell.Row))
			if err := f.InsertPageBreak(SheetName, top); err != nil {
				return nil, fmt.Errorf("failed to insert page break: %w", err)
			}
		}
		if err := writeCell(f, spec, cell, cfg, st); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}

	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: false, ShrinkToFit: true}
	thin := func(color string) []excelize.Border {
		return []excelize.Border{
			{Type: "left", Color: color, Style: 1},
			{Type: "top", Color: color, Style: 1},
			{Type: "right", Color: color, Style: 1},
			{Type: "bottom", Color: color, Style: 1},
		}
	}

	var st styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 18}, Alignment: center}},
		{&st.label, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thin("000000"),
			Alignment: &excelize.Alignment{Vertical: "center"}}},
		{&st.value, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thin("000000"),
			Alignment: &excelize.Alignment{Vertical: "center", ShrinkToFit: true}}},
		{&st.photo, &excelize.Style{Border: thin("808080")}},
		{&st.placeholder, &excelize.Style{Font: &excelize.Font{Size: 10, Color: "808080"}, Border: thin("808080"), Alignment: center}},
		{&st.caption, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thin("808080"), Alignment: center}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}

	return st, nil
}

func setupPage(f *excelize.File, l layout.Layout, cfg layout.Config) error {
	size := a4Paper
	orientation := "portrait"
	fit := 1
	if err := f.SetPageLayout(SheetName, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fit,
		FitToHeight: &l.Pages,
	}); err != nil {
		return fmt.Errorf("failed to set page layout: %w", err)
	}

	fitToPage := true
	if err := f.SetSheetProps(SheetName, &excelize.SheetPropsOptions{FitToPage: &fitToPage}); err != nil {
		return fmt.Errorf("failed to set sheet properties: %w", err)
	}

	margin := cfg.Margin / 72
	if err := f.SetPageMargins(SheetName, &excelize.PageLayoutMarginsOptions{
		Top: &margin, Bottom: &margin, Left: &margin, Right: &margin,
	}); err != nil {
		return fmt.Errorf("failed to set page margins: %w", err)
	}

	last, _ := excelize.ColumnNumberToName(l.Columns)
	width := ptToPx(cfg.ColumnWidth()) / pxPerChar
	if err := f.SetColWidth(SheetName, "A", last, width); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	heights := map[int]float64{
		titleRow: cfg.TitleHeight + cfg.TitleSpacing,
		metaRow:  cfg.MetaHeight,
		3:        cfg.MetaSpacing,
	}
	for r := 0; r < l.Rows; r++ {
		heights[ImageRow(r)] = l.RowHeight - cfg.CaptionHeight
		heights[CaptionRow(r)] = cfg.CaptionHeight
	}
	for row, h := range heights {
		if err := f.SetRowHeight(SheetName, row, h); err != nil {
			return fmt.Errorf("failed to set height of row %d: %w", row, err)
		}
	}

	return nil
}

func writeHeader(f *excelize.File, l layout.Layout, st styles) error {
	last, _ := excelize.ColumnNumberToName(l.Columns)

	titleEnd := fmt.Sprintf("%s%d", last, titleRow)
	if err := f.SetCellValue(SheetName, "A1", l.TitleText); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}
	if l.Columns > 1 {
		if err := f.MergeCell(SheetName, "A1", titleEnd); err != nil {
			return fmt.Errorf("failed to merge title: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", titleEnd, st.title); err != nil {
		return fmt.Errorf("failed to style title: %w", err)
	}

	if l.Columns == 1 {
		if err := f.SetCellValue(SheetName, "A2", l.Meta.LabelText+": "+l.Meta.ValueText); err != nil {
			return fmt.Errorf("failed to write site address: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "A2", "A2", st.value); err != nil {
			return fmt.Errorf("failed to style site address: %w", err)
		}
		return nil
	}

	if err := f.SetCellValue(SheetName, "A2", l.Meta.LabelText); err != nil {
		return fmt.Errorf("failed to write meta label: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A2", "A2", st.label); err != nil {
		return fmt.Errorf("failed to style meta label: %w", err)
	}

	valueEnd := fmt.Sprintf("%s%d", last, metaRow)
	if err := f.SetCellValue(SheetName, "B2", l.Meta.ValueText); err != nil {
		return fmt.Errorf("failed to write site address: %w", err)
	}
	if valueEnd != "B2" {
		if err := f.MergeCell(SheetName, "B2", valueEnd); err != nil {
			return fmt.Errorf("failed to merge site address: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "B2", valueEnd, st.value); err != nil {
		return fmt.Errorf("failed to style site address: %w", err)
	}

	return nil
}

func writeCell(f *excelize.File, spec models.DocumentSpec, cell layout.Cell, cfg layout.Config, st styles) error {
	if cell.Kind == layout.CellFiller {
		return nil
	}

	imageCell, _ := excelize.CoordinatesToCellName(cell.Column+1, ImageRow(cell.Row))
	captionCell, _ := excelize.CoordinatesToCellName(cell.Column+1, CaptionRow(cell.Row))

	switch cell.Kind {
	case layout.CellPhoto:
		if err := f.SetCellStyle(SheetName, imageCell, imageCell, st.photo); err != nil {
			return fmt.Errorf("failed to style %s: %w", imageCell, err)
		}
		if err := addPhoto(f, spec.Entries[cell.EntryIndex], cell, imageCell, cfg); err != nil {
			return err
		}
	case layout.CellPlaceholder:
		if err := f.SetCellValue(SheetName, imageCell, layout.PlaceholderText); err != nil {
			return fmt.Errorf("failed to write %s: %w", imageCell, err)
		}
		if err := f.SetCellStyle(SheetName, imageCell, imageCell, st.placeholder); err != nil {
			return fmt.Errorf("failed to style %s: %w", imageCell, err)
		}
	}

	if err := f.SetCellValue(SheetName, captionCell, cell.Label); err != nil {
		return fmt.Errorf("failed to write %s: %w", captionCell, err)
	}
	if err := f.SetCellStyle(SheetName, captionCell, captionCell, st.caption); err != nil {
		return fmt.Errorf("failed to style %s: %w", captionCell, err)
	}

	return nil
}

func addPhoto(f *excelize.File, entry models.PhotoEntry, cell layout.Cell, anchor string, cfg layout.Config) error {
	prepared := normalize.PrepareForLayout(entry.Image, cfg.TargetAspectRatio, cfg.MaxImagePixels)
	data, err := normalize.Encode(prepared, cfg.JPEGQuality)
	if err != nil {
		return fmt.Errorf("failed to prepare photo %d (%s): %w", cell.EntryIndex, cell.Label, err)
	}

	srcW := float64(prepared.Bounds().Dx())
	srcH := float64(prepared.Bounds().Dy())

	err = f.AddPictureFromBytes(SheetName, anchor, &excelize.Picture{
		Extension: ".jpg",
		File:      data,
		Format: &excelize.GraphicOptions{
			AltText:         cell.Label,
			ScaleX:          ptToPx(cell.Image.W) / srcW,
			ScaleY:          ptToPx(cell.Image.H) / srcH,
			OffsetX:         int(ptToPx(cell.Image.X - cell.Frame.X)),
			OffsetY:         int(ptToPx(cell.Image.Y - cell.Frame.Y)),
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to embed photo %d (%s): %w", cell.EntryIndex, cell.Label, err)
	}

	return nil
}

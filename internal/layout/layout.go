// Package layout computes the geometry of the site photo form: a title, a
// one-row metadata table and an N-column grid of photo cells. It is pure;
// the same spec and config always give the same rectangles.
package layout

import (
	"github.com/lehigh-university-libraries/photoform/internal/models"
)

// Rect is an axis-aligned box in points, origin at the top-left of the page
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Inset shrinks r by d on every side
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// Bottom returns the y coordinate of the lower edge
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// CellKind tells the renderer what to draw in a grid slot
type CellKind int

const (
	CellPhoto CellKind = iota
	CellPlaceholder
	CellFiller
)

func (k CellKind) String() string {
	switch k {
	case CellPhoto:
		return "photo"
	case CellPlaceholder:
		return "placeholder"
	default:
		return "filler"
	}
}

func (k CellKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Cell is one grid slot
type Cell struct {
	Kind CellKind `yaml:"kind"`
	// EntryIndex points into DocumentSpec.Entries; -1 for fillers
	EntryIndex int    `yaml:"entry_index"`
	Label      string `yaml:"label,omitempty"`
	Page       int    `yaml:"page"`
	Row        int    `yaml:"row"`
	Column     int    `yaml:"column"`
	// Frame is the full grid slot, Box the bordered area inside the padding
	Frame   Rect `yaml:"frame"`
	Box     Rect `yaml:"box"`
	Image   Rect `yaml:"image,omitempty"`
	Caption Rect `yaml:"caption"`
}

// MetaRow is the two-cell "Site Address" table
type MetaRow struct {
	Box       Rect   `yaml:"box"`
	Label     Rect   `yaml:"label"`
	Value     Rect   `yaml:"value"`
	LabelText string `yaml:"label_text"`
	ValueText string `yaml:"value_text"`
}

// MetaLabel is the fixed caption of the metadata row
const MetaLabel = "Site Address"

// PlaceholderText is drawn in cells whose entry has no photo
const PlaceholderText = "(no photo)"

// Layout is the computed geometry of one document
type Layout struct {
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`
	Pages      int     `yaml:"pages"`
	Title      Rect    `yaml:"title"`
	TitleText  string  `yaml:"title_text"`
	Meta       MetaRow `yaml:"meta"`
	GridTop    float64 `yaml:"grid_top"`
	Columns    int     `yaml:"columns"`
	Rows       int     `yaml:"rows"`
	RowHeight  float64 `yaml:"row_height"`
	Cells      []Cell  `yaml:"cells"`
}

type slot struct {
	kind  CellKind
	index int
	label string
}

// Compute lays out spec. Entries past cfg.MaxEntries are dropped, keeping
// the first ones in order. An empty spec yields a title and meta row only.
func Compute(spec models.DocumentSpec, cfg Config) Layout {
	usable := cfg.UsableWidth()

	l := Layout{
		PageWidth:  cfg.PageWidth,
		PageHeight: cfg.PageHeight,
		Pages:      1,
		TitleText:  spec.Title,
		Columns:    cfg.Columns,
	}

	y := cfg.Margin
	l.Title = Rect{X: cfg.Margin, Y: y, W: usable, H: cfg.TitleHeight}
	y += cfg.TitleHeight + cfg.TitleSpacing

	l.Meta = MetaRow{
		Box:       Rect{X: cfg.Margin, Y: y, W: usable, H: cfg.MetaHeight},
		Label:     Rect{X: cfg.Margin, Y: y, W: cfg.MetaLabelWidth, H: cfg.MetaHeight},
		Value:     Rect{X: cfg.Margin + cfg.MetaLabelWidth, Y: y, W: usable - cfg.MetaLabelWidth, H: cfg.MetaHeight},
		LabelText: MetaLabel,
		ValueText: spec.SiteAddressOrDash(),
	}
	y += cfg.MetaHeight + cfg.MetaSpacing
	l.GridTop = y

	slots := collectSlots(spec.Entries, cfg)
	if len(slots) == 0 {
		return l
	}

	l.Rows = (len(slots) + cfg.Columns - 1) / cfg.Columns
	l.RowHeight = cfg.RowHeight(l.Rows)

	colW := cfg.ColumnWidth()
	pageBottom := cfg.PageHeight - cfg.Margin
	page := 0
	rowTop := l.GridTop
	rowsOnPage := 0

	l.Cells = make([]Cell, 0, len(slots))
	for i, s := range slots {
		row := i / cfg.Columns
		col := i % cfg.Columns

		if col == 0 && row > 0 {
			rowTop += l.RowHeight
			if rowTop+l.RowHeight > pageBottom && rowsOnPage > 0 {
				page++
				rowTop = cfg.Margin
				rowsOnPage = 0
			}
		}
		if col == 0 {
			rowsOnPage++
		}

		frame := Rect{X: cfg.Margin + float64(col)*colW, Y: rowTop, W: colW, H: l.RowHeight}
		cell := Cell{
			Kind:       s.kind,
			EntryIndex: s.index,
			Label:      s.label,
			Page:       page,
			Row:        row,
			Column:     col,
			Frame:      frame,
			Box:        frame.Inset(cfg.CellPadding),
		}
		cell.Caption = Rect{
			X: cell.Box.X,
			Y: cell.Box.Bottom() - cfg.CaptionHeight,
			W: cell.Box.W,
			H: cfg.CaptionHeight,
		}
		if s.kind == CellPhoto {
			cell.Image = fitImage(cell, colW, l.RowHeight, cfg)
		}

		l.Cells = append(l.Cells, cell)
	}
	l.Pages = page + 1

	return l
}

func collectSlots(entries []models.PhotoEntry, cfg Config) []slot {
	if cfg.MaxEntries >= 0 && len(entries) > cfg.MaxEntries {
		entries = entries[:cfg.MaxEntries]
	}

	slots := make([]slot, 0, len(entries)+cfg.Columns)
	for i, entry := range entries {
		switch {
		case entry.HasImage():
			slots = append(slots, slot{kind: CellPhoto, index: i, label: entry.Label.Display()})
		case cfg.EmptySlotPolicy == Placeholder:
			slots = append(slots, slot{kind: CellPlaceholder, index: i, label: entry.Label.Display()})
		}
	}

	if cfg.EmptySlotPolicy == Placeholder {
		for len(slots)%cfg.Columns != 0 {
			slots = append(slots, slot{kind: CellFiller, index: -1})
		}
	}

	return slots
}

// fitImage sizes the photo at the target ratio inside the area above the
// caption: width-constrained first, height-constrained if that overflows.
func fitImage(cell Cell, colW, rowH float64, cfg Config) Rect {
	maxW := colW - cfg.ImageInset
	maxH := rowH - cfg.CaptionHeight - cfg.ImageInset

	w := maxW
	h := w / cfg.TargetAspectRatio
	if h > maxH {
		h = maxH
		w = h * cfg.TargetAspectRatio
	}

	area := Rect{X: cell.Box.X, Y: cell.Box.Y, W: cell.Box.W, H: cell.Box.H - cfg.CaptionHeight}
	return Rect{
		X: area.X + (area.W-w)/2,
		Y: area.Y + (area.H-h)/2,
		W: w,
		H: h,
	}
}

// Count returns how many cells of kind the layout holds
func (l Layout) Count(kind CellKind) int {
	n := 0
	for _, c := range l.Cells {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Row returns the cells of grid row r, left to right
func (l Layout) Row(r int) []Cell {
	var cells []Cell
	for _, c := range l.Cells {
		if c.Row == r {
			cells = append(cells, c)
		}
	}
	return cells
}

// PageCells returns the cells placed on page p
func (l Layout) PageCells(p int) []Cell {
	var cells []Cell
	for _, c := range l.Cells {
		if c.Page == p {
			cells = append(cells, c)
		}
	}
	return cells
}

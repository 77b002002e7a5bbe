// Package layout maps record placements onto output pages.
//
// Output space has its origin at the bottom-left corner of the page, the
// convention of PDF user space. Design space (where placements are authored)
// has its origin at the top-left. Standard layouts flip the vertical axis
// between the two; grid layouts add design offsets to the cell origin as is.
package layout

import (
	"fmt"
	"math"

	"github.com/goliatone/go-docfill/pkg/model"
)

const (
	// MaxColumns caps the number of grid columns.
	MaxColumns = 5
	// MinCellSize is the smallest cell edge, in points, a grid can produce.
	MinCellSize = 10.0
)

// Slot is the position of one record on the output.
type Slot struct {
	// Record is the global record index.
	Record int
	// Page is the zero-based page index.
	Page int
	// Index is the position of the record on its page.
	Index int
	Col   int
	Row   int
	// Cell is the area assigned to the record in output space. Standard
	// layouts assign the whole page.
	Cell model.Rect
}

// Origin returns the cell origin.
func (s Slot) Origin() model.Point {
	return s.Cell.Origin()
}

// Engine computes page geometry for one layout configuration. An Engine is
// immutable once built.
type Engine struct {
	cfg     model.LayoutConfig
	perPage int
	cols    int
	rows    int
	cell    model.Size
}

// New validates cfg and precomputes grid geometry.
func New(cfg model.LayoutConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = model.ModeStandard
	}

	e := &Engine{cfg: cfg, perPage: cfg.PerPage(), cols: 1, rows: 1}
	if cfg.Mode != model.ModeGrid {
		e.cell = cfg.PageSize()
		return e, nil
	}

	e.cols, e.rows = Dimensions(cfg.ItemsPerPage)
	e.cell = model.Size{
		Width:  math.Max(MinCellSize, (cfg.PageWidth-2*cfg.MarginX)/float64(e.cols)),
		Height: math.Max(MinCellSize, (cfg.PageHeight-2*cfg.MarginY)/float64(e.rows)),
	}
	return e, nil
}

// MustNew panics when New fails.
func MustNew(cfg model.LayoutConfig) *Engine {
	e, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Dimensions returns the grid columns and rows for itemsPerPage. Columns
// equal itemsPerPage below MaxColumns and are fixed at MaxColumns otherwise,
// so grids such as 6 per page leave cells unused.
func Dimensions(itemsPerPage int) (cols, rows int) {
	if itemsPerPage < 1 {
		itemsPerPage = 1
	}
	cols = itemsPerPage
	if cols >= MaxColumns {
		cols = MaxColumns
	}
	rows = (itemsPerPage + cols - 1) / cols
	return cols, rows
}

// Config returns the layout configuration.
func (e *Engine) Config() model.LayoutConfig { return e.cfg }

// Mode returns the layout mode.
func (e *Engine) Mode() model.LayoutMode { return e.cfg.Mode }

// PerPage returns the number of records per page.
func (e *Engine) PerPage() int { return e.perPage }

// Columns returns the grid column count (1 for standard layouts).
func (e *Engine) Columns() int { return e.cols }

// Rows returns the grid row count (1 for standard layouts).
func (e *Engine) Rows() int { return e.rows }

// CellSize returns the size of a grid cell, or the page for standard layouts.
func (e *Engine) CellSize() model.Size { return e.cell }

// PageSize returns the page dimensions.
func (e *Engine) PageSize() model.Size { return e.cfg.PageSize() }

// Page returns the page index holding record i.
func (e *Engine) Page(i int) int {
	return i / e.perPage
}

// StartsPage reports whether record i begins a new page after the first.
func (e *Engine) StartsPage(i int) bool {
	return i > 0 && i%e.perPage == 0
}

// Pages returns how many pages n records occupy.
func (e *Engine) Pages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + e.perPage - 1) / e.perPage
}

// Slot returns the geometry for record i.
func (e *Engine) Slot(i int) Slot {
	s := Slot{Record: i, Page: e.Page(i), Index: i % e.perPage}
	if e.cfg.Mode != model.ModeGrid {
		s.Cell = model.Rect{Width: e.cfg.PageWidth, Height: e.cfg.PageHeight}
		return s
	}

	s.Col = s.Index % e.cols
	s.Row = (s.Index / e.cols) % e.rows
	s.Cell = model.Rect{
		X:      e.cfg.MarginX + float64(s.Col)*e.cell.Width,
		Y:      e.cfg.MarginY + float64(s.Row)*e.cell.Height,
		Width:  e.cell.Width,
		Height: e.cell.Height,
	}
	return s
}

// Place returns the output-space anchor of placement p for record i.
func (e *Engine) Place(i int, p model.FieldPlacement) model.Point {
	return e.PlaceAt(e.Slot(i), p)
}

// PlaceAt is Place for a precomputed slot.
func (e *Engine) PlaceAt(s Slot, p model.FieldPlacement) model.Point {
	if e.cfg.Mode != model.ModeGrid {
		return model.Point{X: p.X, Y: e.cfg.PageHeight - p.Y}
	}
	return s.Origin().Add(model.Point{X: p.X, Y: p.Y})
}

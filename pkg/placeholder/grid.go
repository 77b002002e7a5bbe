package placeholder

import (
	"fmt"
	"sort"
)

// Cell is a text-bearing cell. Row and Col are zero based.
type Cell struct {
	Row  int
	Col  int
	Text string
}

// Region is an inclusive rectangle of merged cells; (Top, Left) is the
// anchor that holds the region's content.
type Region struct {
	Top    int
	Left   int
	Bottom int
	Right  int
}

// Contains reports whether (row, col) lies inside the region.
func (r Region) Contains(row, col int) bool {
	return row >= r.Top && row <= r.Bottom && col >= r.Left && col <= r.Right
}

// IsAnchor reports whether (row, col) is the region's top-left cell.
func (r Region) IsAnchor(row, col int) bool {
	return row == r.Top && col == r.Left
}

// Grid is a cell-oriented document surface such as a worksheet.
type Grid interface {
	// Cells returns the text-bearing cells in row-major order.
	Cells() ([]Cell, error)
	MergedRegions() ([]Region, error)
	SetCell(row, col int, text string) error
}

// MemoryGrid is an in-memory Grid.
type MemoryGrid struct {
	cells  map[[2]int]string
	merged []Region
}

var _ Grid = (*MemoryGrid)(nil)

// NewMemoryGrid builds a grid from rows of cell text.
func NewMemoryGrid(rows [][]string, merged ...Region) *MemoryGrid {
	g := &MemoryGrid{cells: make(map[[2]int]string), merged: append([]Region(nil), merged...)}
	for r, row := range rows {
		for c, text := range row {
			if text != "" {
				g.cells[[2]int{r, c}] = text
			}
		}
	}
	return g
}

// Cells implements Grid.
func (g *MemoryGrid) Cells() ([]Cell, error) {
	out := make([]Cell, 0, len(g.cells))
	for pos, text := range g.cells {
		out = append(out, Cell{Row: pos[0], Col: pos[1], Text: text})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}

// MergedRegions implements Grid.
func (g *MemoryGrid) MergedRegions() ([]Region, error) {
	return append([]Region(nil), g.merged...), nil
}

// SetCell implements Grid.
func (g *MemoryGrid) SetCell(row, col int, text string) error {
	if row < 0 || col < 0 {
		return fmt.Errorf("placeholder: invalid cell %d,%d", row, col)
	}
	if text == "" {
		delete(g.cells, [2]int{row, col})
		return nil
	}
	g.cells[[2]int{row, col}] = text
	return nil
}

// Text returns the text at (row, col).
func (g *MemoryGrid) Text(row, col int) string {
	return g.cells[[2]int{row, col}]
}

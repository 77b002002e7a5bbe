// Package xlsx adapts spreadsheet templates to the placeholder resolver.
// A Workbook wraps one opened copy of a template; its active sheet is
// exposed as a placeholder.Grid and the filled copy is written with Write.
package xlsx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-docfill/pkg/placeholder"
)

// Extension is the output extension of filled workbooks.
const Extension = ".xlsx"

// Workbook is an opened spreadsheet template.
type Workbook struct {
	file  *excelize.File
	sheet string
}

// Open loads the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open %s: %w", filepath.Base(path), err)
	}
	return wrap(f)
}

// OpenReader loads a workbook from r.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w", err)
	}
	return wrap(f)
}

func wrap(f *excelize.File) (*Workbook, error) {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("xlsx: workbook has no sheets")
		}
		sheet = list[0]
	}
	return &Workbook{file: f, sheet: sheet}, nil
}

// Sheet returns the name of the active sheet.
func (w *Workbook) Sheet() string {
	return w.sheet
}

// Grid exposes the active sheet to the placeholder resolver.
func (w *Workbook) Grid() placeholder.Grid {
	return &sheetGrid{file: w.file, sheet: w.sheet}
}

// Write serialises the workbook.
func (w *Workbook) Write(out io.Writer) error {
	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("xlsx: create %s: %w", path, err)
	}
	if err := w.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Close releases the workbook's temporary resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

type sheetGrid struct {
	file  *excelize.File
	sheet string
}

var _ placeholder.Grid = (*sheetGrid)(nil)

func (g *sheetGrid) Cells() ([]placeholder.Cell, error) {
	rows, err := g.file.GetRows(g.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read rows: %w", err)
	}
	var cells []placeholder.Cell
	for r, row := range rows {
		for c, text := range row {
			if text == "" {
				continue
			}
			cells = append(cells, placeholder.Cell{Row: r, Col: c, Text: text})
		}
	}
	return cells, nil
}

func (g *sheetGrid) MergedRegions() ([]placeholder.Region, error) {
	merged, err := g.file.GetMergeCells(g.sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: read merged cells: %w", err)
	}
	regions := make([]placeholder.Region, 0, len(merged))
	for _, m := range merged {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("xlsx: merged range start: %w", err)
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("xlsx: merged range end: %w", err)
		}
		regions = append(regions, placeholder.Region{
			Top:    startRow - 1,
			Left:   startCol - 1,
			Bottom: endRow - 1,
			Right:  endCol - 1,
		})
	}
	return regions, nil
}

func (g *sheetGrid) SetCell(row, col int, text string) error {
	addr, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	return g.file.SetCellStr(g.sheet, addr, text)
}

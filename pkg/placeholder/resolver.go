package placeholder

import (
	"fmt"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Stats summarises one Fill call.
type Stats struct {
	// Cells is the number of cells rewritten.
	Cells int
	// Tokens is the number of token occurrences substituted.
	Tokens int
	// Unmapped lists tokens without a mapping, in discovery order, once each.
	Unmapped []string
	// Missing lists mapped fields absent from the record, once each.
	Missing []string
}

// contentCells returns the cells that hold real content: every cell outside
// merged regions plus the anchor of each merged region.
func contentCells(grid Grid) ([]Cell, error) {
	cells, err := grid.Cells()
	if err != nil {
		return nil, fmt.Errorf("placeholder: read cells: %w", err)
	}
	regions, err := grid.MergedRegions()
	if err != nil {
		return nil, fmt.Errorf("placeholder: read merged regions: %w", err)
	}
	if len(regions) == 0 {
		return cells, nil
	}

	out := cells[:0:0]
	for _, cell := range cells {
		if shadowed(regions, cell.Row, cell.Col) {
			continue
		}
		out = append(out, cell)
	}
	return out, nil
}

func shadowed(regions []Region, row, col int) bool {
	for _, r := range regions {
		if r.Contains(row, col) && !r.IsAnchor(row, col) {
			return true
		}
	}
	return false
}

// Discover returns the unique token names in grid in row-major discovery
// order. Non-anchor members of merged regions are skipped.
func Discover(grid Grid) ([]string, error) {
	cells, err := contentCells(grid)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var tokens []string
	for _, cell := range cells {
		for _, name := range Names(cell.Text) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			tokens = append(tokens, name)
		}
	}
	return tokens, nil
}

// Fill substitutes the tokens of every content cell using mapping and a
// single record. Unmapped tokens and mapped fields missing from the record
// resolve to "". Only cells whose text changes are written back.
func Fill(grid Grid, mapping model.MappingTable, record model.Record) (Stats, error) {
	var stats Stats
	cells, err := contentCells(grid)
	if err != nil {
		return stats, err
	}

	unmapped := make(map[string]struct{})
	missing := make(map[string]struct{})
	resolve := func(name string) string {
		field, ok := mapping.Lookup(name)
		if !ok {
			if _, seen := unmapped[name]; !seen {
				unmapped[name] = struct{}{}
				stats.Unmapped = append(stats.Unmapped, name)
			}
			return ""
		}
		value, ok := record[field]
		if !ok {
			if _, seen := missing[field]; !seen {
				missing[field] = struct{}{}
				stats.Missing = append(stats.Missing, field)
			}
			return ""
		}
		return value
	}

	for _, cell := range cells {
		out, n := Replace(cell.Text, resolve)
		if n == 0 {
			continue
		}
		stats.Tokens += n
		if out == cell.Text {
			continue
		}
		if err := grid.SetCell(cell.Row, cell.Col, out); err != nil {
			return stats, fmt.Errorf("placeholder: write cell %d,%d: %w", cell.Row, cell.Col, err)
		}
		stats.Cells++
	}
	return stats, nil
}

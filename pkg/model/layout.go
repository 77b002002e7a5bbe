package model

import (
	"errors"
	"fmt"
)

// LayoutMode selects how records are arranged on output pages.
type LayoutMode string

const (
	// ModeStandard renders one record per page.
	ModeStandard LayoutMode = "standard"
	// ModeGrid arranges several records per page in a label grid.
	ModeGrid LayoutMode = "grid"
)

// Page sizes in points.
var (
	PageA4     = Size{Width: 595.2755905511812, Height: 841.8897637795277}
	PageLetter = Size{Width: 612, Height: 792}
)

// Grid defaults used when a label layout omits them.
const (
	DefaultItemsPerPage = 5
	DefaultMarginMM     = 10.0
)

// MM converts millimetres to points.
func MM(v float64) float64 {
	return v * 72 / 25.4
}

// LayoutConfig describes page geometry for a canvas render. All lengths are
// in points.
type LayoutConfig struct {
	Mode         LayoutMode `json:"mode" yaml:"mode"`
	ItemsPerPage int        `json:"items_per_page,omitempty" yaml:"items_per_page,omitempty"`
	PageWidth    float64    `json:"page_width" yaml:"page_width"`
	PageHeight   float64    `json:"page_height" yaml:"page_height"`
	MarginX      float64    `json:"margin_x" yaml:"margin_x"`
	MarginY      float64    `json:"margin_y" yaml:"margin_y"`
}

// StandardLayout returns a one-record-per-page layout for the page size.
func StandardLayout(page Size) LayoutConfig {
	return LayoutConfig{Mode: ModeStandard, ItemsPerPage: 1, PageWidth: page.Width, PageHeight: page.Height}
}

// GridLayout returns a label layout with margins given in millimetres.
func GridLayout(page Size, itemsPerPage int, marginXMM, marginYMM float64) LayoutConfig {
	return LayoutConfig{
		Mode:         ModeGrid,
		ItemsPerPage: itemsPerPage,
		PageWidth:    page.Width,
		PageHeight:   page.Height,
		MarginX:      MM(marginXMM),
		MarginY:      MM(marginYMM),
	}
}

// Validate reports configurations the layout engine cannot place.
func (c LayoutConfig) Validate() error {
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return fmt.Errorf("model: page size must be positive (got %gx%g)", c.PageWidth, c.PageHeight)
	}
	if c.MarginX < 0 || c.MarginY < 0 {
		return errors.New("model: margins must be non-negative")
	}
	switch c.Mode {
	case ModeStandard, "":
		return nil
	case ModeGrid:
		if c.ItemsPerPage < 1 {
			return fmt.Errorf("model: grid layout requires items per page >= 1 (got %d)", c.ItemsPerPage)
		}
		return nil
	default:
		return fmt.Errorf("model: unknown layout mode %q", c.Mode)
	}
}

// PerPage returns the number of records placed on one page.
func (c LayoutConfig) PerPage() int {
	if c.Mode == ModeGrid && c.ItemsPerPage > 0 {
		return c.ItemsPerPage
	}
	return 1
}

// PageSize returns the page dimensions.
func (c LayoutConfig) PageSize() Size {
	return Size{Width: c.PageWidth, Height: c.PageHeight}
}

package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placement defaults mirror the designer's initial field style.
const (
	DefaultFont     = "Arial"
	DefaultFontSize = 12.0
	MinFontSize     = 8.0
	MaxFontSize     = 72.0
)

// ErrPlacementNotFound is returned by canvas edit operations that reference
// an unknown placement id.
var ErrPlacementNotFound = errors.New("model: placement not found")

// FieldPlacement binds one slot on a canvas template to a data field. X/Y are
// design coordinates (origin top-left) relative to the canvas, or to a single
// label cell in grid layouts.
type FieldPlacement struct {
	ID       string  `json:"id" yaml:"id"`
	Field    string  `json:"field,omitempty" yaml:"field,omitempty"`
	Token    string  `json:"text" yaml:"text"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Font     string  `json:"font" yaml:"font"`
	FontSize float64 `json:"size" yaml:"size"`
	Color    RGB     `json:"color" yaml:"color"`
}

// Style groups the presentational attributes edited together.
type Style struct {
	Font     string
	FontSize float64
	Color    RGB
}

// SourceField resolves the data field this placement reads. An explicit
// Field wins; otherwise the token is looked up in the mapping table. The
// empty string means unmapped.
func (p FieldPlacement) SourceField(mapping MappingTable) string {
	if f := strings.TrimSpace(p.Field); f != "" {
		return f
	}
	if field, ok := mapping.Lookup(p.Token); ok {
		return field
	}
	return ""
}

func (p *FieldPlacement) applyDefaults() {
	if strings.TrimSpace(p.Font) == "" {
		p.Font = DefaultFont
	}
	if p.FontSize <= 0 {
		p.FontSize = DefaultFontSize
	}
}

// CanvasTemplate is an ordered collection of placements plus an optional
// background image. Width/Height describe the design surface; when zero the
// placements are only clamped to be non-negative.
type CanvasTemplate struct {
	Width      float64          `json:"width,omitempty" yaml:"width,omitempty"`
	Height     float64          `json:"height,omitempty" yaml:"height,omitempty"`
	Background string           `json:"background,omitempty" yaml:"background,omitempty"`
	Placements []FieldPlacement `json:"fields" yaml:"fields"`
}

// Clone returns a deep copy.
func (c *CanvasTemplate) Clone() *CanvasTemplate {
	if c == nil {
		return nil
	}
	out := *c
	out.Placements = append([]FieldPlacement(nil), c.Placements...)
	return &out
}

// Normalize applies style defaults and clamps every placement.
func (c *CanvasTemplate) Normalize() {
	for i := range c.Placements {
		c.Placements[i].applyDefaults()
		c.clamp(&c.Placements[i])
		if c.Placements[i].ID == "" {
			c.Placements[i].ID = c.nextID()
		}
	}
}

// Placement returns the placement with the supplied id.
func (c *CanvasTemplate) Placement(id string) (FieldPlacement, bool) {
	idx := c.index(id)
	if idx < 0 {
		return FieldPlacement{}, false
	}
	return c.Placements[idx], true
}

// Add appends a placement, assigning an id when missing, and returns the id.
func (c *CanvasTemplate) Add(p FieldPlacement) string {
	p.applyDefaults()
	if p.ID == "" || c.index(p.ID) >= 0 {
		p.ID = c.nextID()
	}
	c.clamp(&p)
	c.Placements = append(c.Placements, p)
	return p.ID
}

// Move repositions a placement, clamping it inside the canvas.
func (c *CanvasTemplate) Move(id string, x, y float64) error {
	idx := c.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrPlacementNotFound, id)
	}
	p := &c.Placements[idx]
	p.X, p.Y = x, y
	c.clamp(p)
	return nil
}

// Resize changes a placement's size, clamping size and position.
func (c *CanvasTemplate) Resize(id string, width, height float64) error {
	idx := c.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrPlacementNotFound, id)
	}
	p := &c.Placements[idx]
	p.Width, p.Height = width, height
	c.clamp(p)
	return nil
}

// Restyle updates font, size, and colour. Font sizes are clamped to the
// designer's [MinFontSize, MaxFontSize] range; an empty font keeps the
// current family.
func (c *CanvasTemplate) Restyle(id string, style Style) error {
	idx := c.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrPlacementNotFound, id)
	}
	p := &c.Placements[idx]
	if f := strings.TrimSpace(style.Font); f != "" {
		p.Font = f
	}
	if style.FontSize > 0 {
		p.FontSize = math.Min(MaxFontSize, math.Max(MinFontSize, style.FontSize))
	}
	p.Color = style.Color
	return nil
}

// Remove deletes a placement.
func (c *CanvasTemplate) Remove(id string) error {
	idx := c.index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrPlacementNotFound, id)
	}
	c.Placements = append(c.Placements[:idx], c.Placements[idx+1:]...)
	return nil
}

// Clear removes every placement and the background.
func (c *CanvasTemplate) Clear() {
	c.Placements = nil
	c.Background = ""
}

func (c *CanvasTemplate) index(id string) int {
	for i := range c.Placements {
		if c.Placements[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *CanvasTemplate) nextID() string {
	highest := 0
	for _, p := range c.Placements {
		if n, err := strconv.Atoi(strings.TrimPrefix(p.ID, "f")); err == nil && n > highest {
			highest = n
		}
	}
	return "f" + strconv.Itoa(highest+1)
}

func (c *CanvasTemplate) clamp(p *FieldPlacement) {
	p.Width = math.Max(0, p.Width)
	p.Height = math.Max(0, p.Height)
	if c.Width > 0 {
		p.Width = math.Min(p.Width, c.Width)
		p.X = math.Min(p.X, c.Width-p.Width)
	}
	if c.Height > 0 {
		p.Height = math.Min(p.Height, c.Height)
		p.Y = math.Min(p.Y, c.Height-p.Height)
	}
	p.X = math.Max(0, p.X)
	p.Y = math.Max(0, p.Y)
}

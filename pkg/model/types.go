package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit per channel colour.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Black is the default text colour.
var Black = RGB{}

// Red is used for field error markers.
var Red = RGB{R: 0xFF}

// ParseRGB parses "#RRGGBB" or "#RGB". The leading hash is optional.
func ParseRGB(raw string) (RGB, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("model: invalid colour %q", raw)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("model: invalid colour %q: %w", raw, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustParseRGB panics on invalid input. Intended for constants and tests.
func MustParseRGB(raw string) RGB {
	c, err := ParseRGB(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders the colour as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler so colours persist as hex
// strings, matching the designer's saved template format.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RGB) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*c = Black
		return nil
	}
	parsed, err := ParseRGB(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Point is a position in points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Size is a width/height pair in points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle anchored at its origin corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the anchor corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

package model

import (
	"encoding/json"
	"fmt"
)

type legacyField struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Font   string  `json:"font"`
	Size   float64 `json:"size"`
	Color  string  `json:"color"`
}

type legacyCanvas struct {
	Fields []legacyField `json:"fields"`
}

// ParseLegacyCanvas reads the designer's saved-template JSON
// ({"fields":[{"text","x","y","font","size","color",...}]}). The designer
// dropped schema field names onto the canvas, so text is both the token and
// the source field.
func ParseLegacyCanvas(data []byte) (*CanvasTemplate, error) {
	var raw legacyCanvas
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: parse canvas: %w", err)
	}
	canvas := &CanvasTemplate{}
	for _, f := range raw.Fields {
		color := Black
		if f.Color != "" {
			parsed, err := ParseRGB(f.Color)
			if err != nil {
				return nil, err
			}
			color = parsed
		}
		canvas.Add(FieldPlacement{
			Field:    f.Text,
			Token:    f.Text,
			X:        f.X,
			Y:        f.Y,
			Width:    f.Width,
			Height:   f.Height,
			Font:     f.Font,
			FontSize: f.Size,
			Color:    color,
		})
	}
	return canvas, nil
}

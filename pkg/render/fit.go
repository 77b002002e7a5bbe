package render

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/goliatone/go-docfill/pkg/model"
)

// FitRect scales an image of size img into box, preserving its aspect ratio,
// and centres it.
func FitRect(img model.Size, box model.Rect) model.Rect {
	if img.Width <= 0 || img.Height <= 0 || box.Empty() {
		return box
	}
	scale := box.Width / img.Width
	if s := box.Height / img.Height; s < scale {
		scale = s
	}
	w := img.Width * scale
	h := img.Height * scale
	return model.Rect{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// ProbeImage reads the dimensions of the image at path without decoding the
// pixel data. PNG, JPEG, and GIF are recognised.
func ProbeImage(path string) (model.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return model.Size{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return model.Size{}, fmt.Errorf("image %s has no area", path)
	}
	return model.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, nil
}

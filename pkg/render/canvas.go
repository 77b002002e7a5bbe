package render

import (
	"io"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Canvas is a page backend. Coordinates are in points with the origin at the
// bottom-left corner of the current page; text is anchored at its baseline.
type Canvas interface {
	AddPage() error
	// RegisterFont makes a font file available under family. Backends that
	// cannot load the file return an error and stay usable.
	RegisterFont(family, path string) error
	HasFont(family string) bool
	SetFont(family string, size float64) error
	SetColor(c model.RGB)
	Text(x, y float64, text string) error
	// Image draws the image at path into r, stretched to r.
	Image(path string, r model.Rect) error
	Save(w io.Writer) error
}

// CanvasFactory creates canvases for one backend.
type CanvasFactory interface {
	Name() string
	// Extension is the output file extension, including the dot.
	Extension() string
	ContentType() string
	NewCanvas(page model.Size) (Canvas, error)
}

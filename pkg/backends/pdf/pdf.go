// Package pdf is the PDF page backend, built on gofpdf.
//
// The canvas accepts bottom-left output coordinates and converts them to
// gofpdf's top-left space. Documents are written deterministically: objects
// are sorted and the creation and modification dates are fixed, so the same
// input always yields the same bytes.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/render"
)

// Name is the registry name of the backend.
const Name = "pdf"

// DefaultTimestamp is stamped into every document unless overridden.
var DefaultTimestamp = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var coreFamilies = map[string]bool{
	"helvetica":    true,
	"times":        true,
	"courier":      true,
	"symbol":       true,
	"zapfdingbats": true,
}

// Option configures the factory.
type Option func(*Factory)

// WithTimestamp overrides the fixed document dates.
func WithTimestamp(ts time.Time) Option {
	return func(f *Factory) {
		f.timestamp = ts
	}
}

// WithCompression toggles stream compression.
func WithCompression(enabled bool) Option {
	return func(f *Factory) {
		f.compress = enabled
	}
}

// Factory creates PDF canvases.
type Factory struct {
	timestamp time.Time
	compress  bool
}

var _ render.CanvasFactory = (*Factory)(nil)

// New constructs a Factory.
func New(opts ...Option) *Factory {
	f := &Factory{timestamp: DefaultTimestamp, compress: true}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Name implements render.CanvasFactory.
func (f *Factory) Name() string { return Name }

// Extension implements render.CanvasFactory.
func (f *Factory) Extension() string { return ".pdf" }

// ContentType implements render.CanvasFactory.
func (f *Factory) ContentType() string { return "application/pdf" }

// NewCanvas implements render.CanvasFactory.
func (f *Factory) NewCanvas(page model.Size) (render.Canvas, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("pdf: invalid page size %gx%g", page.Width, page.Height)
	}
	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.SetCompression(f.compress)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(f.timestamp)
	doc.SetModificationDate(f.timestamp)
	doc.SetProducer("docfill", true)

	return &Canvas{
		doc:       doc,
		page:      page,
		fonts:     make(map[string]bool),
		translate: doc.UnicodeTranslatorFromDescriptor(""),
	}, nil
}

// Canvas is a render.Canvas writing a PDF document.
type Canvas struct {
	doc       *gofpdf.Fpdf
	page      model.Size
	fonts     map[string]bool
	current   string
	translate func(string) string
}

var _ render.Canvas = (*Canvas)(nil)

// AddPage implements render.Canvas.
func (c *Canvas) AddPage() error {
	c.doc.AddPage()
	return c.takeError("add page")
}

// RegisterFont implements render.Canvas. Only TrueType outlines are
// accepted; collections (.ttc) and CFF-flavoured OpenType files are rejected
// before they reach gofpdf.
func (c *Canvas) RegisterFont(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pdf: read font: %w", err)
	}
	if err := checkTrueType(data); err != nil {
		return fmt.Errorf("pdf: font %s: %w", path, err)
	}
	key := strings.ToLower(family)
	c.doc.AddUTF8FontFromBytes(key, "", data)
	if err := c.takeError("register font"); err != nil {
		return err
	}
	c.fonts[key] = true
	return nil
}

// HasFont implements render.Canvas.
func (c *Canvas) HasFont(family string) bool {
	key := strings.ToLower(strings.TrimSpace(family))
	return coreFamilies[key] || c.fonts[key]
}

// SetFont implements render.Canvas.
func (c *Canvas) SetFont(family string, size float64) error {
	key := strings.ToLower(strings.TrimSpace(family))
	if !c.HasFont(key) {
		return fmt.Errorf("pdf: font %q not registered", family)
	}
	c.doc.SetFont(key, "", size)
	if err := c.takeError("set font"); err != nil {
		return err
	}
	c.current = key
	return nil
}

// SetColor implements render.Canvas.
func (c *Canvas) SetColor(rgb model.RGB) {
	c.doc.SetTextColor(int(rgb.R), int(rgb.G), int(rgb.B))
}

// Text implements render.Canvas.
func (c *Canvas) Text(x, y float64, text string) error {
	if c.doc.PageNo() == 0 {
		return errors.New("pdf: text before first page")
	}
	if coreFamilies[c.current] {
		text = c.translate(text)
	}
	c.doc.Text(x, c.page.Height-y, text)
	return c.takeError("text")
}

// Image implements render.Canvas.
func (c *Canvas) Image(path string, r model.Rect) error {
	top := c.page.Height - (r.Y + r.Height)
	c.doc.ImageOptions(path, r.X, top, r.Width, r.Height, false, gofpdf.ImageOptions{ReadDpi: false}, 0, "")
	return c.takeError("image")
}

// Save implements render.Canvas.
func (c *Canvas) Save(w io.Writer) error {
	var buf bytes.Buffer
	if err := c.doc.Output(&buf); err != nil {
		return fmt.Errorf("pdf: output: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// takeError converts gofpdf's sticky error into a returned error and clears
// it so the document stays usable.
func (c *Canvas) takeError(op string) error {
	if !c.doc.Err() {
		return nil
	}
	err := c.doc.Error()
	c.doc.ClearError()
	return fmt.Errorf("pdf: %s: %w", op, err)
}

func checkTrueType(data []byte) error {
	if len(data) < 4 {
		return errors.New("file too short")
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true":
		return nil
	case "ttcf":
		return errors.New("font collections are not supported")
	case "OTTO":
		return errors.New("CFF outlines are not supported")
	default:
		return errors.New("not a TrueType font")
	}
}

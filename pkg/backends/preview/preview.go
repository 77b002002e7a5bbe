// Package preview is an HTML page backend: each page becomes an inline SVG
// inside a single HTML document, suitable for on-screen proofs before a PDF
// run. Text is stripped of markup and escaped.
package preview

import (
	"embed"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/render"
	tmpl "github.com/goliatone/go-docfill/pkg/render/template"
	"github.com/goliatone/go-docfill/pkg/render/template/gotemplate"
)

// Name is the registry name of the backend.
const Name = "preview"

const documentTemplate = "preview"

//go:embed templates/*.tpl
var embedded embed.FS

var (
	cssPolicyOnce sync.Once
	cssPolicy     *bluemonday.Policy
)

// sanitizeCSS strips markup from a theme value so it cannot close the style
// element it is written into.
func sanitizeCSS(raw string) string {
	cssPolicyOnce.Do(func() {
		cssPolicy = bluemonday.StrictPolicy()
	})
	// The strict policy entity-encodes what it keeps; CSS needs the raw text.
	return html.UnescapeString(cssPolicy.Sanitize(raw))
}

// Option configures the factory.
type Option func(*Factory)

// WithTheme applies go-theme tokens and CSS variables to the page chrome.
// Recognised variables are --docfill-canvas and --docfill-page.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(f *Factory) {
		f.theme = cfg
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(f *Factory) {
		f.title = strings.TrimSpace(title)
	}
}

// WithTemplateRenderer replaces the embedded template engine. The renderer
// must provide a "preview" template.
func WithTemplateRenderer(r tmpl.TemplateRenderer) Option {
	return func(f *Factory) {
		f.renderer = r
	}
}

// Factory creates preview canvases.
type Factory struct {
	theme    *theme.RendererConfig
	title    string
	renderer tmpl.TemplateRenderer
}

var _ render.CanvasFactory = (*Factory)(nil)

// New constructs a Factory backed by the embedded template.
func New(opts ...Option) (*Factory, error) {
	f := &Factory{title: "docfill preview"}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.renderer == nil {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("preview: templates: %w", err)
		}
		engine, err := gotemplate.New(gotemplate.WithFS(sub))
		if err != nil {
			return nil, fmt.Errorf("preview: template engine: %w", err)
		}
		f.renderer = engine
	}
	return f, nil
}

// Name implements render.CanvasFactory.
func (f *Factory) Name() string { return Name }

// Extension implements render.CanvasFactory.
func (f *Factory) Extension() string { return ".html" }

// ContentType implements render.CanvasFactory.
func (f *Factory) ContentType() string { return "text/html; charset=utf-8" }

// NewCanvas implements render.CanvasFactory.
func (f *Factory) NewCanvas(page model.Size) (render.Canvas, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("preview: invalid page size %gx%g", page.Width, page.Height)
	}
	return &Canvas{factory: f, page: page, fonts: map[string]string{}, size: model.DefaultFontSize}, nil
}

type item struct {
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	Href  string  `json:"href,omitempty"`
	Font  string  `json:"font,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
	Text  string  `json:"text,omitempty"`
}

type page struct {
	Number int    `json:"number"`
	Items  []item `json:"items"`
}

// Canvas is a render.Canvas collecting SVG elements per page.
type Canvas struct {
	factory *Factory
	page    model.Size
	pages   []page
	fonts   map[string]string
	font    string
	size    float64
	color   model.RGB
}

var _ render.Canvas = (*Canvas)(nil)

// AddPage implements render.Canvas.
func (c *Canvas) AddPage() error {
	c.pages = append(c.pages, page{Number: len(c.pages) + 1})
	return nil
}

// RegisterFont implements render.Canvas. The browser resolves the family by
// name; the file is only checked for existence.
func (c *Canvas) RegisterFont(family, path string) error {
	if strings.TrimSpace(family) == "" {
		return errors.New("preview: font family is required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("preview: font %s: %w", path, err)
	}
	c.fonts[strings.ToLower(family)] = path
	return nil
}

// HasFont implements render.Canvas. Generic CSS families are always present.
func (c *Canvas) HasFont(family string) bool {
	key := strings.ToLower(strings.TrimSpace(family))
	switch key {
	case render.CoreFamily, "times", "courier", "serif", "sans-serif", "monospace":
		return true
	}
	_, ok := c.fonts[key]
	return ok
}

// SetFont implements render.Canvas.
func (c *Canvas) SetFont(family string, size float64) error {
	if !c.HasFont(family) {
		return fmt.Errorf("preview: font %q not registered", family)
	}
	c.font = strings.ToLower(strings.TrimSpace(family))
	c.size = size
	return nil
}

// SetColor implements render.Canvas.
func (c *Canvas) SetColor(rgb model.RGB) {
	c.color = rgb
}

// Text implements render.Canvas.
func (c *Canvas) Text(x, y float64, text string) error {
	p, err := c.current()
	if err != nil {
		return err
	}
	p.Items = append(p.Items, item{
		Kind:  "text",
		X:     x,
		Y:     c.page.Height - y,
		Font:  c.font,
		Size:  c.size,
		Color: c.color.Hex(),
		Text:  text,
	})
	return nil
}

// Image implements render.Canvas.
func (c *Canvas) Image(path string, r model.Rect) error {
	p, err := c.current()
	if err != nil {
		return err
	}
	p.Items = append(p.Items, item{
		Kind: "image",
		X:    r.X,
		Y:    c.page.Height - (r.Y + r.Height),
		W:    r.Width,
		H:    r.Height,
		Href: path,
	})
	return nil
}

// Save implements render.Canvas.
func (c *Canvas) Save(w io.Writer) error {
	pages := c.pages
	if pages == nil {
		pages = []page{}
	}
	data := map[string]any{
		"title":  c.factory.title,
		"width":  c.page.Width,
		"height": c.page.Height,
		"pages":  pages,
	}
	if cfg := c.factory.theme; cfg != nil {
		data["theme_name"] = cfg.Theme
		data["theme_variant"] = cfg.Variant
		data["theme_css"] = themeCSS(cfg)
	}
	if _, err := c.factory.renderer.RenderTemplate(documentTemplate, data, w); err != nil {
		return fmt.Errorf("preview: render: %w", err)
	}
	return nil
}

func (c *Canvas) current() (*page, error) {
	if len(c.pages) == 0 {
		return nil, errors.New("preview: no page added")
	}
	return &c.pages[len(c.pages)-1], nil
}

// themeCSS renders CSS variables, falling back to page tokens when the
// config carries no variables.
func themeCSS(cfg *theme.RendererConfig) string {
	vars := make(map[string]string, len(cfg.CSSVars))
	for key, value := range cfg.CSSVars {
		vars[key] = value
	}
	if len(vars) == 0 {
		for key, value := range cfg.Tokens {
			vars["--"+key] = value
		}
	}
	if len(vars) == 0 {
		return ""
	}

	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(sanitizeCSS(vars[key]))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// TemplatesFS exposes the embedded document template so callers can copy and
// customise it before passing their own engine through WithTemplateRenderer.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return embedded
	}
	return sub
}

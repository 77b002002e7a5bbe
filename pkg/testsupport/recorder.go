package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/render"
)

// Op is one recorded canvas operation.
type Op struct {
	Kind  string     `json:"kind"`
	Page  int        `json:"page"`
	Font  string     `json:"font,omitempty"`
	Size  float64    `json:"size,omitempty"`
	Color string     `json:"color,omitempty"`
	X     float64    `json:"x,omitempty"`
	Y     float64    `json:"y,omitempty"`
	Text  string     `json:"text,omitempty"`
	Path  string     `json:"path,omitempty"`
	Rect  model.Rect `json:"rect,omitempty"`
}

// Recorder is a render.Canvas that records every operation. Fonts lists the
// families HasFont reports; the core family is always present.
type Recorder struct {
	PageSize model.Size
	Fonts    map[string]bool

	// FailText makes Text return an error for values containing the string.
	FailText string
	// PanicText makes Text panic for values containing the string.
	PanicText string
	// FailImage makes Image return this error.
	FailImage error
	// FailRegister makes RegisterFont return this error.
	FailRegister error
	// RejectFontExt makes RegisterFont fail for files with this extension.
	RejectFontExt string
	// FailSave makes Save return this error.
	FailSave error
	// OnAddPage, when set, runs after each page is added.
	OnAddPage func(page int)

	ops  []Op
	page int
	font string
	size float64
	rgb  model.RGB
}

var _ render.Canvas = (*Recorder)(nil)

// NewRecorder builds a Recorder for the given page size.
func NewRecorder(page model.Size) *Recorder {
	return &Recorder{PageSize: page, Fonts: map[string]bool{}}
}

// AddPage implements render.Canvas.
func (r *Recorder) AddPage() error {
	r.page++
	r.ops = append(r.ops, Op{Kind: "page", Page: r.page})
	if r.OnAddPage != nil {
		r.OnAddPage(r.page)
	}
	return nil
}

// RegisterFont implements render.Canvas.
func (r *Recorder) RegisterFont(family, path string) error {
	if r.FailRegister != nil {
		return r.FailRegister
	}
	if r.RejectFontExt != "" && strings.EqualFold(filepath.Ext(path), r.RejectFontExt) {
		return fmt.Errorf("recorder: %s fonts are not supported", r.RejectFontExt)
	}
	if r.Fonts == nil {
		r.Fonts = map[string]bool{}
	}
	r.Fonts[strings.ToLower(family)] = true
	r.ops = append(r.ops, Op{Kind: "font", Font: family, Path: path})
	return nil
}

// HasFont implements render.Canvas.
func (r *Recorder) HasFont(family string) bool {
	family = strings.ToLower(strings.TrimSpace(family))
	return family == render.CoreFamily || r.Fonts[family]
}

// SetFont implements render.Canvas.
func (r *Recorder) SetFont(family string, size float64) error {
	if !r.HasFont(family) {
		return fmt.Errorf("recorder: font %q not registered", family)
	}
	r.font = family
	r.size = size
	return nil
}

// SetColor implements render.Canvas.
func (r *Recorder) SetColor(c model.RGB) {
	r.rgb = c
}

// Text implements render.Canvas.
func (r *Recorder) Text(x, y float64, text string) error {
	if r.page == 0 {
		return errors.New("recorder: text before first page")
	}
	if r.PanicText != "" && strings.Contains(text, r.PanicText) {
		panic("recorder: induced panic")
	}
	if r.FailText != "" && strings.Contains(text, r.FailText) {
		return errors.New("recorder: induced text failure")
	}
	r.ops = append(r.ops, Op{Kind: "text", Page: r.page, Font: r.font, Size: r.size, Color: r.rgb.Hex(), X: x, Y: y, Text: text})
	return nil
}

// Image implements render.Canvas.
func (r *Recorder) Image(path string, rect model.Rect) error {
	if r.FailImage != nil {
		return r.FailImage
	}
	r.ops = append(r.ops, Op{Kind: "image", Page: r.page, Path: path, Rect: rect})
	return nil
}

// Save implements render.Canvas by writing the operations as JSON.
func (r *Recorder) Save(w io.Writer) error {
	if r.FailSave != nil {
		return r.FailSave
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.ops)
}

// Ops returns the recorded operations.
func (r *Recorder) Ops() []Op {
	return append([]Op(nil), r.ops...)
}

// Texts returns the recorded text operations.
func (r *Recorder) Texts() []Op {
	return r.filter("text")
}

// Images returns the recorded image operations.
func (r *Recorder) Images() []Op {
	return r.filter("image")
}

// Pages returns the number of pages added.
func (r *Recorder) Pages() int {
	return r.page
}

func (r *Recorder) filter(kind string) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// RecorderFactory is a render.CanvasFactory producing Recorders. Every canvas
// it creates is kept so tests can inspect it after a job.
type RecorderFactory struct {
	// Configure, when set, adjusts each new Recorder.
	Configure func(*Recorder)

	mu        sync.Mutex
	recorders []*Recorder
}

var _ render.CanvasFactory = (*RecorderFactory)(nil)

// Name implements render.CanvasFactory.
func (f *RecorderFactory) Name() string { return "recorder" }

// Extension implements render.CanvasFactory.
func (f *RecorderFactory) Extension() string { return ".json" }

// ContentType implements render.CanvasFactory.
func (f *RecorderFactory) ContentType() string { return "application/json" }

// NewCanvas implements render.CanvasFactory.
func (f *RecorderFactory) NewCanvas(page model.Size) (render.Canvas, error) {
	rec := NewRecorder(page)
	if f.Configure != nil {
		f.Configure(rec)
	}
	f.mu.Lock()
	f.recorders = append(f.recorders, rec)
	f.mu.Unlock()
	return rec, nil
}

// Last returns the most recently created Recorder, or nil.
func (f *RecorderFactory) Last() *Recorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.recorders) == 0 {
		return nil
	}
	return f.recorders[len(f.recorders)-1]
}

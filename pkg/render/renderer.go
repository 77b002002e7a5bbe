package render

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/layout"
	"github.com/goliatone/go-docfill/pkg/model"
)

// LineHeightFactor spaces the lines of a multi-line value: each line sits
// fontSize × LineHeightFactor below the previous one.
const LineHeightFactor = 1.2

const (
	markerSize   = 8.0
	markerPrefix = "Render Error: "
)

var markerOrigin = model.Point{X: 50, Y: 50}

// FieldErrorPolicy selects what a failing field leaves on the page.
type FieldErrorPolicy int

const (
	// FieldErrorMark draws a small red marker naming the field.
	FieldErrorMark FieldErrorPolicy = iota
	// FieldErrorSkip leaves nothing behind.
	FieldErrorSkip
)

// ParseFieldErrorPolicy maps "mark" and "skip" to a policy.
func ParseFieldErrorPolicy(raw string) (FieldErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "mark":
		return FieldErrorMark, nil
	case "skip":
		return FieldErrorSkip, nil
	default:
		return FieldErrorMark, fmt.Errorf("render: unknown field error policy %q", raw)
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFontResolver overrides the default font resolver.
func WithFontResolver(fonts *FontResolver) Option {
	return func(r *Renderer) {
		if fonts != nil {
			r.fonts = fonts
		}
	}
}

// WithFieldErrorPolicy selects the per-field failure policy.
func WithFieldErrorPolicy(policy FieldErrorPolicy) Option {
	return func(r *Renderer) {
		r.policy = policy
	}
}

// Renderer draws jobs onto canvases. A Renderer holds configuration only and
// may be reused across jobs; each Render call keeps its own state.
type Renderer struct {
	logger *zap.Logger
	fonts  *FontResolver
	policy FieldErrorPolicy
}

// New constructs a Renderer. Without WithFontResolver the fallback font is
// resolved from DefaultSystemFonts.
func New(opts ...Option) *Renderer {
	r := &Renderer{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.fonts == nil {
		r.fonts = NewFontResolver(WithFontLogger(r.logger))
	}
	return r
}

// Job is the input of one Render call.
type Job struct {
	ID       string
	Template string
	Canvas   model.CanvasTemplate
	Mapping  model.MappingTable
	Records  []model.Record
	Layout   *layout.Engine
}

// Report summarises a Render call.
type Report struct {
	Pages       int
	Records     int
	Diagnostics []Diagnostic

	// BackgroundDisabled is set when the background failed and was dropped.
	BackgroundDisabled bool
}

type jobState struct {
	logger     *zap.Logger
	fallback   string
	background string
	bgSize     model.Size
	bgProbed   bool
	unmapped   map[string]struct{}
	missing    map[string]struct{}
	report     *Report
}

// Render draws every record of job onto c. Context cancellation is checked
// before each record; on cancellation Render stops and returns the context
// error with the pages drawn so far left on c. Field and background failures
// are absorbed into the report. Only backend page failures abort the job.
func (r *Renderer) Render(ctx context.Context, job Job, c Canvas) (Report, error) {
	report := Report{}
	if job.Layout == nil {
		return report, &Error{Kind: KindInvalidLayout, Op: "render", Template: job.Template, Err: fmt.Errorf("layout engine is required")}
	}

	st := &jobState{
		logger:     r.logger.With(zap.String("job", job.ID), zap.String("template", job.Template)),
		background: strings.TrimSpace(job.Canvas.Background),
		unmapped:   make(map[string]struct{}),
		missing:    make(map[string]struct{}),
		report:     &report,
	}
	st.fallback = r.fonts.Install(c)

	for i, record := range job.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if i == 0 || job.Layout.StartsPage(i) {
			if err := c.AddPage(); err != nil {
				return report, &Error{Kind: KindOutputWriteError, Op: "add page", Template: job.Template, Err: err}
			}
			report.Pages++
		}

		slot := job.Layout.Slot(i)
		r.drawBackground(c, st, slot)

		for _, p := range job.Canvas.Placements {
			r.drawPlacement(c, st, job, slot, p, record)
		}
		report.Records++
	}
	return report, nil
}

func (r *Renderer) drawBackground(c Canvas, st *jobState, slot layout.Slot) {
	if st.background == "" {
		return
	}
	if !st.bgProbed {
		st.bgProbed = true
		size, err := ProbeImage(st.background)
		if err != nil {
			st.disableBackground(slot.Record, err)
			return
		}
		st.bgSize = size
	}

	area := FitRect(st.bgSize, slot.Cell)
	if err := safeCall(func() error { return c.Image(st.background, area) }); err != nil {
		st.disableBackground(slot.Record, err)
	}
}

func (st *jobState) disableBackground(record int, err error) {
	st.logger.Warn("background disabled for job",
		zap.String("kind", string(KindBackgroundAssetError)),
		zap.String("path", st.background),
		zap.Int("record", record),
		zap.Error(err),
	)
	st.report.Diagnostics = append(st.report.Diagnostics, Diagnostic{
		Kind:    KindBackgroundAssetError,
		Record:  record,
		Path:    st.background,
		Message: err.Error(),
	})
	st.report.BackgroundDisabled = true
	st.background = ""
}

func (r *Renderer) drawPlacement(c Canvas, st *jobState, job Job, slot layout.Slot, p model.FieldPlacement, record model.Record) {
	field := p.SourceField(job.Mapping)
	if field == "" {
		st.noteUnmapped(slot.Record, p)
		return
	}
	value, ok := record[field]
	if !ok {
		st.noteMissing(slot.Record, field)
		return
	}
	if value == "" {
		return
	}

	at := job.Layout.PlaceAt(slot, p)
	err := safeCall(func() error { return drawText(c, st.fallback, p, at, value) })
	if err == nil {
		return
	}

	st.logger.Warn("field render failed",
		zap.String("kind", string(KindFieldRenderError)),
		zap.String("field", field),
		zap.Int("record", slot.Record),
		zap.Error(err),
	)
	st.report.Diagnostics = append(st.report.Diagnostics, Diagnostic{
		Kind:    KindFieldRenderError,
		Record:  slot.Record,
		Field:   field,
		Token:   p.Token,
		Message: err.Error(),
	})
	if r.policy == FieldErrorMark {
		label := p.Token
		if label == "" {
			label = field
		}
		if err := safeCall(func() error { return drawMarker(c, st.fallback, label) }); err != nil {
			st.logger.Debug("error marker failed", zap.String("field", field), zap.Error(err))
		}
	}
}

func (st *jobState) noteUnmapped(record int, p model.FieldPlacement) {
	key := p.Token
	if _, seen := st.unmapped[key]; seen {
		return
	}
	st.unmapped[key] = struct{}{}
	st.logger.Warn("placement has no mapped field",
		zap.String("kind", string(KindMappingIncomplete)),
		zap.String("token", key),
		zap.String("placement", p.ID),
	)
	st.report.Diagnostics = append(st.report.Diagnostics, Diagnostic{
		Kind:    KindMappingIncomplete,
		Record:  record,
		Token:   key,
		Message: "token is not mapped to a field",
	})
}

func (st *jobState) noteMissing(record int, field string) {
	if _, seen := st.missing[field]; seen {
		return
	}
	st.missing[field] = struct{}{}
	st.logger.Warn("record lacks mapped field",
		zap.String("kind", string(KindMappingIncomplete)),
		zap.String("field", field),
		zap.Int("record", record),
	)
	st.report.Diagnostics = append(st.report.Diagnostics, Diagnostic{
		Kind:    KindMappingIncomplete,
		Record:  record,
		Field:   field,
		Message: "field missing from record",
	})
}

func drawText(c Canvas, fallback string, p model.FieldPlacement, at model.Point, value string) error {
	size := p.FontSize
	if size <= 0 {
		size = model.DefaultFontSize
	}
	if err := c.SetFont(Resolve(c, p.Font, fallback), size); err != nil {
		return err
	}
	c.SetColor(p.Color)

	step := size * LineHeightFactor
	for k, line := range Lines(value) {
		if line == "" {
			continue
		}
		if err := c.Text(at.X, at.Y-float64(k)*step, line); err != nil {
			return err
		}
	}
	return nil
}

func drawMarker(c Canvas, fallback, label string) error {
	if err := c.SetFont(fallback, markerSize); err != nil {
		return err
	}
	c.SetColor(model.Red)
	return c.Text(markerOrigin.X, markerOrigin.Y, markerPrefix+label)
}

// Lines normalises CRLF and CR line breaks, splits value into lines, and
// trims each line.
func Lines(value string) []string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// safeCall runs fn and converts a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/backends/pdf"
	"github.com/goliatone/go-docfill/pkg/backends/preview"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/records"
	"github.com/goliatone/go-docfill/pkg/registry"
	"github.com/goliatone/go-docfill/pkg/render"
)

const defaultBackendName = pdf.Name

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects the template registry jobs read from.
func WithRegistry(reg registry.Registry) Option {
	return func(o *Orchestrator) {
		o.templates = reg
	}
}

// WithLogger attaches a logger to the orchestrator and the renderer it drives.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFontResolver overrides the fallback font resolution.
func WithFontResolver(fonts *render.FontResolver) Option {
	return func(o *Orchestrator) {
		o.fonts = fonts
	}
}

// WithCanvasRegistry injects the page backends available to canvas jobs.
func WithCanvasRegistry(backends *render.Registry) Option {
	return func(o *Orchestrator) {
		o.backends = backends
	}
}

// WithDefaultBackend overrides the backend used when a request omits one.
func WithDefaultBackend(name string) Option {
	return func(o *Orchestrator) {
		o.defaultBackend = name
	}
}

// WithFieldErrorPolicy selects what a failing field leaves on the page.
func WithFieldErrorPolicy(policy render.FieldErrorPolicy) Option {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithClock overrides the clock stamping job results.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithDocumentRoot resolves relative template document paths against dir.
func WithDocumentRoot(dir string) Option {
	return func(o *Orchestrator) {
		o.documentRoot = dir
	}
}

// Orchestrator runs render jobs against a template registry. Jobs are
// independent: each one snapshots its template and owns its renderer state.
type Orchestrator struct {
	templates      registry.Registry
	backends       *render.Registry
	defaultBackend string
	logger         *zap.Logger
	fonts          *render.FontResolver
	policy         render.FieldErrorPolicy
	clock          func() time.Time
	documentRoot   string
	renderer       *render.Renderer
	initialiseErr  error
}

// New constructs an Orchestrator. Without options it uses an empty in-memory
// registry and the pdf and preview backends.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultBackend: defaultBackendName,
		logger:         zap.NewNop(),
		clock:          time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.templates == nil {
		mem, err := registry.NewMemory(nil)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default registry: %w", err)
		}
		o.templates = mem
	}
	if o.backends == nil {
		o.backends = render.NewRegistry()
		o.backends.MustRegister(pdf.New())
		html, err := preview.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default preview backend: %w", err)
		} else {
			o.backends.MustRegister(html)
		}
	}
	if o.defaultBackend == "" {
		o.defaultBackend = defaultBackendName
	}
	o.renderer = render.New(
		render.WithLogger(o.logger),
		render.WithFontResolver(o.fonts),
		render.WithFieldErrorPolicy(o.policy),
	)
}

// Templates returns the registry jobs read from.
func (o *Orchestrator) Templates() registry.Registry {
	return o.templates
}

// Backends returns the registered page backends.
func (o *Orchestrator) Backends() *render.Registry {
	return o.backends
}

// Result describes a finished job. It is populated on failure as well.
type Result struct {
	JobID       string              `json:"job_id"`
	Template    string              `json:"template"`
	State       State               `json:"state"`
	Backend     string              `json:"backend,omitempty"`
	Pages       int                 `json:"pages"`
	Records     int                 `json:"records"`
	Diagnostics []render.Diagnostic `json:"diagnostics,omitempty"`
	Output      string              `json:"output,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// job tracks one run through the state machine.
type job struct {
	result Result
	logger *zap.Logger
	clock  func() time.Time
}

func (o *Orchestrator) newJob(template string) *job {
	id := uuid.NewString()
	j := &job{
		result: Result{
			JobID:     id,
			Template:  template,
			State:     StateCreated,
			StartedAt: o.clock(),
		},
		logger: o.logger.With(zap.String("job", id), zap.String("template", template)),
		clock:  o.clock,
	}
	j.logger.Debug("job created")
	return j
}

func (j *job) transition(to State) error {
	from := j.result.State
	if !CanTransition(from, to) {
		return ErrInvalidTransition{From: from, To: to}
	}
	j.result.State = to
	j.logger.Debug("job state changed", zap.String("from", string(from)), zap.String("to", string(to)))
	if to.Terminal() {
		j.result.FinishedAt = j.clock()
	}
	return nil
}

func (j *job) fail(err error) (Result, error) {
	if terr := j.transition(StateFailed); terr != nil {
		return j.result, errors.Join(err, terr)
	}
	j.result.Output = ""
	j.logger.Error("job failed", zap.String("kind", string(render.KindOf(err))), zap.Error(err))
	return j.result, err
}

func (j *job) cancel(cause error) (Result, error) {
	err := fmt.Errorf("orchestrator: job %s cancelled: %w", j.result.JobID, cause)
	if terr := j.transition(StateCancelled); terr != nil {
		return j.result, errors.Join(err, terr)
	}
	j.result.Output = ""
	j.logger.Info("job cancelled, output discarded", zap.Int("records", j.result.Records))
	return j.result, err
}

func (j *job) saved() (Result, error) {
	if err := j.transition(StateSaved); err != nil {
		return j.result, err
	}
	j.logger.Info("job saved",
		zap.String("output", j.result.Output),
		zap.Int("pages", j.result.Pages),
		zap.Int("records", j.result.Records),
		zap.Int("diagnostics", len(j.result.Diagnostics)),
	)
	return j.result, nil
}

// snapshot reads the named template and checks its kind.
func (o *Orchestrator) snapshot(ctx context.Context, name string, kind model.TemplateKind) (model.Template, error) {
	if strings.TrimSpace(name) == "" {
		return model.Template{}, &render.Error{Kind: render.KindTemplateNotFound, Op: "snapshot", Err: errors.New("template name is required")}
	}
	tpl, err := o.templates.Get(ctx, name)
	if err != nil {
		return model.Template{}, &render.Error{Kind: render.KindTemplateNotFound, Op: "snapshot", Template: name, Err: err}
	}
	if tpl.Kind != kind {
		return model.Template{}, &render.Error{
			Kind:     render.KindTemplateNotFound,
			Op:       "snapshot",
			Template: name,
			Err:      fmt.Errorf("template is %s, want %s", tpl.Kind, kind),
		}
	}
	return tpl, nil
}

func (o *Orchestrator) loadRecords(ctx context.Context, template string, src records.Source) ([]model.Record, error) {
	if src == nil {
		return nil, &render.Error{Kind: render.KindRecordSourceEmpty, Op: "records", Template: template, Err: errors.New("record source is required")}
	}
	recs, err := src.Records(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &render.Error{Kind: render.KindRecordSourceEmpty, Op: "records", Template: template, Err: err}
	}
	if len(recs) == 0 {
		return nil, &render.Error{Kind: render.KindRecordSourceEmpty, Op: "records", Template: template, Err: errors.New("record source yielded no records")}
	}
	return recs, nil
}

// backendFor picks the named backend, else the one owning the output
// extension, else the default.
func (o *Orchestrator) backendFor(name, output string) (render.CanvasFactory, error) {
	target := strings.TrimSpace(name)
	if target == "" {
		if factory, ok := o.backends.ForExtension(filepath.Ext(output)); ok {
			return factory, nil
		}
		target = o.defaultBackend
	}
	factory, err := o.backends.Get(target)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return factory, nil
}

func (o *Orchestrator) documentPath(path string) string {
	if path == "" || filepath.IsAbs(path) || o.documentRoot == "" {
		return path
	}
	return filepath.Join(o.documentRoot, path)
}

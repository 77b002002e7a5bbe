package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/layout"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/records"
	"github.com/goliatone/go-docfill/pkg/render"
)

// CanvasRequest describes a multi-page canvas job.
type CanvasRequest struct {
	// Template names the registry entry to render.
	Template string
	// Records supplies the record sequence; one job consumes all of it.
	Records records.Source
	// Layout overrides the template's stored layout.
	Layout *model.LayoutConfig
	// Output is the artifact path. The backend extension is appended when
	// the path has none.
	Output string
	// Backend names the page backend. Empty selects the default.
	Backend string
}

// RenderCanvas renders every record onto pages and writes one artifact.
// Cancellation is checked once per record; a cancelled job leaves no output.
func (o *Orchestrator) RenderCanvas(ctx context.Context, req CanvasRequest) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	j := o.newJob(req.Template)
	if err := j.transition(StateValidating); err != nil {
		return j.result, err
	}

	tpl, err := o.snapshot(ctx, req.Template, model.KindCanvas)
	if err != nil {
		return j.fail(err)
	}
	if tpl.Canvas == nil {
		return j.fail(&render.Error{Kind: render.KindTemplateNotFound, Op: "snapshot", Template: tpl.Name, Err: errors.New("template has no canvas")})
	}
	recs, err := o.loadRecords(ctx, tpl.Name, req.Records)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return j.cancel(ctxErr)
		}
		return j.fail(err)
	}

	cfg := resolveLayout(req.Layout, tpl)
	engine, err := layout.New(cfg)
	if err != nil {
		return j.fail(&render.Error{Kind: render.KindInvalidLayout, Op: "layout", Template: tpl.Name, Err: err})
	}

	factory, err := o.backendFor(req.Backend, req.Output)
	if err != nil {
		return j.fail(err)
	}
	j.result.Backend = factory.Name()

	out, err := createOutput(tpl.Name, outputPath(req.Output, factory.Extension()))
	if err != nil {
		return j.fail(err)
	}
	canvas, err := factory.NewCanvas(engine.PageSize())
	if err != nil {
		out.discard()
		return j.fail(&render.Error{Kind: render.KindInvalidLayout, Op: "new canvas", Template: tpl.Name, Err: err})
	}

	if err := j.transition(StateRendering); err != nil {
		out.discard()
		return j.result, err
	}
	j.logger.Info("rendering canvas job",
		zap.String("backend", factory.Name()),
		zap.String("mode", string(engine.Mode())),
		zap.Int("records", len(recs)),
		zap.Int("pages", engine.Pages(len(recs))),
	)

	report, err := o.renderer.Render(ctx, render.Job{
		ID:       j.result.JobID,
		Template: tpl.Name,
		Canvas:   *tpl.Canvas,
		Mapping:  tpl.Mappings,
		Records:  recs,
		Layout:   engine,
	}, canvas)
	j.result.Pages = report.Pages
	j.result.Records = report.Records
	j.result.Diagnostics = report.Diagnostics
	if err != nil {
		out.discard()
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return j.cancel(ctxErr)
		}
		return j.fail(err)
	}

	if err := canvas.Save(out.Writer()); err != nil {
		out.discard()
		return j.fail(&render.Error{Kind: render.KindOutputWriteError, Op: "save", Template: tpl.Name, Path: out.final, Err: err})
	}
	if err := out.commit(); err != nil {
		return j.fail(&render.Error{Kind: render.KindOutputWriteError, Op: "commit", Template: tpl.Name, Path: out.final, Err: err})
	}
	j.result.Output = out.final
	return j.saved()
}

// resolveLayout picks the request override, then the stored layout, then a
// one-record-per-page layout sized to the canvas.
func resolveLayout(override *model.LayoutConfig, tpl model.Template) model.LayoutConfig {
	if override != nil {
		return *override
	}
	if tpl.Layout != nil {
		return *tpl.Layout
	}
	page := model.PageA4
	if tpl.Canvas != nil && tpl.Canvas.Width > 0 && tpl.Canvas.Height > 0 {
		page = model.Size{Width: tpl.Canvas.Width, Height: tpl.Canvas.Height}
	}
	return model.StandardLayout(page)
}

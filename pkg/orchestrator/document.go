package orchestrator

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/backends/xlsx"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
	"github.com/goliatone/go-docfill/pkg/render"
)

// DocumentRequest describes a cell-template job. One record produces one
// filled copy of the template document.
type DocumentRequest struct {
	Template string
	Record   model.Record
	Output   string
}

// FillDocument substitutes the record into a copy of the template document.
func (o *Orchestrator) FillDocument(ctx context.Context, req DocumentRequest) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	j := o.newJob(req.Template)
	j.result.Backend = "xlsx"
	if err := j.transition(StateValidating); err != nil {
		return j.result, err
	}

	tpl, err := o.snapshot(ctx, req.Template, model.KindCell)
	if err != nil {
		return j.fail(err)
	}
	if len(req.Record) == 0 {
		return j.fail(&render.Error{Kind: render.KindRecordSourceEmpty, Op: "records", Template: tpl.Name, Err: errors.New("record is empty")})
	}

	path := o.documentPath(tpl.DocumentPath)
	if _, err := os.Stat(path); err != nil {
		return j.fail(&render.Error{Kind: render.KindTemplateNotFound, Op: "open document", Template: tpl.Name, Path: path, Err: err})
	}
	wb, err := xlsx.Open(path)
	if err != nil {
		return j.fail(&render.Error{Kind: render.KindTemplateNotFound, Op: "open document", Template: tpl.Name, Path: path, Err: err})
	}
	defer wb.Close()

	out, err := createOutput(tpl.Name, outputPath(req.Output, xlsx.Extension))
	if err != nil {
		return j.fail(err)
	}

	if err := ctx.Err(); err != nil {
		out.discard()
		return j.cancel(err)
	}
	if err := j.transition(StateRendering); err != nil {
		out.discard()
		return j.result, err
	}

	stats, err := placeholder.Fill(wb.Grid(), tpl.Mappings, req.Record)
	if err != nil {
		out.discard()
		return j.fail(&render.Error{Kind: render.KindOutputWriteError, Op: "fill", Template: tpl.Name, Path: path, Err: err})
	}
	j.result.Records = 1
	j.result.Diagnostics = fillDiagnostics(j.logger, stats)
	j.logger.Debug("document filled",
		zap.String("sheet", wb.Sheet()),
		zap.Int("cells", stats.Cells),
		zap.Int("tokens", stats.Tokens),
	)

	if err := wb.Write(out.Writer()); err != nil {
		out.discard()
		return j.fail(&render.Error{Kind: render.KindOutputWriteError, Op: "save", Template: tpl.Name, Path: out.final, Err: err})
	}
	if err := out.commit(); err != nil {
		return j.fail(&render.Error{Kind: render.KindOutputWriteError, Op: "commit", Template: tpl.Name, Path: out.final, Err: err})
	}
	j.result.Output = out.final
	return j.saved()
}

func fillDiagnostics(logger *zap.Logger, stats placeholder.Stats) []render.Diagnostic {
	var out []render.Diagnostic
	for _, token := range stats.Unmapped {
		logger.Warn("token has no mapped field",
			zap.String("kind", string(render.KindMappingIncomplete)),
			zap.String("token", token),
		)
		out = append(out, render.Diagnostic{
			Kind:    render.KindMappingIncomplete,
			Token:   token,
			Message: "token is not mapped to a field",
		})
	}
	for _, field := range stats.Missing {
		logger.Warn("record lacks mapped field",
			zap.String("kind", string(render.KindMappingIncomplete)),
			zap.String("field", field),
		)
		out = append(out, render.Diagnostic{
			Kind:    render.KindMappingIncomplete,
			Field:   field,
			Message: "field missing from record",
		})
	}
	return out
}

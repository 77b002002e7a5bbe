// Package docfill fills document templates from record data. It re-exports
// the constructors most callers need: the orchestrator that runs render jobs,
// schema loading from OpenAPI documents and automatic token mapping.
package docfill

import (
	"context"

	"github.com/goliatone/go-docfill/pkg/mapping"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/orchestrator"
	"github.com/goliatone/go-docfill/pkg/records"
	"github.com/goliatone/go-docfill/pkg/schema"
)

// CanvasRequest aliases orchestrator.CanvasRequest.
type CanvasRequest = orchestrator.CanvasRequest

// DocumentRequest aliases orchestrator.DocumentRequest.
type DocumentRequest = orchestrator.DocumentRequest

// Result aliases orchestrator.Result.
type Result = orchestrator.Result

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// RenderCanvas renders recs with the named canvas template into output using
// a one-off orchestrator.
func RenderCanvas(ctx context.Context, template string, recs []model.Record, output string, options ...orchestrator.Option) (Result, error) {
	orch := orchestrator.New(options...)
	return orch.RenderCanvas(ctx, CanvasRequest{
		Template: template,
		Records:  records.Static(recs),
		Output:   output,
	})
}

// AutoMap matches tokens against the schema field names and merges the result
// under the explicit mappings, which always win.
func AutoMap(tokens []string, s schema.Schema, explicit model.MappingTable, options ...mapping.Option) (model.MappingTable, mapping.Result) {
	res := mapping.NewMatcher(options...).Match(tokens, s.Names())
	return mapping.Merge(explicit, res.Table), res
}

package docfill

import (
	"context"
	"fmt"
	"time"

	internalLoader "github.com/goliatone/go-docfill/internal/openapi/loader"
	internalParser "github.com/goliatone/go-docfill/internal/openapi/parser"
	pkgopenapi "github.com/goliatone/go-docfill/pkg/openapi"
	"github.com/goliatone/go-docfill/pkg/schema"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	cfg := pkgopenapi.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewParser constructs a parser backed by the internal implementation.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	cfg := pkgopenapi.NewParserOptions(options...)
	return internalParser.New(cfg)
}

// DefaultFetchTimeout caps remote schema document fetches.
const DefaultFetchTimeout = 30 * time.Second

// SchemaFromOpenAPI loads src and derives the field schema from the named
// component. URL sources are fetched with DefaultFetchTimeout unless the
// loader options say otherwise.
func SchemaFromOpenAPI(ctx context.Context, src pkgopenapi.Source, component string, loaderOptions ...pkgopenapi.LoaderOption) (schema.Schema, error) {
	opts := append([]pkgopenapi.LoaderOption{pkgopenapi.WithHTTPFallback(DefaultFetchTimeout)}, loaderOptions...)
	doc, err := NewLoader(opts...).Load(ctx, src)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("docfill: load schema document: %w", err)
	}
	fields, err := NewParser().Fields(ctx, doc, component)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("docfill: parse component %q: %w", component, err)
	}
	out, err := schema.New(fields...)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("docfill: component %q: %w", component, err)
	}
	return out, nil
}

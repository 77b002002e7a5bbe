package openapi

import (
	"context"

	"github.com/goliatone/go-docfill/pkg/schema"
)

// Parser derives data fields from a named component schema.
type Parser interface {
	Fields(ctx context.Context, doc Document, component string) ([]schema.Field, error)
}

// ParserOptions tunes how component properties become fields.
type ParserOptions struct {
	// ResolveReferences allows external $ref resolution while loading.
	ResolveReferences bool

	// MultiLineThreshold marks string properties whose maxLength exceeds
	// this value as multi-line. Zero disables the heuristic.
	MultiLineThreshold uint64
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithReferenceResolution toggles external reference resolution.
func WithReferenceResolution(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithMultiLineThreshold overrides the maxLength threshold for multi-line
// fields.
func WithMultiLineThreshold(n uint64) ParserOption {
	return func(opts *ParserOptions) {
		opts.MultiLineThreshold = n
	}
}

// NewParserOptions applies ParserOption functions over the defaults.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{
		MultiLineThreshold: 255,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

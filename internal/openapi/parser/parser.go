package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-docfill/pkg/openapi"
	"github.com/goliatone/go-docfill/pkg/schema"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) pkgopenapi.Parser {
	return &Parser{options: options}
}

const (
	extensionNamespace = "x-docfill"
	labelExtension     = extensionNamespace + "-label"
	orderExtension     = extensionNamespace + "-order"
	multiLineExtension = extensionNamespace + "-multiline"
	uniqueExtension    = extensionNamespace + "-unique"
)

// Fields converts the properties of components.schemas[component] into
// schema fields. Properties carrying x-docfill-order sort first by that
// value; the rest follow with required properties in the order they are
// listed, then optional properties sorted by name.
func (p *Parser) Fields(ctx context.Context, doc pkgopenapi.Document, component string) ([]schema.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}
	if strings.TrimSpace(component) == "" {
		return nil, errors.New("openapi parser: component name is required")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	var api *openapi3.T
	var err error
	if base := doc.BaseURL(); base != nil && p.options.ResolveReferences {
		api, err = loader.LoadFromDataWithPath(raw, base)
	} else {
		api, err = loader.LoadFromData(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}

	if api.Components == nil || api.Components.Schemas == nil {
		return nil, fmt.Errorf("openapi parser: component %q not found", component)
	}
	ref, ok := api.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi parser: component %q not found", component)
	}

	props := collectProperties(ref.Value)
	if len(props) == 0 {
		return nil, fmt.Errorf("openapi parser: component %q has no properties", component)
	}

	required := make(map[string]int)
	collectRequired(ref.Value, required)

	entries := make([]entry, 0, len(props))
	for name, prop := range props {
		if prop == nil || prop.Value == nil {
			continue
		}
		pos, isRequired := required[name]
		e := p.toEntry(name, prop.Value, isRequired)
		e.requiredPos = pos
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].less(entries[j])
	})

	fields := make([]schema.Field, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, e.field)
	}
	return fields, nil
}

type entry struct {
	key         string
	field       schema.Field
	order       float64
	ordered     bool
	requiredPos int
}

func (e entry) less(other entry) bool {
	switch {
	case e.ordered && other.ordered:
		if e.order != other.order {
			return e.order < other.order
		}
		return e.key < other.key
	case e.ordered != other.ordered:
		return e.ordered
	case e.field.Required != other.field.Required:
		return e.field.Required
	case e.field.Required:
		return e.requiredPos < other.requiredPos
	default:
		return e.key < other.key
	}
}

func (p *Parser) toEntry(key string, src *openapi3.Schema, required bool) entry {
	name := key
	if label, ok := src.Extensions[labelExtension].(string); ok && strings.TrimSpace(label) != "" {
		name = strings.TrimSpace(label)
	}

	out := entry{
		key: key,
		field: schema.Field{
			Name:     name,
			Type:     p.fieldType(src),
			Required: required,
			Unique:   truthy(src.Extensions[uniqueExtension]),
		},
	}
	if order, ok := number(src.Extensions[orderExtension]); ok {
		out.order = order
		out.ordered = true
	}
	return out
}

func (p *Parser) fieldType(src *openapi3.Schema) schema.FieldType {
	switch {
	case src.Format == "date" || src.Format == "date-time":
		return schema.TypeDate
	case truthy(src.Extensions[multiLineExtension]):
		return schema.TypeMultiLine
	case p.options.MultiLineThreshold > 0 && src.MaxLength != nil && *src.MaxLength > p.options.MultiLineThreshold:
		return schema.TypeMultiLine
	default:
		return schema.TypeSingleLine
	}
}

// collectProperties flattens properties declared directly and through allOf.
func collectProperties(src *openapi3.Schema) openapi3.Schemas {
	out := make(openapi3.Schemas)
	for _, ref := range src.AllOf {
		if ref == nil || ref.Value == nil {
			continue
		}
		for name, prop := range collectProperties(ref.Value) {
			out[name] = prop
		}
	}
	for name, prop := range src.Properties {
		out[name] = prop
	}
	return out
}

func collectRequired(src *openapi3.Schema, into map[string]int) {
	for _, name := range src.Required {
		if _, seen := into[name]; !seen {
			into[name] = len(into)
		}
	}
	for _, ref := range src.AllOf {
		if ref != nil && ref.Value != nil {
			collectRequired(ref.Value, into)
		}
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

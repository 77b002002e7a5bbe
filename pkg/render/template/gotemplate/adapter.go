package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-docfill/pkg/render/template"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files. When combined with WithBaseDir the
// directory is searched first.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the ".tpl" suffix appended to template names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// Engine is a pongo2 template set with a parsed-template cache.
type Engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine. At least one template source is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".tpl"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("gotemplate: a base dir or fs.FS is required")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	registerDefaultFilters()
	return &Engine{
		set:       pongo2.NewSet("docfill", loaders...),
		templates: make(map[string]*pongo2.Template),
		ext:       cfg.extension,
	}, nil
}

// RenderTemplate executes the template name (extension optional) with data.
// Structs are passed through their JSON form, so templates address fields by
// their json tags.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("gotemplate: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	tpl, err := e.lookup(path)
	if err != nil {
		return "", err
	}
	ctx, err := contextOf(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: convert data: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("gotemplate: execute %q: %w", path, err)
	}
	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// RegisterFilter adds a filter. pongo2 filters are process wide, so a name
// can only be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var p any
		if param != nil {
			p = param.Interface()
		}
		result, err := fn(in.Interface(), p)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

func (e *Engine) lookup(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tpl, ok := e.templates[path]; ok {
		return tpl, nil
	}
	tpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", path, err)
	}
	e.templates[path] = tpl
	return tpl, nil
}

func contextOf(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	ctx := pongo2.Context{}
	if err := dec.Decode(&ctx); err != nil {
		return nil, err
	}
	for k, v := range ctx {
		ctx[k] = restoreNumbers(v)
	}
	return ctx, nil
}

// restoreNumbers turns decoded json.Number values back into int64 or float64
// so integers print without a fractional part.
func restoreNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, item := range t {
			t[k] = restoreNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = restoreNumbers(item)
		}
		return t
	}
	return v
}

func registerDefaultFilters() {
	if !pongo2.FilterExists("pt") {
		_ = pongo2.RegisterFilter("pt", filterPoints)
	}
}

// filterPoints formats a length with at most two decimals and no trailing
// zeros.
func filterPoints(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if !in.IsNumber() {
		return pongo2.AsValue(in.String()), nil
	}
	formatted := strconv.FormatFloat(in.Float(), 'f', 2, 64)
	formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	if formatted == "-0" || formatted == "" {
		formatted = "0"
	}
	return pongo2.AsValue(formatted), nil
}

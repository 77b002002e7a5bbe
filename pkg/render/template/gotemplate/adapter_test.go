package gotemplate_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-docfill/pkg/render/template/gotemplate"
	"github.com/goliatone/go-docfill/pkg/testsupport"
)

var templates = fstest.MapFS{
	"label.tpl":  {Data: []byte(`<text x="{{ x|pt }}" y="{{ y|pt }}">{{ text }}</text>`)},
	"pages.tpl":  {Data: []byte(`{% for p in pages %}[{{ p.number }}:{{ p.items|length }}]{% endfor %}`)},
	"shout.tpl":  {Data: []byte(`{{ name|docfill_shout }}`)},
	"broken.tpl": {Data: []byte(`{{ name|docfill_fail }}`)},
	"footer.tpl": {Data: []byte(`{{ page.index }}/{{ page.total }}{% if page.index == 2 %} last{% endif %} {{ page.scale }}`)},
}

type page struct {
	Number int      `json:"number"`
	Items  []string `json:"items"`
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(gotemplate.WithFS(templates))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("label", map[string]any{"x": 10.0, "y": 14.4, "text": "张三 <b>"}, w)
	})

	want := `<text x="10" y="14.4">张三 &lt;b&gt;</text>`
	if result != want {
		t.Fatalf("result mismatch\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("writer mismatch\nwant: %q\n got: %q", want, written)
	}
}

func TestEngine_StructsUseJSONNames(t *testing.T) {
	engine := newEngine(t)
	data := map[string]any{"pages": []page{{Number: 1, Items: []string{"a", "b"}}, {Number: 2, Items: []string{}}}}

	got, err := engine.RenderTemplate("pages.tpl", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "[1:2][2:0]"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

type footer struct {
	Index int     `json:"index"`
	Total int64   `json:"total"`
	Scale float64 `json:"scale"`
}

func TestEngine_IntegersStayIntegers(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("footer", map[string]any{"page": footer{Index: 2, Total: 2, Scale: 0.5}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "2/2 last 0.500000"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngine_PointsFilter(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.RenderTemplate("label", map[string]any{"x": 1.0 / 3, "y": -0.001, "text": ""})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := `<text x="0.33" y="0"></text>`; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("docfill_shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("docfill_shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatal("expected duplicate filter error")
	}

	got, err := engine.RenderTemplate("shout", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("want ADA!, got %q", got)
	}
}

func TestEngine_FilterError(t *testing.T) {
	engine := newEngine(t)
	boom := errors.New("boom")
	if err := engine.RegisterFilter("docfill_fail", func(any, any) (any, error) { return nil, boom }); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if _, err := engine.RenderTemplate("broken", map[string]any{"name": "x"}); err == nil {
		t.Fatal("expected filter error")
	}
}

func TestEngine_Errors(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatal("expected error without template source")
	}
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatal("expected missing template error")
	}
}

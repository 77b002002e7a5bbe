package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-docfill/pkg/backends/preview"
	"github.com/goliatone/go-docfill/pkg/backends/xlsx"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/records"
	"github.com/goliatone/go-docfill/pkg/registry"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/testsupport"
)

func labelTemplate() model.Template {
	cfg := model.LayoutConfig{Mode: model.ModeGrid, ItemsPerPage: 4, PageWidth: 400, PageHeight: 300}
	return model.Template{
		Name: "labels",
		Kind: model.KindCanvas,
		Canvas: &model.CanvasTemplate{Placements: []model.FieldPlacement{
			{ID: "f1", Token: "A", X: 10, Y: 20, FontSize: 12},
			{ID: "f2", Token: "B", X: 10, Y: 50, FontSize: 12},
		}},
		Mappings: model.Identity("A", "B"),
		Layout:   &cfg,
	}
}

func fiveRecords() records.Static {
	recs := make(records.Static, 5)
	for i := range recs {
		recs[i] = model.Record{"A": "a", "B": "b"}
	}
	return recs
}

type fixture struct {
	orch     *Orchestrator
	factory  *testsupport.RecorderFactory
	logs     *observer.ObservedLogs
	registry *registry.Memory
	dir      string
}

func newFixture(t *testing.T, templates ...model.Template) *fixture {
	t.Helper()
	reg, err := registry.NewMemory(templates)
	require.NoError(t, err)

	factory := &testsupport.RecorderFactory{}
	backends := render.NewRegistry()
	backends.MustRegister(factory)
	html, err := preview.New()
	require.NoError(t, err)
	backends.MustRegister(html)

	core, logs := observer.New(zapcore.DebugLevel)
	orch := New(
		WithRegistry(reg),
		WithCanvasRegistry(backends),
		WithDefaultBackend(factory.Name()),
		WithLogger(zap.New(core)),
		WithFontResolver(render.NewFontResolver(render.WithSystemFonts())),
	)
	return &fixture{orch: orch, factory: factory, logs: logs, registry: reg, dir: t.TempDir()}
}

func (f *fixture) entries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRenderCanvas_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, labelTemplate())
	res, err := f.orch.RenderCanvas(context.Background(), CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "labels"),
	})
	require.NoError(t, err)

	assert.Equal(t, StateSaved, res.State)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 5, res.Records)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, filepath.Join(f.dir, "labels.json"), res.Output)
	_, err = uuid.Parse(res.JobID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"labels.json"}, f.entries(t))

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	var ops []testsupport.Op
	require.NoError(t, json.Unmarshal(data, &ops))
	assert.Equal(t, f.factory.Last().Ops(), ops)

	texts := f.factory.Last().Texts()
	require.Len(t, texts, 10)
	last := texts[8]
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, 10.0, last.X)
	assert.Equal(t, 20.0, last.Y)
}

func TestRenderCanvas_Deterministic(t *testing.T) {
	f := newFixture(t, labelTemplate())
	run := func(name string) []byte {
		res, err := f.orch.RenderCanvas(context.Background(), CanvasRequest{
			Template: "labels",
			Records:  fiveRecords(),
			Output:   filepath.Join(f.dir, name),
			Backend:  preview.Name,
		})
		require.NoError(t, err)
		data, err := os.ReadFile(res.Output)
		require.NoError(t, err)
		return data
	}
	first, second := run("one.html"), run("two.html")
	if !bytes.Equal(first, second) {
		t.Fatalf("outputs differ between identical jobs")
	}
}

func TestRenderCanvas_MissingBackgroundStillSaves(t *testing.T) {
	tpl := labelTemplate()
	tpl.Canvas.Background = filepath.Join(t.TempDir(), "missing.png")
	f := newFixture(t, tpl)

	res, err := f.orch.RenderCanvas(context.Background(), CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "labels.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, StateSaved, res.State)
	assert.Empty(t, f.factory.Last().Images())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, render.KindBackgroundAssetError, res.Diagnostics[0].Kind)

	logged := f.logs.FilterField(zap.String("kind", string(render.KindBackgroundAssetError))).Len()
	assert.Equal(t, 1, logged)
}

func TestRenderCanvas_FatalValidation(t *testing.T) {
	cell := model.Template{Name: "form", DocumentPath: "form.xlsx"}

	tests := []struct {
		name string
		req  func(dir string) CanvasRequest
		kind render.Kind
	}{
		{
			name: "unknown template",
			req: func(dir string) CanvasRequest {
				return CanvasRequest{Template: "nope", Records: fiveRecords(), Output: filepath.Join(dir, "out")}
			},
			kind: render.KindTemplateNotFound,
		},
		{
			name: "cell template",
			req: func(dir string) CanvasRequest {
				return CanvasRequest{Template: "form", Records: fiveRecords(), Output: filepath.Join(dir, "out")}
			},
			kind: render.KindTemplateNotFound,
		},
		{
			name: "empty records",
			req: func(dir string) CanvasRequest {
				return CanvasRequest{Template: "labels", Records: records.Static{}, Output: filepath.Join(dir, "out")}
			},
			kind: render.KindRecordSourceEmpty,
		},
		{
			name: "nil records",
			req: func(dir string) CanvasRequest {
				return CanvasRequest{Template: "labels", Output: filepath.Join(dir, "out")}
			},
			kind: render.KindRecordSourceEmpty,
		},
		{
			name: "missing output",
			req: func(string) CanvasRequest {
				return CanvasRequest{Template: "labels", Records: fiveRecords()}
			},
			kind: render.KindOutputWriteError,
		},
		{
			name: "output directory is a file",
			req: func(dir string) CanvasRequest {
				blocker := filepath.Join(dir, "blocker")
				_ = os.WriteFile(blocker, []byte("x"), 0o644)
				return CanvasRequest{Template: "labels", Records: fiveRecords(), Output: filepath.Join(blocker, "out")}
			},
			kind: render.KindOutputWriteError,
		},
		{
			name: "invalid layout override",
			req: func(dir string) CanvasRequest {
				return CanvasRequest{
					Template: "labels",
					Records:  fiveRecords(),
					Layout:   &model.LayoutConfig{Mode: model.ModeGrid, PageWidth: 400, PageHeight: 300},
					Output:   filepath.Join(dir, "out"),
				}
			},
			kind: render.KindInvalidLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, labelTemplate(), cell)
			res, err := f.orch.RenderCanvas(context.Background(), tt.req(f.dir))
			if err == nil {
				t.Fatalf("expected %s error", tt.kind)
			}
			if got := render.KindOf(err); got != tt.kind {
				t.Fatalf("kind = %q, want %q (err=%v)", got, tt.kind, err)
			}
			if !tt.kind.Fatal() {
				t.Fatalf("kind %s should be fatal", tt.kind)
			}
			if res.State != StateFailed {
				t.Fatalf("state = %s, want failed", res.State)
			}
			if res.Output != "" || res.Pages != 0 {
				t.Fatalf("failed job reported output: %+v", res)
			}
			for _, name := range f.entries(t) {
				if name != "blocker" {
					t.Fatalf("unexpected artifact %q", name)
				}
			}
		})
	}
}

func TestRenderCanvas_UnknownBackend(t *testing.T) {
	f := newFixture(t, labelTemplate())
	res, err := f.orch.RenderCanvas(context.Background(), CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "out"),
		Backend:  "fax",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrUnknownBackend)
	assert.Equal(t, StateFailed, res.State)
}

func TestRenderCanvas_BackendFromExtension(t *testing.T) {
	f := newFixture(t, labelTemplate())
	res, err := f.orch.RenderCanvas(context.Background(), CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "proof.HTML"),
	})
	require.NoError(t, err)
	assert.Equal(t, preview.Name, res.Backend)
	assert.Equal(t, filepath.Join(f.dir, "proof.HTML"), res.Output)
}

func TestRenderCanvas_CancelDiscardsOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, labelTemplate())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.factory.Configure = func(r *testsupport.Recorder) {
		r.OnAddPage = func(page int) {
			if page == 1 {
				cancel()
			}
		}
	}

	res, err := f.orch.RenderCanvas(ctx, CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "labels.json"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 1, res.Records, "the record in progress completes before the check")
	assert.Empty(t, res.Output)
	assert.Empty(t, f.entries(t), "cancelled jobs leave no artifact")
}

func TestRenderCanvas_SnapshotIsolation(t *testing.T) {
	f := newFixture(t, labelTemplate())
	ctx := context.Background()

	f.factory.Configure = func(r *testsupport.Recorder) {
		r.OnAddPage = func(int) {
			edited := labelTemplate()
			edited.Canvas.Placements = nil
			require.NoError(t, f.registry.Put(ctx, edited))
		}
	}
	res, err := f.orch.RenderCanvas(ctx, CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "labels.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, StateSaved, res.State)
	assert.Len(t, f.factory.Last().Texts(), 10)
}

func TestRenderCanvas_SaveFailure(t *testing.T) {
	f := newFixture(t, labelTemplate())
	f.factory.Configure = func(r *testsupport.Recorder) {
		r.FailSave = errors.New("disk full")
	}
	res, err := f.orch.RenderCanvas(context.Background(), CanvasRequest{
		Template: "labels",
		Records:  fiveRecords(),
		Output:   filepath.Join(f.dir, "labels.json"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrOutputWrite)
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, f.entries(t))
}

func TestStateTransitions(t *testing.T) {
	legal := [][2]State{
		{StateCreated, StateValidating},
		{StateCreated, StateFailed},
		{StateValidating, StateRendering},
		{StateValidating, StateFailed},
		{StateRendering, StateSaved},
		{StateRendering, StateFailed},
		{StateRendering, StateCancelled},
	}
	for _, pair := range legal {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be legal", pair[0], pair[1])
		}
	}
	illegal := [][2]State{
		{StateCreated, StateRendering},
		{StateCreated, StateSaved},
		{StateSaved, StateFailed},
		{StateFailed, StateValidating},
		{StateCancelled, StateSaved},
	}
	for _, pair := range illegal {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be illegal", pair[0], pair[1])
		}
	}
	for _, s := range []State{StateSaved, StateFailed, StateCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}

	j := &job{result: Result{State: StateSaved}, logger: zap.NewNop()}
	var invalid ErrInvalidTransition
	if err := j.transition(StateRendering); !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func writeFormTemplate(t *testing.T, dir string) string {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetCellStr(sheet, "A1", "{职工姓名}"))
	require.NoError(t, wb.MergeCell(sheet, "A1", "B2"))
	require.NoError(t, wb.SetCellStr(sheet, "C1", "电话: {电话}"))
	path := filepath.Join(dir, "form.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestFillDocument(t *testing.T) {
	templates := t.TempDir()
	writeFormTemplate(t, templates)

	f := newFixture(t, model.Template{
		Name:         "form",
		DocumentPath: "form.xlsx",
		Mappings:     model.MappingTable{"职工姓名": "姓名"},
	})
	f.orch.documentRoot = templates

	res, err := f.orch.FillDocument(context.Background(), DocumentRequest{
		Template: "form",
		Record:   model.Record{"姓名": "张三"},
		Output:   filepath.Join(f.dir, "张三"),
	})
	require.NoError(t, err)
	assert.Equal(t, StateSaved, res.State)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, filepath.Join(f.dir, "张三.xlsx"), res.Output)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, render.KindMappingIncomplete, res.Diagnostics[0].Kind)
	assert.Equal(t, "电话", res.Diagnostics[0].Token)

	out, err := excelize.OpenFile(res.Output)
	require.NoError(t, err)
	defer out.Close()
	sheet := out.GetSheetName(0)
	a1, err := out.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "张三", a1)
	c1, err := out.GetCellValue(sheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "电话: ", c1)

	// The template document itself is untouched.
	src, err := excelize.OpenFile(filepath.Join(templates, "form.xlsx"))
	require.NoError(t, err)
	defer src.Close()
	orig, err := src.GetCellValue(src.GetSheetName(0), "A1")
	require.NoError(t, err)
	assert.Equal(t, "{职工姓名}", orig)
}

func TestFillDocument_Validation(t *testing.T) {
	f := newFixture(t,
		model.Template{Name: "gone", DocumentPath: filepath.Join(t.TempDir(), "gone.xlsx")},
		labelTemplate(),
	)
	ctx := context.Background()

	_, err := f.orch.FillDocument(ctx, DocumentRequest{Template: "gone", Record: model.Record{"a": "b"}, Output: filepath.Join(f.dir, "x")})
	assert.ErrorIs(t, err, render.ErrTemplateNotFound)

	_, err = f.orch.FillDocument(ctx, DocumentRequest{Template: "labels", Record: model.Record{"a": "b"}, Output: filepath.Join(f.dir, "x")})
	assert.ErrorIs(t, err, render.ErrTemplateNotFound)

	templates := t.TempDir()
	path := writeFormTemplate(t, templates)
	require.NoError(t, f.registry.Put(ctx, model.Template{Name: "form", DocumentPath: path}))
	res, err := f.orch.FillDocument(ctx, DocumentRequest{Template: "form", Output: filepath.Join(f.dir, "x")})
	assert.ErrorIs(t, err, render.ErrRecordSourceEmpty)
	assert.Equal(t, StateFailed, res.State)

	res, err = f.orch.FillDocument(ctx, DocumentRequest{Template: "form", Record: model.Record{"姓名": "x"}, Output: "  "})
	assert.ErrorIs(t, err, render.ErrOutputWrite)
	assert.Equal(t, StateFailed, res.State)
	_, statErr := os.Stat(xlsx.Extension)
	assert.True(t, os.IsNotExist(statErr), "no artifact in the working directory")
	assert.Empty(t, f.entries(t))
}

func TestFillDocument_Cancelled(t *testing.T) {
	templates := t.TempDir()
	path := writeFormTemplate(t, templates)
	f := newFixture(t, model.Template{Name: "form", DocumentPath: path})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.orch.FillDocument(ctx, DocumentRequest{Template: "form", Record: model.Record{"姓名": "x"}, Output: filepath.Join(f.dir, "x")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, res.State)
	assert.Empty(t, f.entries(t))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "out/a.pdf", outputPath("out/a", ".pdf"))
	assert.Equal(t, "out/a.html", outputPath("out/a.html", ".pdf"))
	assert.Equal(t, "", outputPath("", ".pdf"))
	assert.Equal(t, "", outputPath(" ", ".pdf"))
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-docfill/internal/config"
	"github.com/goliatone/go-docfill/internal/prompt"
	"github.com/goliatone/go-docfill/pkg/model"
)

type workspace struct {
	dir    string
	config string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`registry:
  path: templates.json
output:
  dir: out
  backend: preview
logging:
  level: error
  output_paths: [%q]
`, filepath.Join(dir, "docfill.log"))
	path := filepath.Join(dir, "docfill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	t.Setenv(config.EnvPath, "")
	return workspace{dir: dir, config: path}
}

func (w workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", w.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (w workspace) writeSheet(t *testing.T, name string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, text := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr(sheet, cell, text))
		}
	}
	path := filepath.Join(w.dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func (w workspace) staff(t *testing.T) string {
	return w.writeSheet(t, "staff.xlsx", [][]string{
		{"姓名", "出生日期"},
		{"张三", "1990-01-01"},
		{"李四", "1985-05-05"},
	})
}

func TestCLI_CanvasWorkflow(t *testing.T) {
	w := newWorkspace(t)
	canvas := filepath.Join(w.dir, "badge.json")
	require.NoError(t, os.WriteFile(canvas, []byte(`{"fields":[{"text":"姓名","x":10,"y":20,"size":14}]}`), 0o644))

	out, err := w.run(t, "templates", "add", "badge", "--canvas", canvas)
	require.NoError(t, err, out)
	assert.Contains(t, out, "registered badge")

	out, err = w.run(t, "templates", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "badge")
	assert.Contains(t, out, "canvas")

	out, err = w.run(t, "render", "--template", "badge", "--records", w.staff(t), "--layout", "grid", "--per-page", "4")
	require.NoError(t, err, out)
	want := filepath.Join(w.dir, "out", "badge.html")
	assert.Contains(t, out, "saved: 2 record(s) on 1 page(s) -> "+want)

	html, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(html), "张三")
	assert.Contains(t, string(html), "李四")

	out, err = w.run(t, "templates", "show", "badge")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"kind": "canvas"`)

	out, err = w.run(t, "templates", "delete", "badge")
	require.NoError(t, err, out)
	_, err = w.run(t, "templates", "show", "badge")
	assert.Error(t, err)
}

// lockedBuffer is written by the watcher goroutine while the test reads it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCLI_TemplatesWatch(t *testing.T) {
	w := newWorkspace(t)
	canvas := filepath.Join(w.dir, "badge.json")
	require.NoError(t, os.WriteFile(canvas, []byte(`{"fields":[{"text":"姓名","x":10,"y":20,"size":14}]}`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out lockedBuffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", w.config, "templates", "watch"})
	errc := make(chan error, 1)
	go func() { errc <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "watching ")
	}, 5*time.Second, 20*time.Millisecond)

	added, err := w.run(t, "templates", "add", "badge", "--canvas", canvas)
	require.NoError(t, err, added)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "reloaded 1 templates: badge")
	}, 5*time.Second, 20*time.Millisecond, out.String())

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestCLI_CellWorkflow(t *testing.T) {
	w := newWorkspace(t)
	form := w.writeSheet(t, "form.xlsx", [][]string{{"{职工姓名}", "生日: {出生日期}"}})

	out, err := w.run(t, "templates", "add", "form", "--document", form)
	require.NoError(t, err, out)

	out, err = w.run(t, "map", "--template", "form", "--save")
	require.NoError(t, err, out)
	assert.Contains(t, out, "{职工姓名}\t姓名")
	assert.Contains(t, out, "{出生日期}\t出生日期")

	out, err = w.run(t, "fill", "--template", "form", "--records", w.staff(t), "--workers", "2")
	require.NoError(t, err, out)
	first := filepath.Join(w.dir, "out", "form_001.xlsx")
	assert.Contains(t, out, first)

	f, err := excelize.OpenFile(first)
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)
	a1, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	b1, err := f.GetCellValue(sheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "张三", a1)
	assert.Equal(t, "生日: 1990-01-01", b1)

	_, err = os.Stat(filepath.Join(w.dir, "out", "form_002.xlsx"))
	assert.NoError(t, err)
}

func TestCLI_Fields(t *testing.T) {
	w := newWorkspace(t)
	out, err := w.run(t, "fields")
	require.NoError(t, err, out)
	assert.Contains(t, out, "姓名")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "出生日期")
	_, err = os.Stat(filepath.Join(w.dir, "fields.json"))
	assert.NoError(t, err, "default schema written on first use")
}

type scriptedDriver struct {
	selects []int
	confirm bool
}

func (d *scriptedDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	return d.confirm, nil
}

func (d *scriptedDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return 0, errors.New("no select scripted")
	}
	idx := d.selects[0]
	d.selects = d.selects[1:]
	return idx, nil
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestRunMap_Interactive(t *testing.T) {
	w := newWorkspace(t)
	form := w.writeSheet(t, "form.xlsx", [][]string{{"{手机}"}})
	_, err := w.run(t, "templates", "add", "form", "--document", form)
	require.NoError(t, err)

	a := &app{configPath: w.config}
	require.NoError(t, a.init())
	defer a.close()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	// Option 0 leaves the token unmapped; option 2 is the second schema field.
	driver := &scriptedDriver{selects: []int{2}, confirm: true}
	require.NoError(t, runMap(cmd, a, mapFlags{template: "form", interactive: true}, driver))

	tpl, err := a.templates.Get(context.Background(), "form")
	require.NoError(t, err)
	assert.Equal(t, model.MappingTable{"手机": "姓名"}, tpl.Mappings)
	assert.True(t, strings.Contains(out.String(), "saved 1 mapping(s)"), out.String())
}

func TestOutputName(t *testing.T) {
	rec := model.Record{"档案编号": "A/17", "姓名": "张 三"}
	assert.Equal(t, "form_003", outputName("form", 2, rec, ""))
	assert.Equal(t, "form_A_17", outputName("form", 2, rec, "档案编号"))
	assert.Equal(t, "my_form_001", outputName("my form", 0, model.Record{}, "档案编号"))
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"e1", "e2"}, splitIDs(" e1, ,e2 "))
	assert.Nil(t, splitIDs(""))
}

func TestRecordSource(t *testing.T) {
	cfg := config.Default()
	_, _, err := recordSource(cfg, "", nil, nil)
	assert.Error(t, err)
	_, _, err = recordSource(cfg, "people.csv", nil, nil)
	assert.Error(t, err)
	_, _, err = recordSource(cfg, "people.xlsx", []string{"x"}, nil)
	assert.Error(t, err)

	src, done, err := recordSource(cfg, filepath.Join(t.TempDir(), "people.db"), []string{"e1"}, nil)
	require.NoError(t, err)
	defer done()
	assert.NotNil(t, src)
}

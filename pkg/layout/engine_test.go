package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfill/pkg/model"
)

func TestDimensions(t *testing.T) {
	tests := []struct {
		items      int
		cols, rows int
	}{
		{items: 1, cols: 1, rows: 1},
		{items: 3, cols: 3, rows: 1},
		{items: 4, cols: 4, rows: 1},
		{items: 5, cols: 5, rows: 1},
		{items: 6, cols: 5, rows: 2},
		{items: 7, cols: 5, rows: 2},
		{items: 10, cols: 5, rows: 2},
		{items: 11, cols: 5, rows: 3},
	}
	for _, tt := range tests {
		cols, rows := Dimensions(tt.items)
		if cols != tt.cols || rows != tt.rows {
			t.Fatalf("Dimensions(%d) = %dx%d, want %dx%d", tt.items, cols, rows, tt.cols, tt.rows)
		}
	}
}

func TestDimensions_CoverAllItems(t *testing.T) {
	for n := 1; n <= 200; n++ {
		cols, rows := Dimensions(n)
		if cols < 1 || rows < 1 {
			t.Fatalf("n=%d: degenerate grid %dx%d", n, cols, rows)
		}
		if cols*rows < n {
			t.Fatalf("n=%d: %dx%d grid holds fewer cells than items", n, cols, rows)
		}
	}
}

func TestEngine_PageBreaks(t *testing.T) {
	for _, perPage := range []int{1, 3, 4, 7} {
		e := MustNew(model.LayoutConfig{Mode: model.ModeGrid, ItemsPerPage: perPage, PageWidth: 400, PageHeight: 300})
		for i := 0; i < perPage; i++ {
			if e.Page(i) != 0 {
				t.Fatalf("perPage=%d: record %d on page %d", perPage, i, e.Page(i))
			}
			if e.StartsPage(i) {
				t.Fatalf("perPage=%d: record %d starts a page", perPage, i)
			}
		}
		if e.Page(perPage) != 1 || !e.StartsPage(perPage) {
			t.Fatalf("perPage=%d: record %d should begin page 1", perPage, perPage)
		}
		if got := e.Pages(perPage + 1); got != 2 {
			t.Fatalf("perPage=%d: Pages = %d, want 2", perPage, got)
		}
	}
}

func TestEngine_GridEndToEndGeometry(t *testing.T) {
	e := MustNew(model.LayoutConfig{Mode: model.ModeGrid, ItemsPerPage: 4, PageWidth: 400, PageHeight: 300})

	if diff := cmp.Diff(model.Size{Width: 100, Height: 300}, e.CellSize()); diff != "" {
		t.Fatalf("cell size mismatch (-want +got):\n%s", diff)
	}
	if e.Columns() != 4 || e.Rows() != 1 {
		t.Fatalf("grid = %dx%d, want 4x1", e.Columns(), e.Rows())
	}
	if got := e.Pages(5); got != 2 {
		t.Fatalf("Pages(5) = %d, want 2", got)
	}

	a := model.FieldPlacement{Field: "A", X: 10, Y: 20}
	b := model.FieldPlacement{Field: "B", X: 10, Y: 50}

	for i := 0; i < 4; i++ {
		s := e.Slot(i)
		if s.Page != 0 || s.Col != i || s.Row != 0 {
			t.Fatalf("record %d slot = %+v", i, s)
		}
		wantX := float64(i)*100 + 10
		if got := e.Place(i, a); got != (model.Point{X: wantX, Y: 20}) {
			t.Fatalf("record %d A at %+v", i, got)
		}
		if got := e.Place(i, b); got != (model.Point{X: wantX, Y: 50}) {
			t.Fatalf("record %d B at %+v", i, got)
		}
	}

	last := e.Slot(4)
	if last.Page != 1 || last.Origin() != (model.Point{}) {
		t.Fatalf("record 4 slot = %+v, want page 1 at origin", last)
	}
}

func TestEngine_GridRowsAndMargins(t *testing.T) {
	e := MustNew(model.LayoutConfig{Mode: model.ModeGrid, ItemsPerPage: 7, PageWidth: 520, PageHeight: 220, MarginX: 10, MarginY: 10})

	if diff := cmp.Diff(model.Size{Width: 100, Height: 100}, e.CellSize()); diff != "" {
		t.Fatalf("cell size mismatch (-want +got):\n%s", diff)
	}
	s := e.Slot(6)
	want := model.Rect{X: 110, Y: 110, Width: 100, Height: 100}
	if diff := cmp.Diff(want, s.Cell); diff != "" {
		t.Fatalf("slot 6 cell mismatch (-want +got):\n%s", diff)
	}
	// The eighth record wraps to a new page, first cell.
	if got := e.Slot(7); got.Page != 1 || got.Col != 0 || got.Row != 0 {
		t.Fatalf("slot 7 = %+v", got)
	}
}

func TestEngine_MinCellSize(t *testing.T) {
	e := MustNew(model.LayoutConfig{Mode: model.ModeGrid, ItemsPerPage: 2, PageWidth: 50, PageHeight: 50, MarginX: 40, MarginY: 40})
	if diff := cmp.Diff(model.Size{Width: MinCellSize, Height: MinCellSize}, e.CellSize()); diff != "" {
		t.Fatalf("cell size mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_StandardFlipsVertical(t *testing.T) {
	e := MustNew(model.StandardLayout(model.Size{Width: 400, Height: 300}))

	if e.PerPage() != 1 {
		t.Fatalf("PerPage = %d", e.PerPage())
	}
	got := e.Place(3, model.FieldPlacement{X: 15, Y: 40})
	if got != (model.Point{X: 15, Y: 260}) {
		t.Fatalf("placement at %+v, want (15,260)", got)
	}
	s := e.Slot(3)
	if s.Page != 3 || s.Cell != (model.Rect{Width: 400, Height: 300}) {
		t.Fatalf("slot = %+v", s)
	}
	if !e.StartsPage(1) {
		t.Fatal("each record after the first starts a page")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []model.LayoutConfig{
		{Mode: model.ModeGrid, ItemsPerPage: 0, PageWidth: 100, PageHeight: 100},
		{Mode: model.ModeStandard, PageWidth: 0, PageHeight: 100},
		{Mode: "spiral", PageWidth: 100, PageHeight: 100},
	}
	for _, cfg := range tests {
		if _, err := New(cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

package xlsx

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
)

func templateBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellStr(sheet, "A1", "{ 职工姓名 }"))
	require.NoError(t, f.MergeCell(sheet, "A1", "B2"))
	require.NoError(t, f.SetCellStr(sheet, "C1", "出生日期: {出生日期}"))
	require.NoError(t, f.SetCellStr(sheet, "C2", "备注: {备注} / {电话}"))
	require.NoError(t, f.SetCellStr(sheet, "D3", "literal"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestWorkbook_DiscoverAndFill(t *testing.T) {
	wb, err := OpenReader(bytes.NewReader(templateBytes(t)))
	require.NoError(t, err)
	defer wb.Close()

	tokens, err := placeholder.Discover(wb.Grid())
	require.NoError(t, err)
	assert.Equal(t, []string{"职工姓名", "出生日期", "备注", "电话"}, tokens)

	mapping := model.MappingTable{"职工姓名": "姓名", "出生日期": "出生日期", "备注": "备注"}
	record := model.Record{"姓名": "王五", "出生日期": "1990-01-02", "备注": "无"}
	stats, err := placeholder.Fill(wb.Grid(), mapping, record)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Cells)
	assert.Equal(t, []string{"电话"}, stats.Unmapped)

	path := filepath.Join(t.TempDir(), "filled.xlsx")
	require.NoError(t, wb.SaveAs(path))

	out, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer out.Close()

	sheet := out.GetSheetName(0)
	want := map[string]string{
		"A1": "王五",
		"C1": "出生日期: 1990-01-02",
		"C2": "备注: 无 / ",
		"D3": "literal",
	}
	for cell, text := range want {
		got, err := out.GetCellValue(sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, text, got, "cell %s", cell)
	}

	// GetCellValue reports the anchor value for every merged member, so the
	// members are checked in the stored sheet instead.
	assert.Equal(t, []string{"A1", "C1", "C2", "D3"}, storedCells(t, path))

	merged, err := out.GetMergeCells(sheet)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
}

func TestWorkbook_MergedRegions(t *testing.T) {
	wb, err := OpenReader(bytes.NewReader(templateBytes(t)))
	require.NoError(t, err)
	defer wb.Close()

	regions, err := wb.Grid().MergedRegions()
	require.NoError(t, err)
	assert.Equal(t, []placeholder.Region{{Top: 0, Left: 0, Bottom: 1, Right: 1}}, regions)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

var cellRef = regexp.MustCompile(`<c r="([A-Z]+[0-9]+)"`)

// storedCells lists the cell references written to the first worksheet.
func storedCells(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "xl/worksheets/sheet1.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)

		var refs []string
		for _, m := range cellRef.FindAllSubmatch(data, -1) {
			refs = append(refs, string(m[1]))
		}
		return refs
	}
	t.Fatalf("worksheet missing from %s", path)
	return nil
}

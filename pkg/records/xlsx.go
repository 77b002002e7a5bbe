package records

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-docfill/pkg/model"
)

// XLSX reads records from a spreadsheet. The first row holds the column
// names; every following non-blank row becomes one record.
type XLSX struct {
	Path string
	// Sheet defaults to the first sheet of the workbook.
	Sheet string
	// Columns lists schema fields that must exist on every record. Fields
	// absent from the sheet are filled with "".
	Columns []string
}

var _ Source = XLSX{}

// Records reads the sheet.
func (x XLSX) Records(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("records: open %s: %w", filepath.Base(x.Path), err)
	}
	defer f.Close()

	sheet := x.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("records: %s has no sheets", filepath.Base(x.Path))
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("records: read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	var out []model.Record
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(model.Record, len(header)+len(x.Columns))
		for i, name := range header {
			if name == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec[name] = value
		}
		for _, col := range x.Columns {
			if _, ok := rec[col]; !ok {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

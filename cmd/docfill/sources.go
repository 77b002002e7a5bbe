package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goliatone/go-docfill/internal/config"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/records"
)

// recordSource picks the record source from --records: spreadsheets are read
// with the xlsx source, SQLite files with the SQL source. Without a path the
// configured database is used.
func recordSource(cfg config.Config, path string, ids []string, columns []string) (records.Source, func(), error) {
	noop := func() {}
	if path == "" {
		path = cfg.Records.Database
	}
	if path == "" {
		return nil, noop, errors.New("no record source: pass --records or set records.database")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		if len(ids) > 0 {
			return nil, noop, errors.New("--ids only applies to database sources")
		}
		return records.XLSX{Path: path, Columns: columns}, noop, nil
	case ".db", ".sqlite", ".sqlite3":
		db, err := records.OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		src := records.SQL{DB: db, Query: cfg.Records.Query, KeyColumn: cfg.Records.KeyColumn, IDs: ids}
		if len(ids) > 0 && src.KeyColumn == "" {
			src.KeyColumn = "id"
		}
		return src, func() { _ = db.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unsupported record source %q", path)
	}
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|\s]+`)

// outputName names the artifact of record i: the key column value when the
// record has one, the 1-based index otherwise.
func outputName(template string, i int, rec model.Record, keyColumn string) string {
	suffix := fmt.Sprintf("%03d", i+1)
	if keyColumn != "" {
		if v := strings.TrimSpace(rec[keyColumn]); v != "" {
			suffix = v
		}
	}
	return unsafeName.ReplaceAllString(template+"_"+suffix, "_")
}

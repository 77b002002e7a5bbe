package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-docfill/pkg/model"
)

// DefaultQuery selects the personnel table.
const DefaultQuery = "SELECT * FROM personnel"

var identifierPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// SQL reads records from a database query. Every column becomes a field;
// NULL values become "".
type SQL struct {
	DB    *sql.DB
	Query string
	// KeyColumn and IDs restrict the result to the listed keys.
	KeyColumn string
	IDs       []string
}

var _ Source = SQL{}

// OpenSQLite opens a SQLite database file for use with SQL.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("records: open %s: %w", path, err)
	}
	return db, nil
}

// Records runs the query.
func (s SQL) Records(ctx context.Context) ([]model.Record, error) {
	if s.DB == nil {
		return nil, errors.New("records: database handle is required")
	}
	query, args, err := s.statement()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("records: columns: %w", err)
	}
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	var out []model.Record
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("records: scan: %w", err)
		}
		rec := make(model.Record, len(columns))
		for i, col := range columns {
			rec[col] = values[i].String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: rows: %w", err)
	}
	return out, nil
}

func (s SQL) statement() (string, []any, error) {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		query = DefaultQuery
	}
	if len(s.IDs) == 0 {
		return query, nil, nil
	}
	if !identifierPattern.MatchString(s.KeyColumn) {
		return "", nil, fmt.Errorf("records: invalid key column %q", s.KeyColumn)
	}
	placeholders := make([]string, len(s.IDs))
	args := make([]any, len(s.IDs))
	for i, id := range s.IDs {
		placeholders[i] = "?"
		args[i] = id
	}
	filtered := fmt.Sprintf(`SELECT * FROM (%s) WHERE "%s" IN (%s)`, query, s.KeyColumn, strings.Join(placeholders, ", "))
	return filtered, args, nil
}

package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-docfill/pkg/model"
)

const createTemplatesTable = `
CREATE TABLE IF NOT EXISTS templates (
	name TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLStore persists templates in a SQL database. Payloads are stored as JSON.
type SQLStore struct {
	db   *sql.DB
	own  bool
	opts options
}

var _ Registry = (*SQLStore)(nil)

// OpenSQLite opens (creating when needed) a SQLite database file.
func OpenSQLite(path string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", path, err)
	}
	store, err := NewSQLStore(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.own = true
	return store, nil
}

// NewSQLStore wraps an existing database handle and ensures the table exists.
func NewSQLStore(db *sql.DB, opts ...Option) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("registry: database handle is required")
	}
	if _, err := db.Exec(createTemplatesTable); err != nil {
		return nil, fmt.Errorf("registry: create templates table: %w", err)
	}
	return &SQLStore{db: db, opts: newOptions(opts)}, nil
}

// Close releases the database when the store opened it.
func (s *SQLStore) Close() error {
	if !s.own {
		return nil
	}
	return s.db.Close()
}

// Get returns the named template.
func (s *SQLStore) Get(ctx context.Context, name string) (model.Template, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM templates WHERE name = ?`, strings.TrimSpace(name)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Template{}, notFound(name)
	}
	if err != nil {
		return model.Template{}, fmt.Errorf("registry: get %q: %w", name, err)
	}
	var tpl model.Template
	if err := json.Unmarshal([]byte(payload), &tpl); err != nil {
		return model.Template{}, fmt.Errorf("registry: decode %q: %w", name, err)
	}
	tpl.InferKind()
	return tpl, nil
}

// Put upserts a template inside a transaction.
func (s *SQLStore) Put(ctx context.Context, tpl model.Template) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registry: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing *model.Template
	var created string
	switch scanErr := tx.QueryRowContext(ctx, `SELECT created_at FROM templates WHERE name = ?`, strings.TrimSpace(tpl.Name)).Scan(&created); {
	case scanErr == nil:
		var ts model.Timestamp
		if err := ts.UnmarshalText([]byte(created)); err == nil {
			existing = &model.Template{CreatedAt: ts}
		}
	case !errors.Is(scanErr, sql.ErrNoRows):
		return fmt.Errorf("registry: lookup %q: %w", tpl.Name, scanErr)
	}

	prepared, err := prepare(tpl, existing, s.opts.clock)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(prepared)
	if err != nil {
		return fmt.Errorf("registry: encode %q: %w", prepared.Name, err)
	}
	stamp, _ := prepared.CreatedAt.MarshalText()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO templates (name, kind, payload, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, payload = excluded.payload`,
		prepared.Name, string(prepared.Kind), string(payload), string(stamp))
	if err != nil {
		return fmt.Errorf("registry: put %q: %w", prepared.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("registry: commit: %w", err)
	}
	return nil
}

// Delete removes a template.
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("registry: delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("registry: delete %q: %w", name, err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

// List returns the registered names in sorted order.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("registry: list: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

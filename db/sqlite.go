// sqlite.go implements the default dataset store: an embedded SQLite
// database (modernc.org/sqlite, pure Go, no cgo).
//
// The default path is an in-memory database, so datasets vanish with
// the process. Set database.sqlite_path in the config for a file-backed
// store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite wraps a database/sql handle for the embedded engine.
type SQLite struct {
	db *sql.DB
}

var _ Executor = (*SQLite)(nil)

// OpenSQLite opens (or creates) a SQLite database. An empty path opens
// an in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// In-memory databases live per-connection; a second pooled connection
	// would see an empty schema.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "SQLite" }

// Execute runs a single SQL statement. Row-returning statements go through
// Query; everything else (CREATE, INSERT, ...) through Exec, since
// database/sql distinguishes the two.
func (s *SQLite) Execute(ctx context.Context, sqlText string) (*Result, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return nil, fmt.Errorf("empty query")
	}

	if !returnsRows(sqlText) {
		res, err := s.db.ExecContext(ctx, sqlText)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		return &Result{
			Status: fmt.Sprintf("(%d row%s affected)", affected, plural(int(affected))),
		}, nil
	}

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// DropAllTables removes every user table, skipping SQLite's internal ones.
func (s *SQLite) DropAllTables(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// Close shuts down the database handle.
func (s *SQLite) Close() {
	s.db.Close()
}

// returnsRows reports whether a statement produces a result set.
func returnsRows(sqlText string) bool {
	head := strings.ToUpper(sqlText)
	for _, kw := range []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(head, kw) {
			return true
		}
	}
	return false
}

// collectRows decodes a database/sql result set into generic maps.
func collectRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.Status = fmt.Sprintf("(%d row%s)", result.RowCount, plural(result.RowCount))
	return result, nil
}

// normalizeValue turns driver byte slices into strings so JSON
// serialization produces readable values instead of base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

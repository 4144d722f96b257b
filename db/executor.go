// Package db provides SQL execution against the loaded dataset store.
//
// Design decisions:
//   - Executor is an interface so the chat orchestrator and TUI stay
//     unaware of the backing engine. The default is an embedded SQLite
//     database; an existing PostgreSQL database can be used instead.
//   - All functions accept a context and return structured results that
//     the TUI layer can render. Errors are returned, never logged or printed.
//   - Rows are decoded into generic maps so tool results can be serialized
//     back into the model-facing conversation as JSON.
package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result holds the output of an arbitrary SQL statement.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int
	Status   string // e.g. "(5 rows)", "(120 rows affected)"
}

// Executor runs SQL statements against the dataset store.
type Executor interface {
	// Execute runs a single SQL statement and returns its results.
	Execute(ctx context.Context, sql string) (*Result, error)

	// DropAllTables removes every user table, used by "clear conversation".
	DropAllTables(ctx context.Context) error

	// Name returns the backend name for display.
	Name() string

	// Close releases the underlying connection.
	Close()
}

// JSONRows serializes the result rows as indented JSON, truncating to at
// most limit rows. The model-facing context must never grow unboundedly,
// so callers pass the configured row cap; limit <= 0 means no truncation.
func (r *Result) JSONRows(limit int) (string, error) {
	rows := r.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize rows: %w", err)
	}
	return string(data), nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

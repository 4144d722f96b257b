package db

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestSQLiteExecute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Execute(ctx, "CREATE TABLE museums (name text, visitors real)")
	require.NoError(t, err)

	res, err := store.Execute(ctx,
		"INSERT INTO museums (name, visitors) VALUES ('Louvre', 120), ('Prado', NULL)")
	require.NoError(t, err)
	assert.Equal(t, "(2 rows affected)", res.Status)

	res, err = store.Execute(ctx, "SELECT name, visitors FROM museums ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "visitors"}, res.Columns)
	require.Equal(t, 2, res.RowCount)
	assert.Equal(t, "Louvre", res.Rows[0]["name"])
	assert.Equal(t, "(2 rows)", res.Status)
	assert.Nil(t, res.Rows[1]["visitors"])
}

func TestSQLiteExecuteErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	t.Run("empty statement", func(t *testing.T) {
		_, err := store.Execute(ctx, "   ")
		assert.Error(t, err)
	})

	t.Run("invalid sql", func(t *testing.T) {
		_, err := store.Execute(ctx, "SELECT missing FROM nowhere")
		assert.Error(t, err)
	})
}

func TestSQLiteDropAllTables(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Execute(ctx, "CREATE TABLE a (x text)")
	require.NoError(t, err)
	_, err = store.Execute(ctx, "CREATE TABLE b (y text)")
	require.NoError(t, err)

	require.NoError(t, store.DropAllTables(ctx))

	res, err := store.Execute(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowCount)

	// Dropping an empty store is a no-op, not an error.
	assert.NoError(t, store.DropAllTables(ctx))
}

func TestJSONRows(t *testing.T) {
	t.Parallel()

	res := &Result{Rows: []map[string]any{
		{"n": 1}, {"n": 2}, {"n": 3},
	}}

	t.Run("truncated at limit", func(t *testing.T) {
		t.Parallel()
		payload, err := res.JSONRows(2)
		require.NoError(t, err)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &rows))
		assert.Len(t, rows, 2)
	})

	t.Run("no truncation when limit is zero", func(t *testing.T) {
		t.Parallel()
		payload, err := res.JSONRows(0)
		require.NoError(t, err)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &rows))
		assert.Len(t, rows, 3)
	})

	t.Run("nil rows serialize as empty array", func(t *testing.T) {
		t.Parallel()
		payload, err := (&Result{}).JSONRows(5)
		require.NoError(t, err)
		assert.JSONEq(t, "[]", payload)
	})
}

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredResponse(t *testing.T) {
	t.Parallel()

	t.Run("final answer", func(t *testing.T) {
		t.Parallel()
		resp, err := ParseStructuredResponse(
			`{"function_call_required": false, "content": "42 rows."}`)
		require.NoError(t, err)
		assert.False(t, resp.FunctionCallRequired)
		assert.Equal(t, "42 rows.", resp.Content)
	})

	t.Run("sql call inside markdown fence", func(t *testing.T) {
		t.Parallel()
		raw := "Here you go:\n```json\n" +
			`{"function_call_required": true, "function_call_name": "executeSql",` +
			`"sql_args": {"sql": "SELECT COUNT(*) FROM trips"}}` +
			"\n```"
		resp, err := ParseStructuredResponse(raw)
		require.NoError(t, err)
		assert.True(t, resp.FunctionCallRequired)
		assert.Equal(t, ToolExecuteSQL, resp.FunctionCallName)
		require.NotNil(t, resp.SQLArgs)
		assert.Equal(t, "SELECT COUNT(*) FROM trips", resp.SQLArgs.SQL)
	})

	t.Run("chart call with nested braces", func(t *testing.T) {
		t.Parallel()
		raw := `{"function_call_required": true, "function_call_name": "generateChart",
			"content": "Trips per month.",
			"chart_args": {"config": {"type": "bar",
				"data": {"labels": ["Jan", "Feb"],
					"datasets": [{"label": "trips", "data": [10, 20]}]}}}}`
		resp, err := ParseStructuredResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, ToolGenerateChart, resp.FunctionCallName)
		require.NotNil(t, resp.ChartArgs)
		require.NotNil(t, resp.ChartArgs.Config)
		assert.Equal(t, "bar", resp.ChartArgs.Config.Type)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		t.Parallel()
		_, err := ParseStructuredResponse("I cannot answer that.")
		assert.Error(t, err)
	})
}

func TestStructuredResponseValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    StructuredResponse
		wantErr bool
	}{
		{
			name: "final answer with empty content is fine",
			resp: StructuredResponse{},
		},
		{
			name: "stray args on a final answer are ignored",
			resp: StructuredResponse{Content: "done", SQLArgs: &SQLArgs{SQL: "SELECT 1"}},
		},
		{
			name:    "call without name",
			resp:    StructuredResponse{FunctionCallRequired: true},
			wantErr: true,
		},
		{
			name: "executeSql without args",
			resp: StructuredResponse{
				FunctionCallRequired: true,
				FunctionCallName:     ToolExecuteSQL,
			},
			wantErr: true,
		},
		{
			name: "executeSql with blank sql",
			resp: StructuredResponse{
				FunctionCallRequired: true,
				FunctionCallName:     ToolExecuteSQL,
				SQLArgs:              &SQLArgs{SQL: "   "},
			},
			wantErr: true,
		},
		{
			name: "generateChart without config",
			resp: StructuredResponse{
				FunctionCallRequired: true,
				FunctionCallName:     ToolGenerateChart,
				ChartArgs:            &ChartArgs{},
			},
			wantErr: true,
		},
		{
			name: "generateChart without type",
			resp: StructuredResponse{
				FunctionCallRequired: true,
				FunctionCallName:     ToolGenerateChart,
				ChartArgs:            &ChartArgs{Config: &ChartConfig{}},
			},
			wantErr: true,
		},
		{
			name: "unknown function",
			resp: StructuredResponse{
				FunctionCallRequired: true,
				FunctionCallName:     "dropAllTables",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.resp.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	t.Run("plain fence without language", func(t *testing.T) {
		t.Parallel()
		got := extractJSON("```\n{\"a\": 1}\n```")
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("braces inside string values", func(t *testing.T) {
		t.Parallel()
		raw := `noise {"sql": "SELECT 1"} trailing`
		assert.Equal(t, `{"sql": "SELECT 1"}`, extractJSON(raw))
	})
}

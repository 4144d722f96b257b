package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The placeholder provider returns valid structured JSON, which makes it
// a convenient end-to-end fixture for the client.

func TestStructuredClientGenerate(t *testing.T) {
	t.Parallel()

	client := NewStructuredClient(NewPlaceholder(), 5)
	resp, err := client.Generate(context.Background(), "CREATE TABLE t (a text)", []Message{
		{Role: "user", Content: "how many rows?"},
	})
	require.NoError(t, err)
	assert.False(t, resp.FunctionCallRequired)
	assert.Contains(t, resp.Content, "how many rows?")
}

func TestStructuredClientInferTable(t *testing.T) {
	t.Parallel()

	preview := "Name,Visit Date,Total Visitors\nLouvre,2021-03-01,120"
	client := NewStructuredClient(NewPlaceholder(), 5)

	plan, err := client.InferTable(context.Background(), preview, "museums.csv")
	require.NoError(t, err)
	assert.Equal(t, "dataset", plan.TableName)
	assert.Equal(t, []string{"name", "visit_date", "total_visitors"}, plan.Columns)
	assert.True(t, strings.HasPrefix(plan.SQL, "CREATE TABLE dataset"))
	assert.Len(t, plan.AnalyticsQuestions, 3)
}

func TestStructuredClientCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewStructuredClient(NewPlaceholder(), 5)
	_, err := client.Generate(ctx, "", []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatSystemPrompt(t *testing.T) {
	t.Parallel()

	t.Run("embeds schema and row limit", func(t *testing.T) {
		t.Parallel()
		prompt := ChatSystemPrompt("CREATE TABLE trips (n int)", 5)
		assert.Contains(t, prompt, "CREATE TABLE trips (n int)")
		assert.Contains(t, prompt, "5")
		assert.Contains(t, prompt, "executeSql")
		assert.Contains(t, prompt, "generateChart")
	})

	t.Run("empty schema has a fallback", func(t *testing.T) {
		t.Parallel()
		prompt := ChatSystemPrompt("", 5)
		assert.NotContains(t, prompt, "%s")
	})
}

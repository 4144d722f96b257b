package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns canned responses in order. It records every
// outgoing history so tests can assert what the model would have seen.
type scriptedClient struct {
	responses []*ai.StructuredResponse
	errs      []error
	histories [][]ai.Message
}

func (s *scriptedClient) Generate(_ context.Context, _ string, turns []ai.Message) (*ai.StructuredResponse, error) {
	copied := make([]ai.Message, len(turns))
	copy(copied, turns)
	s.histories = append(s.histories, copied)

	call := len(s.histories) - 1
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	if call < len(s.responses) {
		return s.responses[call], nil
	}
	return nil, errors.New("no scripted response left")
}

func (s *scriptedClient) calls() int { return len(s.histories) }

// stubExecutor returns one fixed result or error and records statements.
type stubExecutor struct {
	result   *db.Result
	err      error
	executed []string
}

func (e *stubExecutor) Execute(_ context.Context, sql string) (*db.Result, error) {
	e.executed = append(e.executed, sql)
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func answer(text string) *ai.StructuredResponse {
	return &ai.StructuredResponse{Content: text}
}

func sqlCall(sql string) *ai.StructuredResponse {
	return &ai.StructuredResponse{
		FunctionCallRequired: true,
		FunctionCallName:     ai.ToolExecuteSQL,
		SQLArgs:              &ai.SQLArgs{SQL: sql},
	}
}

func chartCall(summary string) *ai.StructuredResponse {
	return &ai.StructuredResponse{
		FunctionCallRequired: true,
		FunctionCallName:     ai.ToolGenerateChart,
		Content:              summary,
		ChartArgs: &ai.ChartArgs{Config: &ai.ChartConfig{
			Type: "bar",
			Data: map[string]any{"labels": []any{"a", "b"}},
		}},
	}
}

func newTurn(t *testing.T, question string) *Conversation {
	t.Helper()
	c := NewConversation(0)
	require.NoError(t, c.AppendUserTurn(question))
	return c
}

func TestRunPlainAnswer(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []*ai.StructuredResponse{
		answer("The dataset covers 2019 to 2024."),
	}}
	conv := newTurn(t, "what years are covered?")
	orch := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)

	require.NoError(t, orch.Run(context.Background()))
	assert.Equal(t, StateDone, orch.State())
	assert.Equal(t, 1, client.calls())

	visible := conv.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "The dataset covers 2019 to 2024.", visible[1].Text)
}

func TestRunSQLContinuation(t *testing.T) {
	t.Parallel()

	rows := make([]map[string]any, 7)
	for i := range rows {
		rows[i] = map[string]any{"n": i}
	}
	executor := &stubExecutor{result: &db.Result{
		Columns:  []string{"n"},
		Rows:     rows,
		RowCount: len(rows),
	}}
	client := &scriptedClient{responses: []*ai.StructuredResponse{
		sqlCall("SELECT n FROM t"),
		answer("Seven values."),
	}}
	conv := newTurn(t, "list the values")
	orch := NewOrchestrator(client, executor, conv, 5, 5)

	require.NoError(t, orch.Run(context.Background()))
	assert.Equal(t, StateDone, orch.State())
	require.Equal(t, 2, client.calls())
	assert.Equal(t, []string{"SELECT n FROM t"}, executor.executed)

	// The second request carries the tool exchange: the assistant turn
	// asking for the result and the synthetic user turn with the rows.
	second := client.histories[1]
	require.Len(t, second, 3)
	assert.Equal(t, "assistant", second[1].Role)
	assert.Contains(t, second[1].Content, "Please give me the result of your SQL query:")
	assert.Contains(t, second[1].Content, "SELECT n FROM t")
	assert.Equal(t, "user", second[2].Role)

	// Row cap applied before serialization.
	var payload []map[string]any
	require.NoError(t, json.Unmarshal([]byte(second[2].Content), &payload))
	assert.Len(t, payload, 5)

	// The exchange stays out of the rendered transcript.
	for _, e := range conv.Visible() {
		assert.NotEqual(t, EventToolExchange, e.Kind)
	}
}

func TestRunChartEndsTurn(t *testing.T) {
	t.Parallel()

	t.Run("with summary", func(t *testing.T) {
		t.Parallel()
		client := &scriptedClient{responses: []*ai.StructuredResponse{
			chartCall("Sales by region."),
		}}
		conv := newTurn(t, "chart sales by region")
		orch := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)

		require.NoError(t, orch.Run(context.Background()))
		assert.Equal(t, StateDone, orch.State())
		assert.Equal(t, 1, client.calls(), "the model is never re-invoked after a chart")

		visible := conv.Visible()
		require.Len(t, visible, 3)
		assert.Equal(t, EventChart, visible[1].Kind)
		assert.Equal(t, "Sales by region.", visible[2].Text)
	})

	t.Run("without summary", func(t *testing.T) {
		t.Parallel()
		client := &scriptedClient{responses: []*ai.StructuredResponse{
			chartCall(""),
			answer("The top region is north."),
		}}
		conv := newTurn(t, "chart it")
		orch := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)

		require.NoError(t, orch.Run(context.Background()))
		assert.Equal(t, StateDone, orch.State())
		require.Len(t, conv.Visible(), 2)
		assert.Equal(t, EventChart, conv.Visible()[1].Kind)

		// A follow-up question after the chart-only turn goes through
		// and is answered without re-generating the chart.
		require.NoError(t, conv.AppendUserTurn("which region leads?"))
		orch2 := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)
		require.NoError(t, orch2.Run(context.Background()))

		var charts int
		for _, e := range conv.Visible() {
			if e.Kind == EventChart {
				charts++
			}
		}
		assert.Equal(t, 1, charts)
		assert.Equal(t, "The top region is north.", conv.Visible()[3].Text)
	})
}

func TestRunSQLFailure(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{err: errors.New(`no such column: "regoin"`)}
	client := &scriptedClient{responses: []*ai.StructuredResponse{
		sqlCall("SELECT regoin FROM t"),
	}}
	conv := newTurn(t, "sales by region")
	orch := NewOrchestrator(client, executor, conv, 5, 5)

	err := orch.Run(context.Background())
	require.ErrorIs(t, err, ErrSQLExecution)
	assert.Equal(t, StateFailed, orch.State())
	assert.Equal(t, 1, client.calls(), "a broken query is not resubmitted")

	visible := conv.Visible()
	last := visible[len(visible)-1]
	assert.Equal(t, EventStatus, last.Kind)
	assert.Contains(t, last.Text, "I couldn't run that query")

	// The failure notice stays out of the model history, so a retry
	// starts from a clean alternation.
	turns := conv.ModelTurns()
	require.Len(t, turns, 1)
	assert.Equal(t, "user", turns[0].Role)
}

func TestRunCompletionFailure(t *testing.T) {
	t.Parallel()

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()
		client := &scriptedClient{errs: []error{errors.New("api: 500")}}
		conv := newTurn(t, "anything")
		orch := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)

		err := orch.Run(context.Background())
		require.ErrorIs(t, err, ErrCompletionFailed)
		assert.Equal(t, StateFailed, orch.State())

		visible := conv.Visible()
		last := visible[len(visible)-1]
		assert.Equal(t, EventStatus, last.Kind)
		assert.Equal(t, completionFailedNotice, last.Text)
	})

	t.Run("malformed response from client", func(t *testing.T) {
		t.Parallel()
		// Claims a function call but carries no name or args.
		client := &scriptedClient{responses: []*ai.StructuredResponse{
			{FunctionCallRequired: true},
		}}
		conv := newTurn(t, "anything")
		orch := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)

		err := orch.Run(context.Background())
		require.ErrorIs(t, err, ErrCompletionFailed)
		assert.Equal(t, StateFailed, orch.State())
	})
}

func TestRunRecursionLimit(t *testing.T) {
	t.Parallel()

	const maxDepth = 2

	executor := &stubExecutor{result: &db.Result{
		Columns:  []string{"n"},
		Rows:     []map[string]any{{"n": 1}},
		RowCount: 1,
	}}
	var responses []*ai.StructuredResponse
	for i := 0; i <= maxDepth+1; i++ {
		responses = append(responses, sqlCall(fmt.Sprintf("SELECT %d", i)))
	}
	client := &scriptedClient{responses: responses}
	conv := newTurn(t, "keep querying")
	orch := NewOrchestrator(client, executor, conv, maxDepth, 5)

	err := orch.Run(context.Background())
	require.ErrorIs(t, err, ErrRecursionLimit)
	assert.Equal(t, StateFailed, orch.State())
	assert.Equal(t, maxDepth+1, client.calls())

	visible := conv.Visible()
	last := visible[len(visible)-1]
	assert.Equal(t, EventStatus, last.Kind)
	assert.Equal(t, recursionLimitNotice, last.Text)
}

func TestRunCancellation(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{responses: []*ai.StructuredResponse{
		answer("never delivered"),
	}}
	conv := newTurn(t, "anything")
	before := len(conv.Events())
	orch := NewOrchestrator(client, &stubExecutor{}, conv, 5, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := orch.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, orch.State())
	assert.Equal(t, 0, client.calls())
	// Cancellation leaves the conversation exactly as it was.
	assert.Len(t, conv.Events(), before)
}

func TestNewOrchestratorDefaults(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(&scriptedClient{}, &stubExecutor{}, NewConversation(0), 0, 0)
	assert.Equal(t, 5, orch.maxDepth)
	assert.Equal(t, 5, orch.rowLimit)
	assert.Equal(t, StateAwaitingModel, orch.State())
}

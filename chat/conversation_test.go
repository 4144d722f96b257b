package chat

import (
	"testing"

	"github.com/askdata/askdata/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationAlternation(t *testing.T) {
	t.Parallel()

	t.Run("consecutive user turns rejected", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("first"))
		err := c.AppendUserTurn("second")
		assert.ErrorIs(t, err, ErrProtocolViolation)
	})

	t.Run("consecutive assistant turns rejected", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("question"))
		require.NoError(t, c.AppendAssistantText("answer"))
		err := c.AppendAssistantText("another answer")
		assert.ErrorIs(t, err, ErrProtocolViolation)
	})

	t.Run("tool exchange after assistant rejected", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("question"))
		require.NoError(t, c.AppendAssistantText("answer"))
		err := c.AppendToolExchange("SELECT 1", "[]")
		assert.ErrorIs(t, err, ErrProtocolViolation)
	})

	t.Run("tool exchange preserves alternation", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("question"))
		require.NoError(t, c.AppendToolExchange("SELECT 1", "[]"))
		// The exchange ends with a synthetic user turn, so the next
		// assistant append is legal and the next user append is not.
		assert.Error(t, c.AppendUserTurn("impatient"))
		assert.NoError(t, c.AppendAssistantText("answer"))
	})
}

func TestConversationProjections(t *testing.T) {
	t.Parallel()

	c := NewConversation(0)
	require.NoError(t, c.AppendUserTurn("how many rows?"))
	require.NoError(t, c.AppendToolExchange("SELECT COUNT(*) FROM t", `[{"count": 42}]`))
	require.NoError(t, c.AppendAssistantText("There are 42 rows."))
	c.AppendStatus("something transient")

	t.Run("visible hides tool exchanges", func(t *testing.T) {
		t.Parallel()
		visible := c.Visible()
		require.Len(t, visible, 3)
		assert.Equal(t, EventUserText, visible[0].Kind)
		assert.Equal(t, EventAssistantText, visible[1].Kind)
		assert.Equal(t, EventStatus, visible[2].Kind)
	})

	t.Run("model turns expand tool exchanges", func(t *testing.T) {
		t.Parallel()
		turns := c.ModelTurns()
		require.Len(t, turns, 4)
		assert.Equal(t, "user", turns[0].Role)
		assert.Equal(t, "assistant", turns[1].Role)
		assert.Equal(t, toolResultPrompt+"SELECT COUNT(*) FROM t", turns[1].Content)
		assert.Equal(t, "user", turns[2].Role)
		assert.JSONEq(t, `[{"count": 42}]`, turns[2].Content)
		assert.Equal(t, "assistant", turns[3].Role)
	})

	t.Run("status never reaches the model", func(t *testing.T) {
		t.Parallel()
		for _, turn := range c.ModelTurns() {
			assert.NotEqual(t, "something transient", turn.Content)
		}
	})
}

func TestModelTurnsWindow(t *testing.T) {
	t.Parallel()

	c := NewConversation(3)
	require.NoError(t, c.AppendUserTurn("q1"))
	require.NoError(t, c.AppendAssistantText("a1"))
	require.NoError(t, c.AppendUserTurn("q2"))
	require.NoError(t, c.AppendAssistantText("a2"))

	// Window of 3 would start with a1; the leading assistant turn is
	// dropped so the outgoing history starts user-first.
	turns := c.ModelTurns()
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "q2", turns[0].Content)

	// The full event log is untouched by trimming.
	assert.Len(t, c.Visible(), 4)
}

func TestChartMessage(t *testing.T) {
	t.Parallel()

	cfg := &ai.ChartConfig{Type: "bar", Data: map[string]any{}}

	t.Run("with summary", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("chart it"))
		require.NoError(t, c.AppendChartMessage(cfg, "Here is the chart."))

		visible := c.Visible()
		require.Len(t, visible, 3)
		assert.Equal(t, EventChart, visible[1].Kind)
		assert.Same(t, cfg, visible[1].Chart)

		// Only the summary text enters the model history.
		turns := c.ModelTurns()
		require.Len(t, turns, 2)
		assert.Equal(t, "Here is the chart.", turns[1].Content)
	})

	t.Run("without summary", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("chart it"))
		require.NoError(t, c.AppendChartMessage(cfg, ""))

		assert.Len(t, c.Visible(), 2)

		// The model sees a stand-in assistant turn for the chart, so
		// the history keeps alternating.
		turns := c.ModelTurns()
		require.Len(t, turns, 2)
		assert.Equal(t, string(RoleAssistant), turns[1].Role)
		assert.Equal(t, chartDisplayedMarker, turns[1].Content)
	})

	t.Run("after assistant turn", func(t *testing.T) {
		t.Parallel()
		c := NewConversation(0)
		require.NoError(t, c.AppendUserTurn("chart it"))
		require.NoError(t, c.AppendAssistantText("done"))
		require.ErrorIs(t, c.AppendChartMessage(cfg, ""), ErrProtocolViolation)
	})
}

func TestFollowUpAfterChartOnlyTurn(t *testing.T) {
	t.Parallel()

	cfg := &ai.ChartConfig{Type: "pie", Data: map[string]any{}}
	c := NewConversation(0)
	require.NoError(t, c.AppendUserTurn("chart visits by museum"))
	require.NoError(t, c.AppendChartMessage(cfg, ""))

	// A chart with no accompanying text still ends the assistant's turn:
	// the next question must be accepted, not rejected as consecutive.
	require.NoError(t, c.AppendUserTurn("now just the top three"))

	var charts int
	for _, e := range c.Visible() {
		if e.Kind == EventChart {
			charts++
		}
	}
	assert.Equal(t, 1, charts)

	turns := c.ModelTurns()
	require.Len(t, turns, 3)
	assert.Equal(t, string(RoleUser), turns[2].Role)
	assert.Equal(t, "now just the top three", turns[2].Content)
}

func TestConversationReset(t *testing.T) {
	t.Parallel()

	c := NewConversation(0)
	c.SetSchema("CREATE TABLE t (a text)")
	c.SetSuggestedQuestions([]string{"one", "two", "three"})
	require.NoError(t, c.AppendUserTurn("hello"))

	c.Reset()

	assert.Empty(t, c.Events())
	assert.Empty(t, c.Schema())
	assert.Empty(t, c.SuggestedQuestions())
	// Alternation tracking restarts too.
	assert.NoError(t, c.AppendUserTurn("hello again"))
}

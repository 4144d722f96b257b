package tui

import (
	"strings"
	"testing"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/chat"
	"github.com/askdata/askdata/config"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatView() *ChatView {
	client := ai.NewStructuredClient(ai.NewPlaceholder(), 5)
	return NewChatView(chat.NewConversation(0), client, &fakeExecutor{}, config.Default().Chat)
}

func TestWrapLines(t *testing.T) {
	t.Parallel()

	t.Run("breaks on spaces", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"alpha", "beta gamma"}, wrapLines("alpha beta gamma", 10))
	})

	t.Run("never splits a wide rune", func(t *testing.T) {
		t.Parallel()
		text := "博物館の来場者数は毎年増加しています"
		lines := wrapLines(text, 10)
		require.Greater(t, len(lines), 1)
		for _, l := range lines {
			assert.LessOrEqual(t, runewidth.StringWidth(l), 10)
		}
		assert.Equal(t, text, strings.Join(lines, ""))
	})

	t.Run("short line untouched", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"ok"}, wrapLines("ok", 10))
	})
}

func TestChatInputBackspaceMultibyte(t *testing.T) {
	t.Parallel()

	v := newTestChatView()
	v.input = "café"
	_, _ = v.handleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "caf", v.input)

	v.input = "日本"
	_, _ = v.handleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "日", v.input)
}

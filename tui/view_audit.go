// view_audit.go implements the internal history inspector.
//
// Shows the model-facing side of the conversation: the trimmed turn
// sequence that actually goes out with each completion request,
// including the synthetic SQL tool exchanges the chat view hides.
// Rebuilt on every tab switch and on demand with 'r'.
package tui

import (
	"fmt"
	"strings"

	"github.com/askdata/askdata/chat"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type AuditView struct {
	conv     *chat.Conversation
	viewport *Viewport
	width    int
	height   int
}

func NewAuditView(conv *chat.Conversation) *AuditView {
	return &AuditView{
		conv:     conv,
		viewport: NewViewport(80, 20),
	}
}

func (v *AuditView) Name() string         { return "Audit" }
func (v *AuditView) WantsTextInput() bool { return false }

func (v *AuditView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-2)
}

func (v *AuditView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "r", Desc: "refresh"},
		{Key: "w", Desc: "wrap"},
		{Key: "↑/↓", Desc: "scroll"},
	}
}

func (v *AuditView) Init() tea.Cmd {
	v.refresh()
	return nil
}

func (v *AuditView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *AuditView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "r":
		v.refresh()
	case "w":
		v.viewport.ToggleWrap()
	case "up", "k":
		v.viewport.ScrollUp(1)
	case "down", "j":
		v.viewport.ScrollDown(1)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "home":
		v.viewport.Home()
	case "end":
		v.viewport.End()
	}
	return v, nil
}

func (v *AuditView) refresh() {
	var lines []string

	roleStyle := map[string]lipgloss.Style{
		"user":      StyleUserLabel,
		"assistant": StyleAssistantLabel,
	}

	if schema := v.conv.Schema(); schema != "" {
		lines = append(lines, StyleDimmed.Render("── schema context ──"))
		lines = append(lines, strings.Split(schema, "\n")...)
		lines = append(lines, "")
	}

	turns := v.conv.ModelTurns()
	lines = append(lines, StyleDimmed.Render(
		fmt.Sprintf("── outgoing history (%d turns) ──", len(turns))))

	for i, turn := range turns {
		style, ok := roleStyle[turn.Role]
		if !ok {
			style = StyleDimmed
		}
		lines = append(lines, "",
			style.Render(fmt.Sprintf("[%d] %s", i, turn.Role)))
		for _, l := range strings.Split(turn.Content, "\n") {
			lines = append(lines, "  "+l)
		}
	}

	v.viewport.SetContentLines(lines)
}

func (v *AuditView) View() string {
	header := "  " + StyleTitle.Render("🔍 Model History") +
		StyleDimmed.Render("  (what the model actually receives)")

	return lipgloss.JoinVertical(lipgloss.Left, header, v.viewport.Render())
}

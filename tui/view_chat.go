// view_chat.go implements the conversational view over the loaded dataset.
//
// The user types a question, the orchestrator runs the full
// model/tool cycle in a background command, and the transcript is
// re-rendered from the conversation's visible projection when the
// turn completes. SQL exchanges never appear here; they are shown in
// the audit view.
package tui

import (
	"context"
	"strings"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/chat"
	"github.com/askdata/askdata/config"
	"github.com/askdata/askdata/db"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type ChatView struct {
	conv     *chat.Conversation
	client   *ai.StructuredClient
	executor db.Executor
	chatCfg  config.ChatConfig

	viewport   *Viewport
	input      string
	running    bool
	cancel     context.CancelFunc
	suggestIdx int // next suggestion Tab inserts
	title      string
	width      int
	height     int
}

func NewChatView(conv *chat.Conversation, client *ai.StructuredClient, executor db.Executor, chatCfg config.ChatConfig) *ChatView {
	return &ChatView{
		conv:     conv,
		client:   client,
		executor: executor,
		chatCfg:  chatCfg,
		viewport: NewViewport(80, 20),
	}
}

// SetTitle records the loaded dataset's display name for the header.
func (v *ChatView) SetTitle(title string) {
	v.title = title
}

func (v *ChatView) Name() string { return "Chat" }

func (v *ChatView) WantsTextInput() bool { return true }

func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-5)
}

func (v *ChatView) ShortHelp() []KeyBinding {
	if v.running {
		return []KeyBinding{
			{Key: "Esc", Desc: "cancel"},
		}
	}
	help := []KeyBinding{
		{Key: "Enter", Desc: "ask"},
		{Key: "Ctrl+L", Desc: "clear chat"},
		{Key: "PgUp/PgDn", Desc: "scroll"},
	}
	if len(v.conv.SuggestedQuestions()) > 0 {
		help = append([]KeyBinding{{Key: "Tab", Desc: "suggestion"}}, help...)
	}
	return help
}

func (v *ChatView) Init() tea.Cmd {
	v.refresh()
	return nil
}

func (v *ChatView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case TurnCompleteMsg:
		v.running = false
		v.cancel = nil
		v.refresh()
		v.viewport.End()
		return v, nil
	}

	return v, nil
}

func (v *ChatView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	if v.running {
		if msg.String() == "esc" || msg.String() == "escape" {
			if v.cancel != nil {
				v.cancel()
			}
		}
		return v, nil
	}

	switch msg.String() {
	case "enter":
		return v, v.ask()
	case "tab":
		v.insertSuggestion()
	case "ctrl+l":
		v.input = ""
		return v, clearChat(v.executor)
	case "ctrl+k":
		v.viewport.ScrollUp(1)
	case "ctrl+j":
		v.viewport.ScrollDown(1)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "backspace":
		if runes := []rune(v.input); len(runes) > 0 {
			v.input = string(runes[:len(runes)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			v.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.input += " "
		}
	}
	return v, nil
}

// insertSuggestion cycles the suggested analytics questions into the
// input line.
func (v *ChatView) insertSuggestion() {
	questions := v.conv.SuggestedQuestions()
	if len(questions) == 0 {
		return
	}
	v.input = questions[v.suggestIdx%len(questions)]
	v.suggestIdx++
}

// ask appends the user turn and runs one full orchestrator cycle in
// the background.
func (v *ChatView) ask() tea.Cmd {
	text := strings.TrimSpace(v.input)
	if text == "" {
		return nil
	}

	if err := v.conv.AppendUserTurn(text); err != nil {
		// A cancelled run left the previous question pending. Run the
		// cycle for it and keep the new text in the input line.
		v.input = text
	} else {
		v.input = ""
	}
	v.running = true
	v.refresh()
	v.viewport.End()

	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	orch := chat.NewOrchestrator(v.client, v.executor, v.conv,
		v.chatCfg.MaxToolDepth, v.chatCfg.MaxRows)

	return func() tea.Msg {
		defer cancel()
		err := orch.Run(ctx)
		return TurnCompleteMsg{State: orch.State(), Err: err}
	}
}

// refresh rebuilds the transcript from the conversation's visible
// projection.
func (v *ChatView) refresh() {
	v.viewport.SetContentLines(v.renderTranscript())
}

func (v *ChatView) renderTranscript() []string {
	var lines []string

	header := StyleTitle.Render("💬 " + v.client.Name())
	if v.title != "" {
		header += StyleDimmed.Render("  ·  " + v.title)
	}
	lines = append(lines, header, "")

	events := v.conv.Visible()
	if len(events) == 0 {
		lines = append(lines,
			"Ask anything about the loaded data.",
			"",
			StyleDimmed.Render("Questions that need the data are answered by"),
			StyleDimmed.Render("running SQL behind the scenes."),
		)
	}

	wrapW := v.width - 6
	if wrapW < 20 {
		wrapW = 20
	}

	for _, e := range events {
		switch e.Kind {
		case chat.EventUserText:
			lines = append(lines, StyleUserLabel.Render("You: ")+e.Text, "")

		case chat.EventAssistantText:
			lines = append(lines, StyleAssistantLabel.Render("AI:"))
			for _, l := range wrapLines(e.Text, wrapW) {
				lines = append(lines, "  "+l)
			}
			lines = append(lines, "")

		case chat.EventStatus:
			lines = append(lines, StyleStatusPill.Render("· "+e.Text+" ·"), "")

		case chat.EventChart:
			lines = append(lines, RenderChart(e.Chart, wrapW)...)
			lines = append(lines, "")
		}
	}

	if v.running {
		lines = append(lines, StyleDimmed.Render("  ⏳ Thinking..."))
	}

	return lines
}

// wrapLines splits text into lines no wider than width display cells,
// breaking on spaces where possible.
func wrapLines(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for width > 0 && runewidth.StringWidth(line) > width {
			head := runewidth.Truncate(line, width, "")
			if head == "" {
				break
			}
			if cut := strings.LastIndex(head, " "); cut > 0 {
				head = head[:cut]
			}
			out = append(out, head)
			line = strings.TrimLeft(strings.TrimPrefix(line, head), " ")
		}
		out = append(out, line)
	}
	return out
}

func (v *ChatView) View() string {
	content := v.viewport.Render()

	// Suggested questions above the prompt while the input is empty
	var suggestLine string
	if !v.running && v.input == "" {
		if questions := v.conv.SuggestedQuestions(); len(questions) > 0 {
			var chips []string
			for _, q := range questions {
				chips = append(chips, StyleSuggestion.Render(q))
			}
			suggestLine = strings.Join(chips, " ")
		}
	}

	prompt := StylePrompt.Render("Ask> ") + v.input + "█"
	if v.running {
		prompt = StylePrompt.Render("Ask> ") +
			StyleDimmed.Render("waiting for answer... (Esc cancels)")
	}

	sections := []string{content}
	if suggestLine != "" {
		sections = append(sections, suggestLine)
	}
	sections = append(sections, prompt)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

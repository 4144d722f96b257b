// app.go is the top-level Bubble Tea model that orchestrates all views.
//
// Flow:
//  1. Start with LoadView (dataset source form)
//  2. On successful load → switch to the chat view
//  3. User can load another dataset and return to the form
//
// Key design decisions:
//   - Two phases: "loading" and "chatting"
//   - F-key navigation between views (chat input owns most keys)
//   - Command mode (`:`) in non-text views for load/reset/quit
//   - Help overlay (`?`) toggled on/off
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/chat"
	"github.com/askdata/askdata/config"
	"github.com/askdata/askdata/db"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const appVersion = "0.1.0"

// Tab indices for the chat phase.
const (
	TabChat = iota
	TabAudit
)

// AppPhase tracks whether we're loading a dataset or chatting.
type AppPhase int

const (
	PhaseLoad AppPhase = iota
	PhaseChat
)

// InputMode determines what keystrokes do in chat phase.
type InputMode int

const (
	ModeNormal InputMode = iota
	ModeCommand
)

// App is the root Bubble Tea model.
type App struct {
	// Phase management
	phase    AppPhase
	loadView *LoadView
	store    *config.SourceStore

	// Shared state
	conv     *chat.Conversation
	client   *ai.StructuredClient
	executor db.Executor
	cfg      *config.Config

	// Chat phase
	views     []View
	activeTab int
	chatView  *ChatView
	title     string // loaded dataset display name
	rowCount  int

	// UI state
	width     int
	height    int
	mode      InputMode
	cmdInput  string
	showHelp  bool
	statusMsg string

	// set by CLI flags; consumed by Init
	prefillType     string
	prefillLocation string
}

// NewApp creates the application starting with the dataset form.
func NewApp(client *ai.StructuredClient, executor db.Executor, store *config.SourceStore, cfg *config.Config) *App {
	conv := chat.NewConversation(cfg.Chat.ContextWindow)
	catalog := newCatalog(cfg)
	return &App{
		phase:    PhaseLoad,
		loadView: NewLoadView(client, executor, catalog, store),
		store:    store,
		conv:     conv,
		client:   client,
		executor: executor,
		cfg:      cfg,
	}
}

// SetInitialSource makes the app load the given source on startup
// instead of waiting for form input.
func (a *App) SetInitialSource(sourceType, location string) {
	a.prefillType = sourceType
	a.prefillLocation = location
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.prefillLocation != "" {
		return a.loadView.Prefill(a.prefillType, a.prefillLocation)
	}
	return a.loadView.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// header(1) + border(2) + helpbar(1) = 4 lines of chrome
		contentH := a.height - 4
		contentW := a.width - 2 // border left+right
		if a.phase == PhaseLoad {
			a.loadView.SetSize(contentW, contentH)
		} else {
			viewH := contentH - 1
			for _, v := range a.views {
				v.SetSize(contentW, viewH)
			}
		}
		return a, nil

	case LoadedMsg:
		return a, a.datasetReady(msg)

	case LoadErrorMsg:
		// Stay on load screen, forward error
		updated, cmd := a.loadView.Update(msg)
		a.loadView = updated.(*LoadView)
		return a, cmd

	case ChatClearedMsg:
		if msg.Err != nil {
			a.statusMsg = "clear failed: " + msg.Err.Error()
			return a, nil
		}
		a.conv.Reset()
		a.title = ""
		a.rowCount = 0
		a.returnToLoad()
		a.statusMsg = "conversation cleared"
		return a, nil

	case StatusMsg:
		a.statusMsg = string(msg)
		return a, nil
	}

	if a.phase == PhaseLoad {
		return a.updateLoad(msg)
	}
	return a.updateChat(msg)
}

// datasetReady transitions from load → chat phase.
func (a *App) datasetReady(msg LoadedMsg) tea.Cmd {
	a.title = msg.Title
	a.rowCount = msg.RowCount

	a.rememberSource(msg)

	// Fresh dataset context for the conversation
	a.conv.SetSchema(msg.Plan.SQL)
	a.conv.SetSuggestedQuestions(msg.Plan.AnalyticsQuestions)
	a.conv.AppendStatus(msg.Title + " is ready!")

	a.phase = PhaseChat
	a.initViews()

	contentW := a.width - 2
	viewH := a.height - 5
	for _, v := range a.views {
		v.SetSize(contentW, viewH)
	}
	return a.views[a.activeTab].Init()
}

// rememberSource persists the loaded source at the front of the
// recent list.
func (a *App) rememberSource(msg LoadedMsg) {
	src := config.Source{Title: msg.Title}
	switch {
	case strings.HasPrefix(msg.Source, "http://"),
		strings.HasPrefix(msg.Source, "https://"):
		src.URL = msg.Source
	case strings.Contains(msg.Source, "/") || strings.HasSuffix(msg.Source, ".csv"):
		src.Path = msg.Source
	default:
		src.Identifier = msg.Source
	}
	a.store.Add(src)
	_ = a.store.Save()
}

// initViews creates the chat-phase views.
func (a *App) initViews() {
	a.chatView = NewChatView(a.conv, a.client, a.executor, a.cfg.Chat)
	a.chatView.SetTitle(a.title)
	a.views = []View{
		a.chatView,
		NewAuditView(a.conv),
	}
	a.activeTab = TabChat
}

func (a *App) updateLoad(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	updated, cmd := a.loadView.Update(msg)
	a.loadView = updated.(*LoadView)
	return a, cmd
}

func (a *App) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return a.handleKey(msg)
	}

	// Forward other messages to active view
	if a.activeTab < len(a.views) {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	return a, nil
}

// handleKey processes keyboard input in chat phase.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == ModeCommand {
		return a.handleCommandMode(msg)
	}
	return a.handleNormalMode(msg)
}

func (a *App) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When the active view is accepting text input (the chat prompt),
	// only intercept non-text keys. Let everything else pass through.
	textMode := a.activeTab < len(a.views) && a.views[a.activeTab].WantsTextInput()

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "f1":
		return a.switchTab(TabChat)
	case "f2":
		return a.switchTab(TabAudit)
	case "f3":
		a.returnToLoad()
		return a, nil
	}

	if !textMode {
		switch msg.String() {
		case ":":
			a.mode = ModeCommand
			a.cmdInput = ""
			return a, nil
		case "?":
			a.showHelp = !a.showHelp
			return a, nil
		case "tab":
			return a.switchTab((a.activeTab + 1) % len(a.views))
		}
	}

	// Forward to active view
	if a.activeTab < len(a.views) {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	return a, nil
}

func (a *App) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.executeCommand(a.cmdInput)
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, cmd

	case "escape":
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, nil

	case "backspace":
		if len(a.cmdInput) > 0 {
			a.cmdInput = a.cmdInput[:len(a.cmdInput)-1]
		}
		return a, nil

	default:
		if len(msg.String()) == 1 {
			a.cmdInput += msg.String()
		}
		return a, nil
	}
}

func (a *App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx >= 0 && idx < len(a.views) {
		a.activeTab = idx
		return a, a.views[a.activeTab].Init()
	}
	return a, nil
}

func (a *App) executeCommand(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	switch {
	case input == "q" || input == "quit":
		return tea.Quit
	case input == "load":
		a.returnToLoad()
		return nil
	case input == "reset":
		return clearChat(a.executor)
	default:
		a.statusMsg = "unknown command: " + input
		return nil
	}
}

// clearChat drops the dataset tables in the background. The conversation
// itself is reset on ChatClearedMsg, on the UI goroutine: the derived
// tables and the chat context go together, and loading recreates both.
func clearChat(executor db.Executor) tea.Cmd {
	return func() tea.Msg {
		if executor != nil {
			if err := executor.DropAllTables(context.Background()); err != nil {
				return ChatClearedMsg{Err: err}
			}
		}
		return ChatClearedMsg{}
	}
}

// returnToLoad goes back to the dataset form. The conversation keeps
// its history; loading with Start Fresh enabled clears the store.
func (a *App) returnToLoad() {
	a.phase = PhaseLoad
	a.views = nil
	a.activeTab = 0
	a.statusMsg = ""
	a.loadView.ClearStatus()
	a.loadView.SetSize(a.width-2, a.height-4)
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	header := a.renderHeader()

	if a.phase == PhaseLoad {
		frame := StyleBorder.
			Width(a.width - 2).
			Height(a.height - 3).
			Render(a.loadView.View())
		return lipgloss.JoinVertical(lipgloss.Left, header, frame, a.renderLoadHelpBar())
	}

	var inner string
	if a.showHelp {
		inner = a.renderHelp()
	} else if a.activeTab < len(a.views) {
		inner = a.views[a.activeTab].View()
	}

	frameHeight := a.height - 4
	if frameHeight < 0 {
		frameHeight = 0
	}

	frame := StyleBorder.
		Width(a.width - 2).
		Height(frameHeight).
		Render(inner)

	return header + "\n" + frame + "\n" + a.renderStatusBar()
}

// renderHeader draws a simple text bar: logo + version + dataset info.
func (a *App) renderHeader() string {
	logo := StyleBold.Render("📊 askdata")
	version := StyleDimmed.Render(" v" + appVersion)

	left := logo + version

	var datasetInfo string
	if a.phase == PhaseChat && a.title != "" {
		datasetInfo = StyleSuccess.Render(fmt.Sprintf("  ⚡ %s (%s, %d rows)",
			a.title, a.executor.Name(), a.rowCount))
	}

	content := left + datasetInfo

	// Fill gap to right align the active view name
	var right string
	if a.phase == PhaseChat && a.activeTab < len(a.views) {
		right = StyleDimmed.Render(a.views[a.activeTab].Name())
	}
	gap := a.width - lipgloss.Width(content) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Render(content + strings.Repeat(" ", gap) + right)
}

func (a *App) renderLoadHelpBar() string {
	var parts []string
	for _, h := range a.loadView.ShortHelp() {
		parts = append(parts, StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Render(strings.Join(parts, StyleDimmed.Render("  │  ")))
}

func (a *App) renderStatusBar() string {
	var content string

	switch {
	case a.mode == ModeCommand:
		content = StylePrompt.Render(":") + a.cmdInput + "█"
	case a.statusMsg != "":
		content = a.statusMsg
	default:
		var parts []string
		for _, h := range a.getHelpItems() {
			parts = append(parts,
				StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
		}
		content = strings.Join(parts, "  │  ")
	}

	return StyleStatusBar.Width(a.width).Render(content)
}

func (a *App) getHelpItems() []KeyBinding {
	global := []KeyBinding{
		{Key: "F1/F2", Desc: "chat/audit"},
		{Key: "F3", Desc: "load data"},
		{Key: "Ctrl+C", Desc: "quit"},
	}
	if a.activeTab < len(a.views) {
		return append(a.views[a.activeTab].ShortHelp(), global...)
	}
	return global
}

func (a *App) renderHelp() string {
	help := []string{
		StyleTitle.Render("⌨ askdata Keyboard Shortcuts"),
		"",
		StyleHelpKey.Render("F1") + "               Chat view",
		StyleHelpKey.Render("F2") + "               Audit view (model history)",
		StyleHelpKey.Render("F3") + "               Load another dataset",
		StyleHelpKey.Render("?") + "                Toggle this help (audit view)",
		StyleHelpKey.Render("Ctrl+C") + "           Quit",
		"",
		StyleTitle.Render("Chat"),
		"",
		StyleHelpKey.Render("Enter") + "            Ask the typed question",
		StyleHelpKey.Render("Tab") + "              Cycle suggested questions",
		StyleHelpKey.Render("Esc") + "              Cancel a running turn",
		StyleHelpKey.Render("Ctrl+L") + "           Clear chat and drop dataset",
		StyleHelpKey.Render("PgUp/PgDn") + "        Scroll the transcript",
		"",
		StyleTitle.Render("Commands (audit view)"),
		"",
		StyleHelpKey.Render(":load") + "            Back to the dataset form",
		StyleHelpKey.Render(":reset") + "           Clear chat and drop dataset",
		StyleHelpKey.Render(":quit") + "            Quit",
		"",
		StyleDimmed.Render("Press ? to close"),
	}

	return lipgloss.NewStyle().
		Width(a.width-4).
		Height(a.height-3).
		Padding(1, 2).
		Render(strings.Join(help, "\n"))
}

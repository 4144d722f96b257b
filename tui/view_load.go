// view_load.go implements the dataset source screen.
//
// This is the first screen shown when askdata starts. The user points
// it at a CSV file, a CSV URL, or an open-data catalog identifier. The
// load pipeline then runs in the background:
//
//	fetch CSV → preview → AI table inference → CREATE TABLE → INSERT
//
// Recently loaded sources are saved to ~/.askdata/sources.json and can
// be re-loaded with a single keystroke.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/config"
	"github.com/askdata/askdata/dataset"
	"github.com/askdata/askdata/db"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Form fields ────────────────────────────────────────────
const (
	fieldSaved = iota
	fieldSourceType
	fieldLocation
	fieldFresh
	fieldLoad
	fieldCount // sentinel
)

// fieldLabels maps field IDs to display labels.
var fieldLabels = map[int]string{
	fieldSaved:      "Recent",
	fieldSourceType: "Source",
	fieldLocation:   "Location",
	fieldFresh:      "Start Fresh",
	fieldLoad:       "Load",
}

// Source type options for cycling.
const (
	sourceFile    = "file"
	sourceURL     = "url"
	sourceCatalog = "catalog"
)

var sourceTypes = []string{sourceFile, sourceURL, sourceCatalog}

// sourceTypeDesc maps source type to a short hint.
var sourceTypeDesc = map[string]string{
	sourceFile:    "Path to a local CSV file",
	sourceURL:     "Direct URL of a CSV file",
	sourceCatalog: "Open-data catalog dataset identifier",
}

// LoadView is the dataset source form.
type LoadView struct {
	client   *ai.StructuredClient
	executor db.Executor
	catalog  *dataset.Catalog
	store    *config.SourceStore

	fields     []string // field values indexed by field ID
	focusField int
	savedIdx   int  // selected index in recent sources list
	editing    bool // true when typing in a field
	err        error
	statusMsg  string
	loading    bool
	width      int
	height     int
}

func NewLoadView(client *ai.StructuredClient, executor db.Executor, catalog *dataset.Catalog, store *config.SourceStore) *LoadView {
	v := &LoadView{
		client:   client,
		executor: executor,
		catalog:  catalog,
		store:    store,
		fields:   make([]string, fieldCount),
	}

	v.fields[fieldSourceType] = sourceFile
	v.fields[fieldFresh] = "yes"
	v.focusField = fieldLocation
	if len(store.Sources) > 0 {
		v.focusField = fieldSaved
	}

	return v
}

// Prefill fills the form from CLI flags and returns a command that
// starts the load immediately.
func (v *LoadView) Prefill(sourceType, location string) tea.Cmd {
	v.fields[fieldSourceType] = sourceType
	v.fields[fieldLocation] = location
	v.focusField = fieldLoad
	return v.load()
}

func (v *LoadView) Name() string { return "Load" }

func (v *LoadView) WantsTextInput() bool { return v.editing }

func (v *LoadView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *LoadView) ShortHelp() []KeyBinding {
	if v.editing {
		return []KeyBinding{
			{Key: "Enter", Desc: "confirm"},
			{Key: "Esc", Desc: "cancel"},
			{Key: "Ctrl+U", Desc: "clear"},
		}
	}
	return []KeyBinding{
		{Key: "↑/↓", Desc: "navigate"},
		{Key: "←/→", Desc: "cycle"},
		{Key: "Enter", Desc: "edit/load"},
	}
}

func (v *LoadView) Init() tea.Cmd { return nil }

func (v *LoadView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.editing {
			return v.handleEditing(msg)
		}
		return v.handleNavigation(msg)

	case LoadErrorMsg:
		v.loading = false
		v.err = msg.Err
		v.statusMsg = ""
		return v, nil
	}

	return v, nil
}

func (v *LoadView) handleNavigation(msg tea.KeyMsg) (View, tea.Cmd) {
	// One pipeline at a time; only quitting is allowed mid-load.
	if v.loading {
		if s := msg.String(); s == "q" || s == "ctrl+c" {
			return v, tea.Quit
		}
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		v.moveFocus(-1)

	case "down", "j":
		v.moveFocus(1)

	case "left", "h":
		return v.handleCycle(-1)

	case "right", "l":
		return v.handleCycle(1)

	case "enter":
		return v.handleAction()

	case "q", "ctrl+c":
		return v, tea.Quit
	}

	return v, nil
}

func (v *LoadView) moveFocus(dir int) {
	v.focusField += dir
	if v.focusField < 0 {
		v.focusField = fieldCount - 1
	}
	if v.focusField >= fieldCount {
		v.focusField = 0
	}
	// Skip the recent list when nothing is saved
	if v.focusField == fieldSaved && len(v.store.Sources) == 0 {
		v.moveFocus(dir)
	}
}

func (v *LoadView) handleCycle(dir int) (View, tea.Cmd) {
	switch v.focusField {
	case fieldSaved:
		if n := len(v.store.Sources); n > 0 {
			v.savedIdx = (v.savedIdx + dir + n) % n
		}
	case fieldSourceType:
		v.cycleSourceType(dir)
	default:
		v.moveFocus(dir)
	}
	return v, nil
}

func (v *LoadView) handleEditing(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter", "escape":
		v.editing = false
		return v, nil

	case "backspace":
		if f := v.fields[v.focusField]; len(f) > 0 {
			v.fields[v.focusField] = f[:len(f)-1]
		}

	case "ctrl+u":
		v.fields[v.focusField] = ""

	default:
		if msg.Type == tea.KeyRunes {
			v.fields[v.focusField] += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.fields[v.focusField] += " "
		}
	}

	return v, nil
}

func (v *LoadView) handleAction() (View, tea.Cmd) {
	switch v.focusField {
	case fieldSaved:
		return v, v.loadSaved()

	case fieldSourceType:
		v.cycleSourceType(1)
		return v, nil

	case fieldFresh:
		if v.fields[fieldFresh] == "yes" {
			v.fields[fieldFresh] = "no"
		} else {
			v.fields[fieldFresh] = "yes"
		}
		return v, nil

	case fieldLoad:
		return v, v.load()

	default:
		v.editing = true
		return v, nil
	}
}

func (v *LoadView) cycleSourceType(dir int) {
	current := v.fields[fieldSourceType]
	idx := 0
	for i, t := range sourceTypes {
		if t == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(sourceTypes)) % len(sourceTypes)
	v.fields[fieldSourceType] = sourceTypes[idx]
	v.err = nil
}

// ─────────────────────────────────────────────────────────────
// Load pipeline
// ─────────────────────────────────────────────────────────────

// loadSaved re-loads the selected recent source.
func (v *LoadView) loadSaved() tea.Cmd {
	if v.savedIdx >= len(v.store.Sources) {
		return nil
	}
	src := v.store.Sources[v.savedIdx]
	switch {
	case src.Path != "":
		v.fields[fieldSourceType] = sourceFile
		v.fields[fieldLocation] = src.Path
	case src.Identifier != "":
		v.fields[fieldSourceType] = sourceCatalog
		v.fields[fieldLocation] = src.Identifier
	default:
		v.fields[fieldSourceType] = sourceURL
		v.fields[fieldLocation] = src.URL
	}
	return v.load()
}

// ClearStatus resets transient load state, so a completed or abandoned
// load does not leave a stale spinner when the form is shown again.
func (v *LoadView) ClearStatus() {
	v.loading = false
	v.statusMsg = ""
	v.err = nil
}

// load runs the whole pipeline in a background command.
func (v *LoadView) load() tea.Cmd {
	if v.loading {
		return nil
	}
	sourceType := v.fields[fieldSourceType]
	location := strings.TrimSpace(v.fields[fieldLocation])
	if location == "" {
		v.err = fmt.Errorf("enter a %s first", fieldLabels[fieldLocation])
		return nil
	}

	v.loading = true
	v.statusMsg = "Loading " + location + "..."
	v.err = nil

	fresh := v.fields[fieldFresh] == "yes"
	client := v.client
	executor := v.executor
	catalog := v.catalog

	return func() tea.Msg {
		ctx := context.Background()

		csvData, title, err := fetchSource(ctx, catalog, sourceType, location)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		preview := dataset.Preview(csvData, dataset.PreviewLines)
		plan, err := client.InferTable(ctx, preview, title)
		if err != nil {
			return LoadErrorMsg{Err: fmt.Errorf("infer table: %w", err)}
		}

		if fresh {
			if err := executor.DropAllTables(ctx); err != nil {
				return LoadErrorMsg{Err: fmt.Errorf("reset store: %w", err)}
			}
		}

		if _, err := executor.Execute(ctx, plan.SQL); err != nil {
			return LoadErrorMsg{Err: fmt.Errorf("create table: %w", err)}
		}

		stmt, rowCount, err := dataset.InsertStatement(
			plan.TableName, csvData,
			plan.Columns, plan.DateColumns, plan.NumericColumns)
		if err != nil {
			return LoadErrorMsg{Err: fmt.Errorf("build insert: %w", err)}
		}
		if rowCount > 0 {
			if _, err := executor.Execute(ctx, stmt); err != nil {
				return LoadErrorMsg{Err: fmt.Errorf("insert rows: %w", err)}
			}
		}

		return LoadedMsg{
			Title:    title,
			Source:   location,
			Plan:     plan,
			RowCount: rowCount,
		}
	}
}

// fetchSource resolves a source type + location into raw CSV text and
// a display title.
func fetchSource(ctx context.Context, catalog *dataset.Catalog, sourceType, location string) (csvData, title string, err error) {
	switch sourceType {
	case sourceFile:
		csvData, err = dataset.ReadFile(location)
		return csvData, dataset.BaseName(location), err

	case sourceURL:
		csvData, err = dataset.FetchURL(ctx, location)
		return csvData, dataset.BaseName(location), err

	case sourceCatalog:
		distributions, err := catalog.FetchDataset(ctx, location)
		if err != nil {
			return "", "", err
		}
		for _, d := range distributions {
			if !d.Loadable() {
				continue
			}
			csvData, err = dataset.FetchURL(ctx, d.URL)
			if err != nil {
				return "", "", err
			}
			title = d.Title
			if title == "" {
				title = dataset.BaseName(d.URL)
			}
			return csvData, title, nil
		}
		return "", "", fmt.Errorf("dataset %s has no loadable CSV distribution", location)

	default:
		return "", "", fmt.Errorf("unknown source type %q", sourceType)
	}
}

// ─────────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────────

func (v *LoadView) View() string {
	panelWidth := v.width - 8
	if panelWidth < 40 {
		panelWidth = 40
	}
	if panelWidth > 78 {
		panelWidth = 78
	}
	inputW := panelWidth - 22

	var lines []string

	// Recent sources
	if len(v.store.Sources) > 0 {
		lines = append(lines, v.sectionHeader("Recent", panelWidth-8))
		for i, src := range v.store.Sources {
			label := src.Title
			if label == "" {
				label = src.URL
			}
			if i == v.savedIdx {
				if v.focusField == fieldSaved {
					lines = append(lines, StyleListItemActive.Render(" ► "+label))
				} else {
					lines = append(lines, lipgloss.NewStyle().
						Foreground(ColorAccent).Render(" ► "+label))
				}
			} else {
				lines = append(lines, StyleDimmed.Render("   "+label))
			}
		}
		lines = append(lines, "")
	}

	lines = append(lines, v.sectionHeader("New Dataset", panelWidth-8))
	lines = append(lines, v.renderSelectField(fieldSourceType))
	if desc, ok := sourceTypeDesc[v.fields[fieldSourceType]]; ok {
		lines = append(lines, StyleDimmed.Render("  "+desc))
	}
	lines = append(lines, v.renderField(fieldLocation, inputW))
	lines = append(lines, v.renderToggleField(fieldFresh))
	lines = append(lines, "")
	lines = append(lines, v.renderButton(fieldLoad))

	content := strings.Join(lines, "\n")
	panel := StyleBorder.Padding(1, 2).Width(panelWidth).Render(content)

	// Status line below the panel
	var statusLine string
	if v.loading {
		statusLine = StyleDimmed.Render("⏳ " + v.statusMsg)
	} else if v.err != nil {
		statusLine = StyleError.Render("✗ " + v.err.Error())
	} else if v.statusMsg != "" {
		statusLine = StyleSuccess.Render("✓ " + v.statusMsg)
	}

	block := panel
	if statusLine != "" {
		block = lipgloss.JoinVertical(lipgloss.Left, panel, statusLine)
	}

	return lipgloss.NewStyle().
		Width(v.width).
		Height(v.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(block)
}

// sectionHeader renders a dashed section divider with a label.
func (v *LoadView) sectionHeader(label string, width int) string {
	remaining := width - len(label) - 4
	if remaining < 4 {
		remaining = 4
	}
	return StyleDimmed.Render("──") +
		" " + StylePrompt.Render(label) + " " +
		StyleDimmed.Render(strings.Repeat("─", remaining-2))
}

// renderField renders a form input field.
func (v *LoadView) renderField(id, inputWidth int) string {
	label := fieldLabels[id]
	value := v.fields[id]
	focused := v.focusField == id

	labelStr := lipgloss.NewStyle().
		Width(14).
		Foreground(ColorDim).
		Render(label)

	if focused {
		labelStr = lipgloss.NewStyle().
			Width(14).
			Foreground(ColorAccent).
			Bold(true).
			Render("▸ " + label)

		cursor := ""
		if v.editing {
			cursor = "█"
		}
		inputBox := lipgloss.NewStyle().
			Width(inputWidth).
			Foreground(ColorPrimary).
			Render(value + cursor)
		return labelStr + " " + inputBox
	}

	return labelStr + " " + StyleDimmed.Render(value)
}

func (v *LoadView) renderSelectField(id int) string {
	label := fieldLabels[id]
	value := v.fields[id]
	focused := v.focusField == id

	labelStr := lipgloss.NewStyle().
		Width(14).
		Foreground(ColorDim).
		Render(label)

	if focused {
		labelStr = lipgloss.NewStyle().
			Width(14).
			Foreground(ColorAccent).
			Bold(true).
			Render("▸ " + label)

		selectBox := lipgloss.NewStyle().
			Foreground(ColorAccent).
			Render(" ◂ " + value + " ▸ ")
		return labelStr + " " + selectBox
	}

	return labelStr + " " + StyleDimmed.Render(value)
}

func (v *LoadView) renderToggleField(id int) string {
	label := fieldLabels[id]
	enabled := v.fields[id] == "yes"
	focused := v.focusField == id

	labelStr := lipgloss.NewStyle().
		Width(14).
		Foreground(ColorDim).
		Render(label)

	if focused {
		labelStr = lipgloss.NewStyle().
			Width(14).
			Foreground(ColorAccent).
			Bold(true).
			Render("▸ " + label)
	}

	if enabled {
		return labelStr + " " + lipgloss.NewStyle().
			Foreground(ColorSuccess).Bold(true).Render("● Enabled")
	}
	return labelStr + " " + StyleDimmed.Render("○ Disabled")
}

func (v *LoadView) renderButton(id int) string {
	label := fieldLabels[id]
	if v.focusField == id {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorAccent).
			Padding(0, 2).
			Render("⏎ " + label)
	}
	return lipgloss.NewStyle().
		Foreground(ColorDim).
		Padding(0, 2).
		Render("  " + label)
}

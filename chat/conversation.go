// Package chat implements the conversational tool-orchestration core:
// the conversation history and the state machine that lets the model run
// SQL, read the results, and produce answers and charts.
//
// Design decisions:
//   - The conversation is a single append-only event log with derived
//     projections: Visible() for rendering and ModelTurns() for the
//     completion request. Two independently mutated histories would
//     inevitably drift; one log cannot.
//   - Tool results are wrapped as a synthetic user turn, because the
//     completion protocol only accepts alternating user/assistant turns.
//     Internally the exchange stays one typed event; the two-role shape
//     exists only in the ModelTurns projection.
//   - The outgoing context window is a view: old turns are dropped from
//     the request, never from storage, so the UI history is never lossy.
package chat

import (
	"fmt"
	"time"

	"github.com/askdata/askdata/ai"
	"github.com/google/uuid"
)

// Role of a model-facing turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EventKind discriminates entries in the conversation log.
type EventKind int

const (
	// EventUserText is a message typed by the user.
	EventUserText EventKind = iota

	// EventAssistantText is a user-facing answer from the model.
	EventAssistantText

	// EventStatus is a transient system/status marker shown as a pill in
	// the UI. Never part of the model-facing history.
	EventStatus

	// EventToolExchange carries a SQL statement and its raw result
	// payload. Internal: excluded from rendering, projected into the
	// model-facing history as an assistant/user turn pair.
	EventToolExchange

	// EventChart holds a chart configuration for the renderer. The
	// config is a UI artifact, not model-reasoning context.
	EventChart
)

// Event is one entry in the conversation log. Immutable once appended.
type Event struct {
	ID      uuid.UUID
	Kind    EventKind
	Role    Role
	Text    string          // user text, answer, status text, chart marker
	SQL     string          // tool exchange only
	Payload string          // tool exchange only: serialized result rows
	Chart   *ai.ChartConfig // chart event only
	Time    time.Time
}

// toolResultPrompt is the assistant-side wording of a tool exchange. The
// result payload follows as a synthetic user turn.
const toolResultPrompt = "Please give me the result of your SQL query:\n\n"

// chartDisplayedMarker stands in for a chart-only turn in the
// model-facing history, so the turn still counts as an assistant reply
// and the next user question keeps the alternation intact. The UI never
// shows it; it renders the chart itself.
const chartDisplayedMarker = "[Displayed a chart.]"

// Conversation owns the event log, the active table schema, and the
// suggested questions. Mutated only by the orchestrator and the user
// input handler; not safe for concurrent use.
type Conversation struct {
	events    []Event
	schema    string
	suggested []string
	window    int

	// lastModelRole tracks the role of the most recent model-facing
	// turn, for the alternation check. Empty until the first turn.
	lastModelRole Role
}

// NewConversation creates an empty conversation. window bounds how many
// recent model-facing turns are sent per completion request.
func NewConversation(window int) *Conversation {
	if window <= 0 {
		window = 20
	}
	return &Conversation{window: window}
}

func (c *Conversation) append(e Event) {
	e.ID = uuid.New()
	e.Time = time.Now()
	c.events = append(c.events, e)
}

// AppendUserTurn records a message typed by the user.
func (c *Conversation) AppendUserTurn(text string) error {
	if c.lastModelRole == RoleUser {
		return fmt.Errorf("%w: consecutive user turns", ErrProtocolViolation)
	}
	c.append(Event{Kind: EventUserText, Role: RoleUser, Text: text})
	c.lastModelRole = RoleUser
	return nil
}

// AppendAssistantText records a user-facing answer from the model.
func (c *Conversation) AppendAssistantText(text string) error {
	if c.lastModelRole == RoleAssistant {
		return fmt.Errorf("%w: consecutive assistant turns", ErrProtocolViolation)
	}
	c.append(Event{Kind: EventAssistantText, Role: RoleAssistant, Text: text})
	c.lastModelRole = RoleAssistant
	return nil
}

// AppendToolExchange records a SQL tool call and its serialized result.
// The model-facing projection becomes an assistant turn requesting the
// result and a user turn carrying it.
func (c *Conversation) AppendToolExchange(sql, payload string) error {
	if c.lastModelRole == RoleAssistant {
		return fmt.Errorf("%w: tool exchange after assistant turn", ErrProtocolViolation)
	}
	c.append(Event{Kind: EventToolExchange, Role: RoleUser, SQL: sql, Payload: payload})
	// The exchange ends with the synthetic user turn.
	c.lastModelRole = RoleUser
	return nil
}

// AppendChartMessage records a chart for the renderer and, if a summary
// accompanies it, a visible assistant message. The chart config never
// enters the model-facing history: the model sees the summary, or a
// chartDisplayedMarker turn when there is none. Either way the chart
// ends the assistant's turn.
func (c *Conversation) AppendChartMessage(cfg *ai.ChartConfig, summary string) error {
	if c.lastModelRole == RoleAssistant {
		return fmt.Errorf("%w: chart after assistant turn", ErrProtocolViolation)
	}
	e := Event{Kind: EventChart, Role: RoleAssistant, Chart: cfg}
	if summary == "" {
		e.Text = chartDisplayedMarker
	}
	c.append(e)
	c.lastModelRole = RoleAssistant
	if summary != "" {
		c.append(Event{Kind: EventAssistantText, Role: RoleAssistant, Text: summary})
	}
	return nil
}

// AppendStatus records a transient status marker ("Dataset is ready!",
// error notices). Visible in the UI, absent from the model history.
func (c *Conversation) AppendStatus(text string) {
	c.append(Event{Kind: EventStatus, Role: RoleAssistant, Text: text})
}

// SetSchema replaces the active table DDL used as model context.
func (c *Conversation) SetSchema(ddl string) {
	c.schema = ddl
}

// Schema returns the active table DDL, empty when no dataset is loaded.
func (c *Conversation) Schema() string {
	return c.schema
}

// SetSuggestedQuestions replaces (never merges) the suggested questions.
func (c *Conversation) SetSuggestedQuestions(questions []string) {
	c.suggested = append([]string(nil), questions...)
}

// SuggestedQuestions returns the current suggestions.
func (c *Conversation) SuggestedQuestions() []string {
	return c.suggested
}

// Reset clears all conversational state. Dropping the dataset tables is
// the caller's job; the conversation only owns what was said.
func (c *Conversation) Reset() {
	c.events = nil
	c.schema = ""
	c.suggested = nil
	c.lastModelRole = ""
}

// Events returns the full log, including internal tool exchanges. Used
// by the audit view and tests.
func (c *Conversation) Events() []Event {
	return c.events
}

// Visible projects the log for rendering: everything except internal
// tool exchanges.
func (c *Conversation) Visible() []Event {
	visible := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		if e.Kind == EventToolExchange {
			continue
		}
		visible = append(visible, e)
	}
	return visible
}

// ModelTurns projects the log into the alternating user/assistant turns
// sent to the completion client, trimmed to the configured window. After
// trimming, leading assistant turns are dropped so the outgoing history
// always starts with a user turn.
func (c *Conversation) ModelTurns() []ai.Message {
	var turns []ai.Message
	for _, e := range c.events {
		switch e.Kind {
		case EventUserText:
			turns = append(turns, ai.Message{Role: string(RoleUser), Content: e.Text})
		case EventAssistantText:
			turns = append(turns, ai.Message{Role: string(RoleAssistant), Content: e.Text})
		case EventToolExchange:
			turns = append(turns,
				ai.Message{Role: string(RoleAssistant), Content: toolResultPrompt + e.SQL},
				ai.Message{Role: string(RoleUser), Content: e.Payload},
			)
		case EventChart:
			// Chart-only turns carry the marker; charts followed by a
			// summary are represented by the summary alone.
			if e.Text != "" {
				turns = append(turns, ai.Message{Role: string(RoleAssistant), Content: e.Text})
			}
		}
	}

	if c.window > 0 && len(turns) > c.window {
		turns = turns[len(turns)-c.window:]
	}
	for len(turns) > 0 && turns[0].Role == string(RoleAssistant) {
		turns = turns[1:]
	}
	return turns
}

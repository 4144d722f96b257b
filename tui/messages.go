// messages.go defines Bubble Tea messages used for async communication.
//
// Dataset loads and chat turns run in background commands and report
// back via these message types, ensuring the UI never blocks.
package tui

import (
	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/chat"
	"github.com/askdata/askdata/dataset"
)

// LoadedMsg is sent when a dataset has been fetched, inferred, and
// inserted into the store.
type LoadedMsg struct {
	Title    string
	Source   string // file path, URL, or catalog identifier
	Plan     *ai.TablePlan
	RowCount int
}

// LoadErrorMsg is sent when any step of the load pipeline fails.
type LoadErrorMsg struct {
	Err error
}

// CatalogMsg carries the distributions found for a catalog identifier.
type CatalogMsg struct {
	Datasets []dataset.Dataset
	Err      error
}

// TurnCompleteMsg is sent when an orchestrator run finishes, whatever
// the terminal state.
type TurnCompleteMsg struct {
	State chat.State
	Err   error
}

// ChatClearedMsg reports the outcome of clearing the conversation:
// the dataset tables have been dropped (or the attempt failed).
type ChatClearedMsg struct {
	Err error
}

// StatusMsg is a transient status message for the status bar.
type StatusMsg string

package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/config"
	"github.com/askdata/askdata/db"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor counts DropAllTables calls.
type fakeExecutor struct {
	dropped int
	dropErr error
}

func (f *fakeExecutor) Execute(_ context.Context, _ string) (*db.Result, error) {
	return &db.Result{}, nil
}

func (f *fakeExecutor) DropAllTables(_ context.Context) error {
	f.dropped++
	return f.dropErr
}

func (f *fakeExecutor) Name() string { return "fake" }
func (f *fakeExecutor) Close()       {}

// loadedApp builds an App sized and transitioned into the chat phase
// with one dataset loaded.
func loadedApp(t *testing.T, executor db.Executor) *App {
	t.Helper()
	client := ai.NewStructuredClient(ai.NewPlaceholder(), 5)
	app := NewApp(client, executor, &config.SourceStore{}, config.Default())
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	app.datasetReady(LoadedMsg{
		Title:  "museums",
		Source: "museums.csv",
		Plan: &ai.TablePlan{
			TableName:          "museums",
			Columns:            []string{"name", "visitors"},
			SQL:                "CREATE TABLE museums (name TEXT, visitors REAL)",
			AnalyticsQuestions: []string{"q1", "q2", "q3"},
		},
		RowCount: 2,
	})
	return app
}

func TestClearChatDropsTablesAndReturnsToLoad(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{}
	app := loadedApp(t, executor)
	require.Equal(t, PhaseChat, app.phase)
	require.NotEmpty(t, app.conv.Schema())

	msg := clearChat(executor)()
	cleared, ok := msg.(ChatClearedMsg)
	require.True(t, ok)
	require.NoError(t, cleared.Err)
	assert.Equal(t, 1, executor.dropped)

	app.Update(cleared)
	assert.Equal(t, PhaseLoad, app.phase)
	assert.Empty(t, app.conv.Schema())
	assert.Empty(t, app.conv.Visible())
	assert.Empty(t, app.title)
}

func TestClearChatDropFailureKeepsDataset(t *testing.T) {
	t.Parallel()

	executor := &fakeExecutor{dropErr: errors.New("database is locked")}
	app := loadedApp(t, executor)

	cleared := clearChat(executor)().(ChatClearedMsg)
	require.Error(t, cleared.Err)

	app.Update(cleared)
	assert.Equal(t, PhaseChat, app.phase)
	assert.NotEmpty(t, app.conv.Schema())
	assert.Contains(t, app.statusMsg, "clear failed")
}

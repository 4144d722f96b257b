package tui

import (
	"context"
	"fmt"

	"github.com/askdata/askdata/ai"
	"github.com/askdata/askdata/config"
	"github.com/askdata/askdata/dataset"
	"github.com/askdata/askdata/db"
	tea "github.com/charmbracelet/bubbletea"
)

// StartOptions carries CLI flags into the TUI. At most one source
// should be set; it is loaded immediately on startup.
type StartOptions struct {
	CSVPath string
	URL     string
	Dataset string // catalog identifier
}

// Start wires config, store backend, and AI client, then launches
// the TUI.
func Start(opts StartOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := config.NewSourceStore()
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return err
	}
	client := ai.NewStructuredClient(provider, cfg.Chat.MaxRows)

	executor, err := openExecutor(cfg)
	if err != nil {
		return err
	}
	defer executor.Close()

	app := NewApp(client, executor, store, cfg)
	switch {
	case opts.CSVPath != "":
		app.SetInitialSource(sourceFile, opts.CSVPath)
	case opts.URL != "":
		app.SetInitialSource(sourceURL, opts.URL)
	case opts.Dataset != "":
		app.SetInitialSource(sourceCatalog, opts.Dataset)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

// openExecutor opens the configured dataset store backend.
func openExecutor(cfg *config.Config) (db.Executor, error) {
	if cfg.Database.Backend == "postgres" {
		pg, err := db.ConnectPostgres(context.Background(), cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return pg, nil
	}

	store, err := db.OpenSQLite(cfg.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	return store, nil
}

func newCatalog(cfg *config.Config) *dataset.Catalog {
	return dataset.NewCatalog(cfg.Catalog.Endpoint)
}

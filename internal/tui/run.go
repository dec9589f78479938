package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/config"
	"github.com/joss/workbench/internal/logging"
	"github.com/joss/workbench/internal/prefs"
	"github.com/joss/workbench/internal/workspace"
)

// Run starts the workspace TUI on a project root. Everything that can fail
// fast is constructed before the program takes over the terminal.
func Run(root string) error {
	env := config.Get()
	paths := config.GetPaths()
	if err := config.EnsureDir(paths.Home); err != nil {
		return fmt.Errorf("create workbench home: %w", err)
	}

	// The alternate screen owns stdout; logs go to a file instead.
	if logFile, err := os.OpenFile(paths.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		logging.SetOutput(logFile)
		defer logFile.Close()
	}

	store, err := prefs.Open(paths.DB)
	if err != nil {
		return fmt.Errorf("open preferences: %w", err)
	}
	defer store.Close()

	client := backend.New(env.BackendURL, env.QuickTimeout, env.TaskTimeout)
	session := workspace.NewSession(client, store)

	model := NewModel(session, client, store, env, root)

	ctx := context.Background()
	model.sidebarOpen = store.SidebarVisible(ctx)
	model.sidebar.SetSize(store.SidebarWidth(ctx), 24)

	// Model preference: env wins over the stored choice; both are pushed to
	// the backend best-effort so generation uses the right model from the
	// first request.
	preferred := env.Model
	if preferred == "" {
		preferred = store.SelectedModel(ctx)
	}
	if preferred != "" {
		if err := client.SelectModel(ctx, preferred); err == nil {
			model.model = preferred
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.shared.program = p

	defer model.sandbox.Close()

	_, err = p.Run()
	return err
}

package tui

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/config"
	"github.com/joss/workbench/internal/prefs"
	"github.com/joss/workbench/internal/workspace"
)

// stubBackend satisfies the session's backend surface without a server.
type stubBackend struct {
	writes map[string]string
}

func newStubBackend() *stubBackend {
	return &stubBackend{writes: make(map[string]string)}
}

func demoInfo() *backend.ProjectInfo {
	return &backend.ProjectInfo{
		DisplayName: "demo",
		Tree: backend.FileNode{
			Name: "demo", Path: "", IsDirectory: true,
			Children: []backend.FileNode{
				{Name: "src", Path: "src", IsDirectory: true, Children: []backend.FileNode{
					{Name: "main.go", Path: "src/main.go"},
					{Name: "util.go", Path: "src/util.go"},
				}},
				{Name: "README.md", Path: "README.md"},
			},
		},
		Stats: backend.ProjectStats{TotalFiles: 3, TotalDirs: 2},
	}
}

func (s *stubBackend) OpenProject(ctx context.Context, path string) (*backend.ProjectInfo, error) {
	return demoInfo(), nil
}

func (s *stubBackend) ReadFile(ctx context.Context, abs string) (*backend.FileContent, error) {
	return &backend.FileContent{Content: "package main\n"}, nil
}

func (s *stubBackend) WriteFile(ctx context.Context, abs, content string, createParentDirs bool) (*backend.WriteResult, error) {
	s.writes[abs] = content
	return &backend.WriteResult{Size: len(content)}, nil
}

func (s *stubBackend) DeleteFile(ctx context.Context, abs string) error { return nil }

func (s *stubBackend) RenameFile(ctx context.Context, oldPath, newPath string) error { return nil }

func (s *stubBackend) IndexProject(ctx context.Context, path string) (*backend.IndexResult, error) {
	return &backend.IndexResult{FilesIndexed: 3}, nil
}

func (s *stubBackend) ExecuteInstruction(ctx context.Context, text string, taskCtx map[string]any) (*backend.TaskResult, error) {
	return &backend.TaskResult{Success: true}, nil
}

func (s *stubBackend) ExecuteTool(ctx context.Context, toolName string, input map[string]any) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func newTestWorkbench(t *testing.T) (Model, *stubBackend) {
	t.Helper()
	sb := newStubBackend()

	store, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	session := workspace.NewSession(sb, store)
	client := backend.New("http://127.0.0.1:1", time.Second, time.Second)

	m := NewModel(session, client, store, config.Get(), "/home/dev/demo")
	m.width = 100
	m.height = 30
	m.ready = true
	return m, sb
}

func TestSaveShortcutSavesOnlyActiveDocument(t *testing.T) {
	m, sb := newTestWorkbench(t)
	ctx := context.Background()
	require.NoError(t, m.session.OpenProject(ctx, "/home/dev/demo"))

	_, err := m.session.OpenDocument(ctx, "src/util.go")
	require.NoError(t, err)
	_, err = m.session.OpenDocument(ctx, "src/main.go")
	require.NoError(t, err)
	m.session.Docs.Edit("src/util.go", "background edit")
	m.session.Docs.Edit("src/main.go", "active edit")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	done, ok := cmd().(saveDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Equal(t, "src/main.go", done.path)

	// Exactly one write, for the active document only.
	assert.Equal(t, map[string]string{
		"/home/dev/demo/src/main.go": "active edit",
	}, sb.writes)
}

func TestSaveShortcutWithoutDocumentIsNoop(t *testing.T) {
	m, sb := newTestWorkbench(t)
	require.NoError(t, m.session.OpenProject(context.Background(), "/home/dev/demo"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.Empty(t, sb.writes)
}

func TestSaveShortcutOnSyntheticOpensSaveAs(t *testing.T) {
	m, sb := newTestWorkbench(t)
	require.NoError(t, m.session.OpenProject(context.Background(), "/home/dev/demo"))
	m.session.Docs.CreateSynthetic("scratch", "body", "go")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)

	m2 := updated.(Model)
	assert.Equal(t, modalSaveAs, m2.modal)
	assert.Equal(t, "untitled:scratch", m2.renameTarget)
	assert.Empty(t, sb.writes)
}

func TestAnalysisShortcutGuardedByPhase(t *testing.T) {
	m, _ := newTestWorkbench(t)

	// No project open yet: the shortcut must not start a run.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Nil(t, cmd)
	assert.Equal(t, workspace.PhaseEmpty, m.session.Phase())

	require.NoError(t, m.session.OpenProject(context.Background(), "/home/dev/demo"))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotNil(t, cmd)
	assert.Equal(t, workspace.PhaseAnalyzing, m.session.Phase())
	m.session.AbortAnalysis()
}

func TestSidebarResizePersistsWidth(t *testing.T) {
	m, _ := newTestWorkbench(t)
	ctx := context.Background()
	require.NoError(t, m.session.OpenProject(ctx, "/home/dev/demo"))
	m.focus = focusSidebar

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'>'}})
	m2 := updated.(Model)
	assert.Equal(t, 34, m2.sidebar.Width())
	assert.Equal(t, 34, m2.prefs.SidebarWidth(ctx))

	updated, _ = m2.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'<'}})
	m3 := updated.(Model)
	assert.Equal(t, 32, m3.sidebar.Width())
	assert.Equal(t, 32, m3.prefs.SidebarWidth(ctx))
}

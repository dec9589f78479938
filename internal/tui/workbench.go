// Package tui is the terminal workspace: a Bubble Tea program around the
// session controller. All state transitions happen in Update; remote work
// runs in commands and reports back as messages.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/workbench/internal/analysis"
	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/config"
	"github.com/joss/workbench/internal/keymap"
	"github.com/joss/workbench/internal/prefs"
	"github.com/joss/workbench/internal/preview"
	"github.com/joss/workbench/internal/workspace"
)

// focus identifies which pane receives unrouted keys.
type focus int

const (
	focusEditor focus = iota
	focusSidebar
)

// modal identifies the transient surface on top of the workspace, if any.
type modal int

const (
	modalNone modal = iota
	modalPalette
	modalHelp
	modalPrompt
	modalRename
	modalSaveAs
	modalModels
	modalConfirmDelete
	modalOfferAnalysis
	modalOutput
)

// sharedState survives model copies; the program pointer is needed by the
// analysis stream reader to push frames.
type sharedState struct {
	program *tea.Program
}

// Model is the workspace TUI model.
type Model struct {
	session *workspace.Session
	client  *backend.Client
	sandbox *preview.Sandbox
	prefs   *prefs.Store
	env     *config.Env
	keys    *keymap.Map
	shared  *sharedState

	editor  textarea.Model
	spinner spinner.Model
	sidebar *Sidebar
	palette *Palette
	prompt  textinput.Model
	nameIn  textinput.Model
	output  viewport.Model

	models   []backend.ModelInfo
	modelIdx int
	model    string

	focus        focus
	modal        modal
	sidebarOpen  bool
	renameTarget string

	width    int
	height   int
	ready    bool
	busy     bool
	status   string
	failed   bool
	quitting bool

	initialRoot string
}

// NewModel assembles the workspace around an already constructed session.
func NewModel(session *workspace.Session, client *backend.Client, store *prefs.Store, env *config.Env, root string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ed := textarea.New()
	ed.Placeholder = "open a file to start editing"
	ed.ShowLineNumbers = true
	ed.CharLimit = 0

	pr := textinput.New()
	pr.Placeholder = "describe what to generate..."
	pr.CharLimit = 2000
	pr.Prompt = "> "

	name := textinput.New()
	name.CharLimit = 500
	name.Prompt = "> "

	return Model{
		session:     session,
		client:      client,
		sandbox:     preview.NewSandbox(),
		prefs:       store,
		env:         env,
		keys:        keymap.Default(),
		shared:      &sharedState{},
		editor:      ed,
		spinner:     sp,
		sidebar:     NewSidebar(32, 24),
		palette:     NewPalette(60, 20),
		prompt:      pr,
		nameIn:      name,
		sidebarOpen: true,
		initialRoot: root,
	}
}

// Init kicks off the project open and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		m.openProjectCmd(m.initialRoot),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case projectOpenedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("opened %s", m.session.Tree.DisplayName()))
		m.sidebar.SetSize(m.sidebarWidth(), m.contentHeight())
		m.busy = true
		return m, m.indexCmd()

	case indexDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(warnStyle.Render(m.session.Warning()))
			return m, nil
		}
		if res := m.session.IndexResult(); res != nil {
			m.setStatus(fmt.Sprintf("indexed %d files", res.FilesIndexed))
		}
		if msg.offerAnalysis {
			m.modal = modalOfferAnalysis
		}
		return m, nil

	case fileLoadedMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.syncEditor()
		m.focus = focusEditor
		m.editor.Focus()
		return m, nil

	case saveDoneMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("saved %s", msg.path))
		return m, nil

	case saveAllDoneMsg:
		if len(msg.failures) > 0 {
			m.setError(fmt.Sprintf("saved %d, failed %d: %s",
				msg.saved, len(msg.failures), describe(msg.failures[0].Err)))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("saved %d documents", msg.saved))
		return m, nil

	case analysisFrameMsg:
		m.session.ApplyAnalysisFrame(msg.runID, msg.frame)
		if p := m.session.Progress(); p != nil && p.Terminal() {
			if p.Failed() {
				m.setError("analysis failed: " + p.ErrorMessage)
			} else {
				m.showResult(p)
			}
		}
		return m, nil

	case analysisFinishedMsg:
		m.session.FinishAnalysis(msg.runID, msg.err)
		if w := m.session.Warning(); w != "" && msg.err != nil {
			m.setStatus(warnStyle.Render(w))
		}
		return m, nil

	case generationDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		if msg.res.Warning != "" {
			m.setStatus(warnStyle.Render(msg.res.Warning))
		} else {
			m.setStatus("generation complete")
		}
		m.syncEditor()
		m.focus = focusEditor
		m.editor.Focus()
		return m, nil

	case renameDoneMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("renamed to %s", msg.newPath))
		m.syncEditor()
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("deleted %s", msg.path))
		m.syncEditor()
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
		}
		return m, nil

	case modelsMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.models = msg.models
		m.modelIdx = 0
		for i, mi := range m.models {
			if mi.ID == m.model {
				m.modelIdx = i
			}
		}
		m.modal = modalModels
		return m, nil

	case modelSelectedMsg:
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.model = msg.id
		m.setStatus("model: " + msg.id)
		return m, nil

	case previewDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.openOutput("Preview: "+msg.res.Title, msg.res.Text)
		return m, nil

	case executeDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(describe(msg.err))
			return m, nil
		}
		m.openOutput("Execution result", string(msg.raw))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.Dispatch(msg.String(), keymap.Context{ModalOpen: m.modal != modalNone})

	switch action {
	case keymap.ActionQuit:
		m.session.AbortAnalysis()
		m.sandbox.Close()
		m.quitting = true
		return m, tea.Quit

	case keymap.ActionDismiss:
		if m.modal != modalNone {
			m.modal = modalNone
			return m, nil
		}
		m.editor.Blur()
		m.focus = focusSidebar
		return m, nil

	case keymap.ActionSave:
		doc, ok := m.session.Docs.Active()
		if !ok {
			return m, nil
		}
		if doc.Synthetic {
			m.renameTarget = doc.Path
			m.nameIn.Placeholder = "save as path, e.g. src/new_file.py"
			m.nameIn.SetValue("")
			m.nameIn.Focus()
			m.modal = modalSaveAs
			return m, nil
		}
		return m, m.saveCmd(doc.Path)

	case keymap.ActionSaveAll:
		return m, m.saveAllCmd()

	case keymap.ActionQuickOpen:
		m.palette.SetFiles(m.session.Tree.Files(m.prefs.SearchExcludes(context.Background())))
		m.modal = modalPalette
		return m, nil

	case keymap.ActionCloseTab:
		if doc, ok := m.session.Docs.Active(); ok {
			m.session.Docs.Close(doc.Path)
			m.syncEditor()
		}
		return m, nil

	case keymap.ActionNextTab:
		m.cycleTab()
		return m, nil

	case keymap.ActionToggleSidebar:
		m.sidebarOpen = !m.sidebarOpen
		m.layout()
		if err := m.prefs.SetSidebarVisible(context.Background(), m.sidebarOpen); err != nil {
			m.setStatus(warnStyle.Render("could not persist sidebar state"))
		}
		return m, nil

	case keymap.ActionRefreshTree:
		return m, m.refreshCmd()

	case keymap.ActionRunActive:
		m.busy = true
		return m, m.executeCmd()

	case keymap.ActionToggleHelp:
		if m.modal == modalHelp {
			m.modal = modalNone
		} else {
			m.modal = modalHelp
		}
		return m, nil
	}

	if m.modal != modalNone {
		return m.handleModalKey(msg)
	}
	return m.handleWorkspaceKey(msg)
}

// handleWorkspaceKey routes keys with no global binding to the focused pane.
func (m Model) handleWorkspaceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		if m.focus == focusEditor {
			m.editor.Blur()
			m.focus = focusSidebar
		} else {
			m.focus = focusEditor
			m.editor.Focus()
		}
		return m, nil

	case "ctrl+g":
		m.prompt.SetValue("")
		m.prompt.Focus()
		m.modal = modalPrompt
		return m, nil

	case "ctrl+l":
		return m, m.listModelsCmd()

	case "ctrl+n":
		switch m.session.Phase() {
		case workspace.PhaseReady, workspace.PhaseIndexed, workspace.PhaseAnalyzed:
			return m, m.startAnalysisCmd("")
		}
		m.setStatus(warnStyle.Render("analysis needs an open project"))
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.updateFocused(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.session.Tree.Visible()
	switch msg.String() {
	case "up", "k":
		m.sidebar.MoveUp()
	case "down", "j":
		m.sidebar.MoveDown(len(rows))
	case "enter", "l":
		row := m.sidebar.CursorRow(rows)
		if row == nil {
			return m, nil
		}
		if row.Node.IsDirectory {
			m.session.Tree.ToggleExpand(row.Node.Path)
			return m, nil
		}
		return m, m.loadFileCmd(row.Node.Path)
	case "r":
		row := m.sidebar.CursorRow(rows)
		if row == nil || row.Node.IsDirectory {
			return m, nil
		}
		m.renameTarget = row.Node.Path
		m.nameIn.Placeholder = "new path"
		m.nameIn.SetValue(row.Node.Path)
		m.nameIn.Focus()
		m.modal = modalRename
	case "x":
		row := m.sidebar.CursorRow(rows)
		if row == nil || row.Node.IsDirectory {
			return m, nil
		}
		m.renameTarget = row.Node.Path
		m.modal = modalConfirmDelete
	case "<":
		m.resizeSidebar(-2)
	case ">":
		m.resizeSidebar(2)
	}
	return m, nil
}

// minSidebarWidth keeps the tree readable while resizing.
const minSidebarWidth = 20

// resizeSidebar nudges the sidebar width and persists it.
func (m *Model) resizeSidebar(delta int) {
	w := m.sidebar.Width() + delta
	if w < minSidebarWidth {
		w = minSidebarWidth
	}
	if m.width > 0 && w > m.width/2 {
		w = m.width / 2
	}
	m.sidebar.SetSize(w, m.contentHeight())
	m.layout()
	if err := m.prefs.SetSidebarWidth(context.Background(), w); err != nil {
		m.setStatus(warnStyle.Render("could not persist sidebar width"))
	}
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalPalette:
		if msg.String() == "enter" {
			if path, ok := m.palette.Selected(); ok {
				m.modal = modalNone
				return m, m.loadFileCmd(path)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd

	case modalPrompt:
		if msg.String() == "enter" {
			text := m.prompt.Value()
			m.modal = modalNone
			if text == "" {
				return m, nil
			}
			m.busy = true
			m.setStatus("generating...")
			return m, m.generateCmd(text)
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd

	case modalRename:
		if msg.String() == "enter" {
			newPath := m.nameIn.Value()
			m.modal = modalNone
			if newPath == "" || newPath == m.renameTarget {
				return m, nil
			}
			return m, m.renameCmd(m.renameTarget, newPath)
		}
		var cmd tea.Cmd
		m.nameIn, cmd = m.nameIn.Update(msg)
		return m, cmd

	case modalSaveAs:
		if msg.String() == "enter" {
			relPath := m.nameIn.Value()
			m.modal = modalNone
			if relPath == "" {
				return m, nil
			}
			return m, m.saveAsCmd(m.renameTarget, relPath)
		}
		var cmd tea.Cmd
		m.nameIn, cmd = m.nameIn.Update(msg)
		return m, cmd

	case modalConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.modal = modalNone
			return m, m.deleteCmd(m.renameTarget)
		case "n", "N":
			m.modal = modalNone
		}
		return m, nil

	case modalOfferAnalysis:
		switch msg.String() {
		case "y", "Y":
			m.modal = modalNone
			return m, m.startAnalysisCmd("")
		case "n", "N":
			m.modal = modalNone
		}
		return m, nil

	case modalModels:
		switch msg.String() {
		case "up", "k":
			if m.modelIdx > 0 {
				m.modelIdx--
			}
		case "down", "j":
			if m.modelIdx < len(m.models)-1 {
				m.modelIdx++
			}
		case "enter":
			m.modal = modalNone
			if m.modelIdx < len(m.models) {
				return m, m.selectModelCmd(m.models[m.modelIdx].ID)
			}
		}
		return m, nil

	case modalOutput:
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateFocused forwards a message to the editor and records the edit.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus != focusEditor {
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)

	if doc, ok := m.session.Docs.Active(); ok {
		if v := m.editor.Value(); v != doc.Content {
			m.session.Docs.Edit(doc.Path, v)
		}
	}
	return m, cmd
}

// syncEditor reloads the editor surface from the active document.
func (m *Model) syncEditor() {
	doc, ok := m.session.Docs.Active()
	if !ok {
		m.editor.SetValue("")
		m.editor.Blur()
		return
	}
	if m.editor.Value() != doc.Content {
		m.editor.SetValue(doc.Content)
	}
}

func (m *Model) cycleTab() {
	paths := m.session.Docs.Paths()
	if len(paths) < 2 {
		return
	}
	active, ok := m.session.Docs.Active()
	for i, p := range paths {
		if ok && p == active.Path {
			m.session.Docs.SetActive(paths[(i+1)%len(paths)])
			break
		}
	}
	m.syncEditor()
}

func (m *Model) openOutput(title, body string) {
	m.output = viewport.New(m.width-8, m.contentHeight()-4)
	m.output.SetContent(titleStyle.Render(title) + "\n\n" + body)
	m.modal = modalOutput
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.failed = true
}

func (m *Model) showResult(p *analysis.Progress) {
	m.setStatus("analysis complete")
	m.openOutput("Analysis result", fmt.Sprintf("%v", p.Result))
}

func (m *Model) sidebarWidth() int {
	if !m.sidebarOpen {
		return 0
	}
	w := m.sidebar.Width()
	if w > m.width/2 {
		w = m.width / 2
	}
	return w
}

func (m *Model) contentHeight() int {
	// Tabs row plus status bar.
	h := m.height - 2
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) layout() {
	m.sidebar.SetSize(m.sidebarWidth(), m.contentHeight())
	m.editor.SetWidth(m.width - m.sidebarWidth() - 1)
	m.editor.SetHeight(m.contentHeight())
	m.palette.SetSize(m.width-8, m.contentHeight()-4)
}

// describe folds an error into a status-line string with a hint for the
// common failure classes.
func describe(err error) string {
	if hint := backend.Categorize(err).Hint(); hint != "" {
		return fmt.Sprintf("%v (%s)", err, hint)
	}
	return err.Error()
}

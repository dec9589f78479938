package tui

import (
	"fmt"
	gostrings "strings"

	"github.com/charmbracelet/lipgloss"

	wbstrings "github.com/joss/workbench/internal/strings"
	"github.com/joss/workbench/internal/workspace"
)

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s loading...", m.spinner.View())
	}

	switch m.modal {
	case modalHelp:
		return m.viewHelp()
	case modalPalette:
		return m.palette.View()
	case modalPrompt:
		return boxStyle.Render(titleStyle.Render("Generate") + "\n\n" + m.prompt.View())
	case modalRename:
		return boxStyle.Render(titleStyle.Render("Rename "+m.renameTarget) + "\n\n" + m.nameIn.View())
	case modalSaveAs:
		return boxStyle.Render(titleStyle.Render("Save as") + "\n\n" + m.nameIn.View())
	case modalConfirmDelete:
		return boxStyle.Render(
			titleStyle.Render("Delete "+m.renameTarget) + "\n\n" +
				errorStyle.Render("delete this file?") + " [y/N]")
	case modalOfferAnalysis:
		return boxStyle.Render(
			titleStyle.Render("Project indexed") + "\n\n" +
				"Run a project analysis now? [y/N]")
	case modalModels:
		return m.viewModels()
	case modalOutput:
		return boxStyle.Render(m.output.View() + helpStyle.Render("\nesc to close"))
	}

	return m.viewWorkspace()
}

func (m Model) viewWorkspace() string {
	var b gostrings.Builder
	b.WriteString(m.viewTabs() + "\n")

	editor := m.editor.View()
	if _, ok := m.session.Docs.Active(); !ok {
		editor = infoStyle.Render(m.emptyHint())
	}

	if m.sidebarOpen && m.session.Tree.Loaded() {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.sidebar.View(m.session.Tree, m.session.Docs),
			editor,
		))
	} else {
		b.WriteString(editor)
	}
	b.WriteString("\n" + m.viewStatusBar())
	return b.String()
}

func (m Model) viewTabs() string {
	paths := m.session.Docs.Paths()
	if len(paths) == 0 {
		return tabStyle.Render("no open files")
	}

	active, activeOk := m.session.Docs.Active()
	var tabs []string
	for _, p := range paths {
		doc, _ := m.session.Docs.Get(p)
		label := doc.DisplayName
		if doc.Dirty {
			label = "● " + label
		}
		if activeOk && p == active.Path {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return wbstrings.Truncate(gostrings.Join(tabs, "│"), m.width*2)
}

func (m Model) viewStatusBar() string {
	var parts []string

	phase := m.session.Phase()
	parts = append(parts, phase.String())

	if m.busy || phase == workspace.PhaseIndexing || phase == workspace.PhaseAnalyzing {
		parts = append(parts, m.spinner.View())
	}

	if p := m.session.Progress(); p != nil && phase == workspace.PhaseAnalyzing {
		parts = append(parts, fmt.Sprintf("%s %d%% %s", p.Stage, p.Percent,
			wbstrings.Truncate(p.Message, 40)))
	}

	if doc, ok := m.session.Docs.Active(); ok {
		parts = append(parts, wbstrings.Ellipsize(doc.Path, 32))
		if doc.Dirty {
			added, removed := m.session.Docs.DiffStats(doc.Path)
			parts = append(parts, fmt.Sprintf("+%d -%d", added, removed))
		}
	}

	if m.model != "" {
		parts = append(parts, m.model)
	}

	if m.status != "" {
		if m.failed {
			parts = append(parts, errorStyle.Render(m.status))
		} else {
			parts = append(parts, m.status)
		}
	} else if w := m.session.Warning(); w != "" {
		parts = append(parts, warnStyle.Render(w))
	}

	return statusBarStyle.Width(m.width).Render(gostrings.Join(parts, " │ "))
}

func (m Model) viewModels() string {
	var b gostrings.Builder
	b.WriteString(titleStyle.Render("Models") + "\n\n")
	for i, mi := range m.models {
		line := fmt.Sprintf("%s (%s)", mi.Name, mi.Provider)
		if mi.ID == m.model || (m.model == "" && mi.Selected) {
			line += " " + activeStyle.Render("*")
		}
		if i == m.modelIdx {
			line = cursorRowStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(m.models) == 0 {
		b.WriteString(infoStyle.Render("no models reported") + "\n")
	}
	b.WriteString(helpStyle.Render("enter to select, esc to close"))
	return boxStyle.Render(b.String())
}

func (m Model) viewHelp() string {
	var b gostrings.Builder
	b.WriteString(titleStyle.Render("Keys") + "\n\n")
	for _, binding := range m.keys.Bindings() {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", binding.Chord, binding.Action))
	}
	b.WriteString("\n" + infoStyle.Render("sidebar: enter opens, r renames, x deletes, </> resizes") + "\n")
	b.WriteString(infoStyle.Render("ctrl+g generate, ctrl+n analyze, ctrl+l models") + "\n")
	b.WriteString(helpStyle.Render("esc to close"))
	return boxStyle.Render(b.String())
}

func (m Model) emptyHint() string {
	return "\n  ctrl+p to open a file, ctrl+g to generate one\n"
}

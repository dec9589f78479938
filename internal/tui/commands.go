package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/ulid/v2"

	"github.com/joss/workbench/internal/analysis"
	"github.com/joss/workbench/internal/language"
)

func (m *Model) openProjectCmd(root string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.TaskTimeout)
		defer cancel()
		return projectOpenedMsg{err: m.session.OpenProject(ctx, root)}
	}
}

func (m *Model) indexCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.TaskTimeout)
		defer cancel()
		offered, err := m.session.IndexProject(ctx)
		return indexDoneMsg{offerAnalysis: offered, err: err}
	}
}

func (m *Model) loadFileCmd(relPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		_, err := m.session.OpenDocument(ctx, relPath)
		return fileLoadedMsg{path: relPath, err: err}
	}
}

func (m *Model) saveCmd(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		return saveDoneMsg{path: path, err: m.session.Save(ctx, path)}
	}
}

func (m *Model) saveAsCmd(docPath, relPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		return saveDoneMsg{path: relPath, err: m.session.SaveAs(ctx, docPath, relPath)}
	}
}

func (m *Model) saveAllCmd() tea.Cmd {
	dirty := len(m.session.Docs.DirtyPaths())
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.TaskTimeout)
		defer cancel()
		failures := m.session.SaveAll(ctx)
		return saveAllDoneMsg{saved: dirty - len(failures), failures: failures}
	}
}

func (m *Model) renameCmd(oldRel, newRel string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		return renameDoneMsg{oldPath: oldRel, newPath: newRel, err: m.session.RenameEntry(ctx, oldRel, newRel)}
	}
}

func (m *Model) deleteCmd(relPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		return deleteDoneMsg{path: relPath, err: m.session.DeleteEntry(ctx, relPath)}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		return refreshDoneMsg{err: m.session.Refresh(ctx)}
	}
}

func (m *Model) generateCmd(instruction string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.TaskTimeout)
		defer cancel()
		res, err := m.session.Generate(ctx, instruction)
		return generationDoneMsg{res: res, err: err}
	}
}

func (m *Model) executeCmd() tea.Cmd {
	doc, ok := m.session.Docs.Active()
	if !ok {
		return nil
	}
	if language.IsMarkup(doc.Language) {
		content, lang := doc.Content, doc.Language
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), m.env.TaskTimeout)
			defer cancel()
			res, err := m.sandbox.Render(ctx, content, lang)
			return previewDoneMsg{res: res, err: err}
		}
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.TaskTimeout)
		defer cancel()
		raw, err := m.session.ExecuteActive(ctx)
		return executeDoneMsg{raw: raw, err: err}
	}
}

func (m *Model) listModelsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		models, err := m.client.ListModels(ctx)
		return modelsMsg{models: models, err: err}
	}
}

func (m *Model) selectModelCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.env.QuickTimeout)
		defer cancel()
		if err := m.client.SelectModel(ctx, id); err != nil {
			return modelSelectedMsg{id: id, err: err}
		}
		if err := m.prefs.SetSelectedModel(ctx, id); err != nil {
			return modelSelectedMsg{id: id, err: err}
		}
		return modelSelectedMsg{id: id}
	}
}

// startAnalysisCmd opens the stream and pumps decoded frames into the
// program. The command itself only returns once, when the stream ends;
// frames travel via Program.Send from the reader goroutine.
func (m *Model) startAnalysisCmd(question string) tea.Cmd {
	runID := ulid.Make().String()
	ctx, cancel := context.WithCancel(context.Background())
	m.session.BeginAnalysis(runID, cancel)

	shared := m.shared
	client := m.client
	root := m.session.Tree.RootPath()

	return func() tea.Msg {
		body, err := client.RunAnalysis(ctx, root, "general", question)
		if err != nil {
			return analysisFinishedMsg{runID: runID, err: err}
		}
		defer body.Close()

		dec := analysis.NewFrameDecoder()
		buf := make([]byte, 4096)
		for {
			n, readErr := body.Read(buf)
			if n > 0 {
				for _, f := range dec.Feed(buf[:n]) {
					shared.program.Send(analysisFrameMsg{runID: runID, frame: f})
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) || errors.Is(readErr, context.Canceled) {
					return analysisFinishedMsg{runID: runID}
				}
				return analysisFinishedMsg{runID: runID, err: readErr}
			}
		}
	}
}

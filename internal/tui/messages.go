package tui

import (
	"encoding/json"

	"github.com/joss/workbench/internal/analysis"
	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/preview"
	"github.com/joss/workbench/internal/workspace"
)

// Message types. Commands do the remote work against the session controller
// and report back through these; Update only re-renders from session state.
type (
	projectOpenedMsg struct{ err error }

	indexDoneMsg struct {
		offerAnalysis bool
		err           error
	}

	fileLoadedMsg struct {
		path string
		err  error
	}

	saveDoneMsg struct {
		path string
		err  error
	}

	saveAllDoneMsg struct {
		saved    int
		failures []workspace.SaveFailure
	}

	analysisFrameMsg struct {
		runID string
		frame analysis.Frame
	}

	analysisFinishedMsg struct {
		runID string
		err   error
	}

	generationDoneMsg struct {
		res *backend.TaskResult
		err error
	}

	renameDoneMsg struct {
		oldPath string
		newPath string
		err     error
	}

	deleteDoneMsg struct {
		path string
		err  error
	}

	refreshDoneMsg struct{ err error }

	modelsMsg struct {
		models []backend.ModelInfo
		err    error
	}

	modelSelectedMsg struct {
		id  string
		err error
	}

	previewDoneMsg struct {
		res *preview.Result
		err error
	}

	executeDoneMsg struct {
		raw json.RawMessage
		err error
	}
)

package analysis

// Stage identifies one phase of an analysis run.
type Stage string

const (
	StageStarting   Stage = "starting"
	StageProfiling  Stage = "profiling"
	StageStrategy   Stage = "strategy"
	StageScanning   Stage = "scanning"
	StageGit        Stage = "git"
	StageRAG        Stage = "rag"
	StageAnalyzing  Stage = "analyzing"
	StageProcessing Stage = "processing"
	StageCompleted  Stage = "completed"
	StageError      Stage = "error"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageStarting, StageProfiling, StageStrategy, StageScanning,
		StageGit, StageRAG, StageAnalyzing, StageProcessing,
		StageCompleted, StageError:
		return true
	}
	return false
}

// Terminal reports whether s ends a run. No frames are accepted after a
// terminal stage is reached for a given run.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

// Progress is the folded state of one analysis run. A new run fully
// replaces the previous Progress value.
type Progress struct {
	RunID        string
	Stage        Stage
	Message      string
	Percent      int
	Details      map[string]any
	Result       any
	ErrorMessage string
}

// NewProgress starts a fresh run.
func NewProgress(runID string) *Progress {
	return &Progress{RunID: runID, Stage: StageStarting}
}

// Apply folds a frame into the run state. Returns false if the run is
// already terminal; the frame is then ignored.
func (p *Progress) Apply(f Frame) bool {
	if p.Terminal() {
		return false
	}

	p.Stage = f.Stage
	p.Message = f.Message
	p.Percent = clampPercent(f.Progress)
	// Details are replaced wholesale, never merged.
	p.Details = f.Details

	switch f.Stage {
	case StageCompleted:
		p.Percent = 100
		if f.Details != nil {
			if r, ok := f.Details["result"]; ok {
				p.Result = r
			}
		}
	case StageError:
		p.ErrorMessage = f.Message
	}
	return true
}

// Terminal reports whether the run has reached completed or error.
func (p *Progress) Terminal() bool {
	return p.Stage.Terminal()
}

// Failed reports whether the run ended in the error stage.
func (p *Progress) Failed() bool {
	return p.Stage == StageError
}

// clampPercent maps a reported fraction onto [0,100].
func clampPercent(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	pct := fraction * 100
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

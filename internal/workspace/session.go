package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/joss/workbench/internal/analysis"
	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/language"
	"github.com/joss/workbench/internal/logging"
)

// Phase is the project lifecycle state.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseOpening
	PhaseReady
	PhaseIndexing
	PhaseIndexed
	PhaseAnalyzing
	PhaseAnalyzed
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseOpening:
		return "opening"
	case PhaseReady:
		return "ready"
	case PhaseIndexing:
		return "indexing"
	case PhaseIndexed:
		return "indexed"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseAnalyzed:
		return "analyzed"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Backend is the slice of the remote service the controller needs.
type Backend interface {
	OpenProject(ctx context.Context, path string) (*backend.ProjectInfo, error)
	ReadFile(ctx context.Context, absolutePath string) (*backend.FileContent, error)
	WriteFile(ctx context.Context, absolutePath, content string, createParentDirs bool) (*backend.WriteResult, error)
	DeleteFile(ctx context.Context, absolutePath string) error
	RenameFile(ctx context.Context, oldPath, newPath string) error
	IndexProject(ctx context.Context, path string) (*backend.IndexResult, error)
	ExecuteInstruction(ctx context.Context, text string, taskCtx map[string]any) (*backend.TaskResult, error)
	ExecuteTool(ctx context.Context, toolName string, input map[string]any) (json.RawMessage, error)
}

// Recents records opened project roots.
type Recents interface {
	TouchRecentProject(ctx context.Context, path string) error
}

// Session is the workspace session controller: it owns the document set,
// the tree cache, and the analysis progress state, and sequences
// project-open, auto-index, and analysis against the backend.
//
// Remote calls run outside any lock so a slow save of one document never
// blocks edits to another. The document set and the tree cache synchronize
// internally; the session mutex guards the lifecycle fields (phase,
// warnings, analysis run ownership).
type Session struct {
	mu sync.Mutex

	backend Backend
	recents Recents
	log     *logging.Logger

	Docs *DocumentSet
	Tree *TreeCache

	phase       Phase
	lastErr     error
	warning     string
	indexResult *backend.IndexResult

	// analysisOffered is a one-shot flag per project session.
	analysisOffered bool
	progress        *analysis.Progress
	cancelAnalysis  context.CancelFunc
	phaseBeforeRun  Phase
}

// NewSession creates a controller in the empty phase.
func NewSession(b Backend, recents Recents) *Session {
	return &Session{
		backend: b,
		recents: recents,
		log:     logging.New("workspace"),
		Docs:    NewDocumentSet(),
		Tree:    NewTreeCache(),
		phase:   PhaseEmpty,
	}
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Warning returns the current non-fatal status note, if any.
func (s *Session) Warning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// LastError returns the error that moved the session into PhaseError.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// IndexResult returns the last successful indexing summary, or nil.
func (s *Session) IndexResult() *backend.IndexResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexResult
}

// AbsolutePath resolves a project-relative path against the project root.
func (s *Session) AbsolutePath(rel string) string {
	root := s.Tree.RootPath()
	if rel == "" {
		return root
	}
	return path.Join(root, rel)
}

// OpenProject fetches the tree, replaces all project state wholesale, and
// records the root in the recent list. Open documents from a previous
// project are kept only if the same root is re-opened; a different root
// starts a fresh document set.
func (s *Session) OpenProject(ctx context.Context, rootPath string) error {
	s.mu.Lock()
	sameRoot := s.Tree.RootPath() == rootPath
	s.phase = PhaseOpening
	s.lastErr = nil
	s.warning = ""
	s.mu.Unlock()

	info, err := s.backend.OpenProject(ctx, rootPath)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseError
		s.lastErr = err
		s.mu.Unlock()
		s.log.Error("project_open_failed", map[string]any{"root": rootPath}, err)
		return err
	}

	s.Tree.Load(info, rootPath)
	if !sameRoot {
		s.Docs.Reset()
	}

	s.mu.Lock()
	if !sameRoot {
		s.analysisOffered = false
	}
	s.indexResult = nil
	s.progress = nil
	s.phase = PhaseReady
	s.mu.Unlock()

	if err := s.recents.TouchRecentProject(ctx, rootPath); err != nil {
		s.log.Warn("recents_update_failed", map[string]any{"root": rootPath}, err)
	}
	s.log.WithRoot(rootPath).Info("project_opened", map[string]any{
		"files": info.Stats.TotalFiles,
	})
	return nil
}

// IndexProject runs the best-effort indexing pass. On success the session
// reaches PhaseIndexed and, once per project session, reports that an
// analysis should be offered. Failure degrades to PhaseReady with a
// visible warning; the editor stays fully usable.
func (s *Session) IndexProject(ctx context.Context) (offerAnalysis bool, err error) {
	s.mu.Lock()
	if s.phase != PhaseReady {
		s.mu.Unlock()
		return false, fmt.Errorf("cannot index in phase %s", s.phase)
	}
	s.phase = PhaseIndexing
	root := s.Tree.RootPath()
	s.mu.Unlock()

	res, err := s.backend.IndexProject(ctx, root)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseReady
		s.warning = "indexing failed, search quality may be reduced"
		s.log.Warn("index_failed", map[string]any{"root": root}, err)
		return false, err
	}

	s.phase = PhaseIndexed
	s.indexResult = res
	s.warning = ""
	if !s.analysisOffered {
		s.analysisOffered = true
		offerAnalysis = true
	}
	return offerAnalysis, nil
}

// BeginAnalysis replaces any previous run with a fresh progress state and
// moves to PhaseAnalyzing. cancel aborts the underlying stream.
func (s *Session) BeginAnalysis(runID string, cancel context.CancelFunc) *analysis.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelAnalysis != nil {
		s.cancelAnalysis()
	}
	if s.phase != PhaseAnalyzing {
		s.phaseBeforeRun = s.phase
	}
	s.phase = PhaseAnalyzing
	s.progress = analysis.NewProgress(runID)
	s.cancelAnalysis = cancel
	return s.progress
}

// ApplyAnalysisFrame folds a stream frame into the current run. Frames for
// stale run ids and frames after a terminal stage are ignored.
func (s *Session) ApplyAnalysisFrame(runID string, f analysis.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress == nil || s.progress.RunID != runID {
		return false
	}
	if !s.progress.Apply(f) {
		return false
	}

	if s.progress.Terminal() {
		s.cancelAnalysis = nil
		if s.progress.Failed() {
			// Analysis failure is not a dead end.
			s.phase = s.phaseBeforeRun
		} else {
			s.phase = PhaseAnalyzed
		}
	}
	return true
}

// FinishAnalysis handles the end of the stream. A stream that ends before
// a terminal stage leaves an abandoned run: the session returns to its
// pre-analysis phase and the stale progress is discarded on the next run.
func (s *Session) FinishAnalysis(runID string, streamErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress == nil || s.progress.RunID != runID {
		return
	}
	if s.progress.Terminal() {
		return
	}

	s.cancelAnalysis = nil
	s.phase = s.phaseBeforeRun
	if streamErr != nil {
		s.warning = "analysis stream interrupted"
		s.log.Warn("analysis_abandoned", map[string]any{"run": runID}, streamErr)
	}
}

// AbortAnalysis cancels the in-flight stream, if any.
func (s *Session) AbortAnalysis() {
	s.mu.Lock()
	cancel := s.cancelAnalysis
	s.cancelAnalysis = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Progress returns a snapshot of the current analysis run, or nil.
func (s *Session) Progress() *analysis.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return nil
	}
	snapshot := *s.progress
	return &snapshot
}

// OpenDocument reads a file from the backend and opens it in the editor.
// Binary files are refused, not decoded.
func (s *Session) OpenDocument(ctx context.Context, relPath string) (Document, error) {
	if doc, ok := s.Docs.Get(relPath); ok {
		s.Docs.SetActive(relPath)
		return doc, nil
	}

	fc, err := s.backend.ReadFile(ctx, s.AbsolutePath(relPath))
	if err != nil {
		return Document{}, err
	}
	if fc.IsBinary {
		return Document{}, fmt.Errorf("%w: %s", backend.ErrBinaryUnsupported, relPath)
	}

	lang := fc.DetectedLanguage
	if lang == "" {
		lang = language.Detect(relPath, fc.Content)
	}
	return s.Docs.OpenFile(relPath, fc.Content, lang), nil
}

// Save persists one document. Synthetic documents without a bound path
// fail with ErrNotSavable. On failure the document stays dirty.
func (s *Session) Save(ctx context.Context, docPath string) error {
	doc, ok := s.Docs.Get(docPath)
	if !ok {
		return nil
	}
	if doc.Synthetic {
		return fmt.Errorf("%w: %s", ErrNotSavable, doc.DisplayName)
	}
	content := doc.Content

	if _, err := s.backend.WriteFile(ctx, s.AbsolutePath(docPath), content, false); err != nil {
		s.log.Error("save_failed", map[string]any{"path": docPath}, err)
		return err
	}

	s.Docs.MarkSaved(docPath, content)
	return nil
}

// SaveFailure reports one failed save from a save-all.
type SaveFailure struct {
	Path string
	Err  error
}

// SaveAll saves every dirty non-synthetic document. Failures are reported
// per document; one failed write never aborts the others.
func (s *Session) SaveAll(ctx context.Context) []SaveFailure {
	dirty := s.Docs.DirtyPaths()

	var failures []SaveFailure
	for _, p := range dirty {
		if err := s.Save(ctx, p); err != nil {
			failures = append(failures, SaveFailure{Path: p, Err: err})
		}
	}
	return failures
}

// SaveAs binds a synthetic document to a real project-relative path and
// persists it there.
func (s *Session) SaveAs(ctx context.Context, docPath, relPath string) error {
	if err := s.Docs.Bind(docPath, relPath); err != nil {
		return err
	}
	doc, _ := s.Docs.Get(relPath)
	content := doc.Content

	if _, err := s.backend.WriteFile(ctx, s.AbsolutePath(relPath), content, true); err != nil {
		return err
	}

	s.Docs.MarkSaved(relPath, content)
	return nil
}

// DeleteEntry removes a file remotely, then closes the open document and
// refreshes the tree so neither outlives the deleted entry.
func (s *Session) DeleteEntry(ctx context.Context, relPath string) error {
	if err := s.backend.DeleteFile(ctx, s.AbsolutePath(relPath)); err != nil {
		return err
	}

	info, err := s.backend.OpenProject(ctx, s.Tree.RootPath())

	s.Docs.Close(relPath)
	if err == nil {
		s.Tree.Reload(info)
	}
	return err
}

// RenameEntry renames a file remotely, then re-keys the open document and
// refreshes the tree.
func (s *Session) RenameEntry(ctx context.Context, oldRel, newRel string) error {
	if err := s.backend.RenameFile(ctx, s.AbsolutePath(oldRel), s.AbsolutePath(newRel)); err != nil {
		return err
	}

	info, err := s.backend.OpenProject(ctx, s.Tree.RootPath())

	s.Docs.Rekey(oldRel, newRel)
	if err == nil {
		s.Tree.Reload(info)
	}
	return err
}

// Refresh re-fetches the tree using the last root, preserving expansion.
func (s *Session) Refresh(ctx context.Context) error {
	info, err := s.backend.OpenProject(ctx, s.Tree.RootPath())
	if err != nil {
		return err
	}
	s.Tree.Reload(info)
	return nil
}

// Generate executes a free-text instruction and lands the result in a
// synthetic document. Independent of the project lifecycle machine.
func (s *Session) Generate(ctx context.Context, instruction string) (*backend.TaskResult, error) {
	taskCtx := map[string]any{"projectPath": s.Tree.RootPath()}
	if active, ok := s.Docs.Active(); ok {
		taskCtx["activeFile"] = active.Path
	}

	res, err := s.backend.ExecuteInstruction(ctx, instruction, taskCtx)
	if err != nil {
		return nil, err
	}

	content := res.GeneratedCode
	if content == "" {
		content = res.ResultText
	}
	if content != "" {
		name := syntheticName(instruction)
		s.Docs.CreateSynthetic(name, content, language.Detect(name, content))
	}
	return res, nil
}

// ExecuteActive runs the active document through the backend's execution
// tool and returns its opaque result. Markup documents never reach here;
// the caller renders them in the preview sandbox instead.
func (s *Session) ExecuteActive(ctx context.Context) (json.RawMessage, error) {
	doc, ok := s.Docs.Active()
	if !ok {
		return nil, nil
	}
	input := map[string]any{"language": doc.Language, "code": doc.Content}
	return s.backend.ExecuteTool(ctx, "execute_code", input)
}

// syntheticName derives a stable document name from an instruction.
func syntheticName(instruction string) string {
	words := 0
	end := len(instruction)
	for i, r := range instruction {
		if r == ' ' {
			words++
			if words == 4 {
				end = i
				break
			}
		}
	}
	name := instruction[:end]
	if name == "" {
		name = "generated"
	}
	return name
}

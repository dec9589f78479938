// Package workspace holds the session state of an open project: the
// document set, the tree cache, and the controller that sequences
// project-open, indexing, analysis, and generation against the backend.
package workspace

import (
	"errors"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrNotSavable indicates a save of a synthetic document that was never
// bound to an on-disk path.
var ErrNotSavable = errors.New("document has no on-disk path")

// syntheticScheme is the reserved path namespace for documents without an
// on-disk home. It can never collide with a project-relative path.
const syntheticScheme = "untitled:"

// Document is one open text buffer.
type Document struct {
	Path        string
	DisplayName string
	Content     string
	Language    string
	Dirty       bool
	Synthetic   bool

	// saved is the last successfully persisted (or initially loaded)
	// content, kept for dirty-diff stats.
	saved string
	// seq orders documents by open time for close fallback.
	seq int
}

// DocumentSet is the single source of truth for open buffers. All
// operations are in-memory transitions; persistence is the controller's
// job. The set is touched both by the event loop and by save and
// generation goroutines, so every method synchronizes internally and
// accessors return snapshots rather than shared pointers.
type DocumentSet struct {
	mu      sync.RWMutex
	docs    map[string]*Document
	active  string
	nextSeq int
}

// NewDocumentSet creates an empty set with no active document.
func NewDocumentSet() *DocumentSet {
	return &DocumentSet{docs: make(map[string]*Document)}
}

// SyntheticPath derives the reserved path for a synthetic document name.
func SyntheticPath(name string) string {
	slug := strings.TrimSpace(strings.ToLower(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		case r == ' ' || r == '_' || r == '/':
			return '-'
		}
		return -1
	}, slug)
	if slug == "" {
		slug = "untitled"
	}
	return syntheticScheme + slug
}

// Reset closes every document. The set itself stays valid, so holders of
// the pointer never observe a swap.
func (s *DocumentSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Document)
	s.active = ""
	s.nextSeq = 0
}

// OpenFile inserts a clean document and makes it active. If the path is
// already open it only becomes active; existing content is untouched.
func (s *DocumentSet) OpenFile(path, content, lang string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.docs[path]; ok {
		s.active = path
		return *doc
	}

	doc := &Document{
		Path:        path,
		DisplayName: baseName(path),
		Content:     content,
		Language:    lang,
		saved:       content,
		seq:         s.take(),
	}
	s.docs[path] = doc
	s.active = path
	return *doc
}

// CreateSynthetic inserts or replaces a dirty document in the reserved
// namespace and makes it active.
func (s *DocumentSet) CreateSynthetic(name, content, lang string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := SyntheticPath(name)

	doc, ok := s.docs[path]
	if !ok {
		doc = &Document{Path: path, DisplayName: name, seq: s.take()}
		s.docs[path] = doc
	}
	doc.Content = content
	doc.Language = lang
	doc.Dirty = true
	doc.Synthetic = true

	s.active = path
	return *doc
}

// Edit replaces a document's content and marks it dirty, even if the new
// content equals the old. No-op for unknown paths.
func (s *DocumentSet) Edit(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return
	}
	doc.Content = content
	doc.Dirty = true
}

// Get returns a snapshot of the document at path.
func (s *DocumentSet) Get(path string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// Active returns a snapshot of the document in the primary editing surface.
func (s *DocumentSet) Active() (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == "" {
		return Document{}, false
	}
	doc, ok := s.docs[s.active]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// SetActive switches the visible document. Returns false for unknown paths.
func (s *DocumentSet) SetActive(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[path]; !ok {
		return false
	}
	s.active = path
	return true
}

// Close removes a document. If it was active, the most recently opened
// remaining document becomes active, or none.
func (s *DocumentSet) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[path]; !ok {
		return
	}
	delete(s.docs, path)

	if s.active != path {
		return
	}
	s.active = ""
	latest := -1
	for p, d := range s.docs {
		if d.seq > latest {
			latest = d.seq
			s.active = p
		}
	}
}

// Paths returns open document paths in open order.
func (s *DocumentSet) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pathsLocked()
}

func (s *DocumentSet) pathsLocked() []string {
	paths := make([]string, 0, len(s.docs))
	for p := range s.docs {
		paths = append(paths, p)
	}
	// Insertion-ordered by seq.
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && s.docs[paths[j-1]].seq > s.docs[paths[j]].seq; j-- {
			paths[j-1], paths[j] = paths[j], paths[j-1]
		}
	}
	return paths
}

// DirtyPaths returns the dirty non-synthetic documents, the targets of a
// save-all.
func (s *DocumentSet) DirtyPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dirty []string
	for _, p := range s.pathsLocked() {
		if d := s.docs[p]; d.Dirty && !d.Synthetic {
			dirty = append(dirty, p)
		}
	}
	return dirty
}

// Len returns the number of open documents.
func (s *DocumentSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// MarkSaved records a successful persist of content for path. Dirty is
// cleared only when the buffer still matches what was written; an edit
// racing the save keeps the document dirty (last writer wins).
func (s *DocumentSet) MarkSaved(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return
	}
	doc.saved = content
	if doc.Content == content {
		doc.Dirty = false
	}
}

// Rekey moves a document to a new path, preserving content and dirty
// state. Used when an open file is renamed on disk.
func (s *DocumentSet) Rekey(oldPath, newPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[oldPath]
	if !ok || oldPath == newPath {
		return
	}
	delete(s.docs, oldPath)
	doc.Path = newPath
	doc.DisplayName = baseName(newPath)
	s.docs[newPath] = doc
	if s.active == oldPath {
		s.active = newPath
	}
}

// Bind attaches a synthetic document to a real project-relative path,
// making it savable. The document stays dirty until the first save.
func (s *DocumentSet) Bind(path, realPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return errors.New("document not open")
	}
	if !doc.Synthetic {
		return errors.New("document already has a path")
	}
	if _, taken := s.docs[realPath]; taken {
		return errors.New("target path already open")
	}

	delete(s.docs, path)
	doc.Path = realPath
	doc.DisplayName = baseName(realPath)
	doc.Synthetic = false
	s.docs[realPath] = doc
	if s.active == path {
		s.active = realPath
	}
	return nil
}

// DiffStats returns line additions and deletions between the persisted
// and current content of a document.
func (s *DocumentSet) DiffStats(path string) (added, removed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok || !doc.Dirty {
		return 0, 0
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(doc.saved, doc.Content)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

func (s *DocumentSet) take() int {
	s.nextSeq++
	return s.nextSeq
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return strings.TrimPrefix(path, syntheticScheme)
}

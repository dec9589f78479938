package workspace

import (
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joss/workbench/internal/backend"
)

// TreeCache mirrors the remote file hierarchy plus the expansion state of
// the tree view. The snapshot is replaced wholesale on every fetch; stale
// expanded paths are harmless and ignored at render time. The event loop
// toggles expansion while refresh goroutines swap snapshots, so the cache
// synchronizes internally. Nodes are never mutated after a load, which
// makes handing out node pointers safe.
type TreeCache struct {
	mu          sync.RWMutex
	root        *backend.FileNode
	rootPath    string
	displayName string
	stats       backend.ProjectStats
	expanded    map[string]bool
}

// NewTreeCache creates an empty cache.
func NewTreeCache() *TreeCache {
	return &TreeCache{expanded: make(map[string]bool)}
}

// Load replaces the snapshot for a freshly opened project and resets the
// expansion set to the root only.
func (t *TreeCache) Load(info *backend.ProjectInfo, rootPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tree := info.Tree
	t.root = &tree
	t.rootPath = rootPath
	t.displayName = info.DisplayName
	t.stats = info.Stats
	t.expanded = map[string]bool{tree.Path: true}
}

// Reload replaces the snapshot but preserves the expansion set, for
// refreshes after delete/rename.
func (t *TreeCache) Reload(info *backend.ProjectInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tree := info.Tree
	t.root = &tree
	t.displayName = info.DisplayName
	t.stats = info.Stats
}

// RootPath returns the project root this cache was loaded against.
func (t *TreeCache) RootPath() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rootPath
}

// DisplayName returns the project's display name.
func (t *TreeCache) DisplayName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.displayName
}

// Stats returns the project stats from the last fetch.
func (t *TreeCache) Stats() backend.ProjectStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Loaded reports whether a snapshot is present.
func (t *TreeCache) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root != nil
}

// ToggleExpand flips the expansion state of a directory path.
func (t *TreeCache) ToggleExpand(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.expanded[path] {
		delete(t.expanded, path)
		return
	}
	t.expanded[path] = true
}

// IsExpanded reports whether a directory path is shown expanded.
func (t *TreeCache) IsExpanded(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.expanded[path]
}

// Find returns the node at a project-relative path, or nil.
func (t *TreeCache) Find(path string) *backend.FileNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nil {
		return nil
	}
	var found *backend.FileNode
	t.root.Walk(func(n *backend.FileNode) {
		if n.Path == path {
			found = n
		}
	})
	return found
}

// VisibleNode is one row of the rendered tree.
type VisibleNode struct {
	Node  *backend.FileNode
	Depth int
}

// Visible returns the depth-first rows the tree view shows, honoring the
// expansion set. Children of collapsed directories are skipped.
func (t *TreeCache) Visible() []VisibleNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nil {
		return nil
	}
	var rows []VisibleNode
	t.appendVisible(t.root, 0, &rows)
	return rows
}

func (t *TreeCache) appendVisible(n *backend.FileNode, depth int, rows *[]VisibleNode) {
	*rows = append(*rows, VisibleNode{Node: n, Depth: depth})
	if !n.IsDirectory || !t.expanded[n.Path] {
		return
	}

	children := make([]*backend.FileNode, 0, len(n.Children))
	for i := range n.Children {
		children = append(children, &n.Children[i])
	}
	// Directories first, then alphabetical, matching the file picker.
	sort.Slice(children, func(i, j int) bool {
		if children[i].IsDirectory != children[j].IsDirectory {
			return children[i].IsDirectory
		}
		return children[i].Name < children[j].Name
	})
	for _, c := range children {
		t.appendVisible(c, depth+1, rows)
	}
}

// Files returns every non-directory node, filtered by exclusion globs, for
// the quick-search index.
func (t *TreeCache) Files(excludeGlobs []string) []backend.FileNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nil {
		return nil
	}
	var files []backend.FileNode
	t.root.Walk(func(n *backend.FileNode) {
		if n.IsDirectory {
			return
		}
		for _, glob := range excludeGlobs {
			if ok, err := doublestar.Match(glob, n.Path); err == nil && ok {
				return
			}
		}
		files = append(files, *n)
	})
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].Path) < strings.ToLower(files[j].Path)
	})
	return files
}

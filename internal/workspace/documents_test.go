package workspace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileActivatesWithoutReload(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("main.go", "package main\n", "go")
	s.OpenFile("util.go", "package main\n", "go")

	s.Edit("main.go", "edited")

	// Re-opening an already open file must not clobber unsaved edits.
	doc := s.OpenFile("main.go", "stale remote content", "go")
	assert.Equal(t, "edited", doc.Content)
	assert.True(t, doc.Dirty)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "main.go", active.Path)
}

func TestEditMarksDirtyEvenWhenContentUnchanged(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("a.txt", "same", "plaintext")

	s.Edit("a.txt", "same")

	doc, _ := s.Get("a.txt")
	assert.True(t, doc.Dirty)
}

func TestEditUnknownPathIsNoop(t *testing.T) {
	s := NewDocumentSet()
	s.Edit("ghost.txt", "boo")
	assert.Equal(t, 0, s.Len())
}

func TestMarkSavedClearsDirtyOnlyWhenContentMatches(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("a.txt", "v1", "plaintext")
	s.Edit("a.txt", "v2")

	// An edit raced the save: the buffer moved on past the written content.
	s.Edit("a.txt", "v3")
	s.MarkSaved("a.txt", "v2")

	doc, _ := s.Get("a.txt")
	assert.True(t, doc.Dirty)

	s.MarkSaved("a.txt", "v3")
	doc, _ = s.Get("a.txt")
	assert.False(t, doc.Dirty)
}

func TestCloseFallsBackToMostRecentlyOpened(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("one.go", "", "go")
	s.OpenFile("two.go", "", "go")
	s.OpenFile("three.go", "", "go")
	s.SetActive("three.go")

	s.Close("three.go")
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "two.go", active.Path)

	// Closing an inactive document leaves the active pointer alone.
	s.Close("one.go")
	active, ok = s.Active()
	require.True(t, ok)
	assert.Equal(t, "two.go", active.Path)

	s.Close("two.go")
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestPathsInOpenOrder(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("b.go", "", "go")
	s.OpenFile("a.go", "", "go")
	s.CreateSynthetic("scratch", "x", "plaintext")

	assert.Equal(t, []string{"b.go", "a.go", "untitled:scratch"}, s.Paths())
}

func TestSyntheticPathSlug(t *testing.T) {
	assert.Equal(t, "untitled:add-a-login-form", SyntheticPath("Add a login form"))
	assert.Equal(t, "untitled:untitled", SyntheticPath("???"))
}

func TestCreateSyntheticReplacesByName(t *testing.T) {
	s := NewDocumentSet()
	s.CreateSynthetic("scratch", "first", "plaintext")
	s.CreateSynthetic("scratch", "second", "go")

	assert.Equal(t, 1, s.Len())
	doc, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "second", doc.Content)
	assert.Equal(t, "go", doc.Language)
	assert.True(t, doc.Dirty)
	assert.True(t, doc.Synthetic)
}

func TestDirtyPathsSkipsSynthetic(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("clean.go", "", "go")
	s.OpenFile("dirty.go", "", "go")
	s.Edit("dirty.go", "changed")
	s.CreateSynthetic("scratch", "x", "plaintext")

	assert.Equal(t, []string{"dirty.go"}, s.DirtyPaths())
}

func TestRekeyPreservesContentDirtyAndActive(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("old/name.go", "body", "go")
	s.Edit("old/name.go", "body2")

	s.Rekey("old/name.go", "new/name.go")

	_, stillOld := s.Get("old/name.go")
	assert.False(t, stillOld)

	doc, ok := s.Get("new/name.go")
	require.True(t, ok)
	assert.Equal(t, "body2", doc.Content)
	assert.True(t, doc.Dirty)
	assert.Equal(t, "name.go", doc.DisplayName)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "new/name.go", active.Path)
}

func TestBindSyntheticToRealPath(t *testing.T) {
	s := NewDocumentSet()
	s.CreateSynthetic("scratch", "x", "go")

	require.NoError(t, s.Bind("untitled:scratch", "pkg/scratch.go"))

	doc, ok := s.Get("pkg/scratch.go")
	require.True(t, ok)
	assert.False(t, doc.Synthetic)
	assert.True(t, doc.Dirty, "stays dirty until first save")
	assert.Equal(t, "scratch.go", doc.DisplayName)
}

func TestBindRefusesOccupiedTarget(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("pkg/scratch.go", "", "go")
	s.CreateSynthetic("scratch", "x", "go")

	assert.Error(t, s.Bind("untitled:scratch", "pkg/scratch.go"))
}

func TestBindRefusesRealDocument(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("a.go", "", "go")

	assert.Error(t, s.Bind("a.go", "b.go"))
}

func TestDiffStatsCountsLines(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("a.txt", "one\ntwo\nthree\n", "plaintext")
	s.Edit("a.txt", "one\n2\nthree\nfour\n")

	added, removed := s.DiffStats("a.txt")
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
}

// The set is shared between the event loop and save goroutines, so mixed
// reads, edits, closes, and re-opens from several goroutines must be safe
// under the race detector.
func TestConcurrentAccessIsSafe(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("a.go", "x", "go")
	s.OpenFile("b.go", "y", "go")

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				switch g {
				case 0:
					s.Edit("a.go", fmt.Sprintf("v%d", i))
				case 1:
					if doc, ok := s.Get("a.go"); ok {
						s.MarkSaved("a.go", doc.Content)
					}
				case 2:
					s.Close("b.go")
					s.OpenFile("b.go", "y", "go")
				default:
					s.Active()
					s.DirtyPaths()
					s.DiffStats("a.go")
				}
			}
		}(g)
	}
	wg.Wait()

	_, ok := s.Get("a.go")
	assert.True(t, ok)
}

func TestDiffStatsZeroWhenClean(t *testing.T) {
	s := NewDocumentSet()
	s.OpenFile("a.txt", "one\n", "plaintext")

	added, removed := s.DiffStats("a.txt")
	assert.Zero(t, added)
	assert.Zero(t, removed)
}

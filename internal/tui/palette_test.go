package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/workbench/internal/backend"
)

func paletteFiles() []backend.FileNode {
	return []backend.FileNode{
		{Name: "main.go", Path: "cmd/app/main.go"},
		{Name: "handler.go", Path: "internal/http/handler.go"},
		{Name: "README.md", Path: "README.md"},
	}
}

func TestPaletteShowsAllWithoutQuery(t *testing.T) {
	p := NewPalette(60, 20)
	p.SetFiles(paletteFiles())

	if got := len(p.list.Items()); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
	if path, ok := p.Selected(); !ok || path != "cmd/app/main.go" {
		t.Errorf("selected = %q, ok = %v", path, ok)
	}
}

func TestPaletteFuzzyFilter(t *testing.T) {
	p := NewPalette(60, 20)
	p.SetFiles(paletteFiles())

	for _, r := range "hndlr" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	path, ok := p.Selected()
	if !ok || path != "internal/http/handler.go" {
		t.Errorf("fuzzy match = %q, ok = %v", path, ok)
	}
}

func TestPaletteNoMatch(t *testing.T) {
	p := NewPalette(60, 20)
	p.SetFiles(paletteFiles())

	for _, r := range "zzzz" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	if _, ok := p.Selected(); ok {
		t.Error("expected no selection for impossible query")
	}
}

func TestPaletteResetOnSetFiles(t *testing.T) {
	p := NewPalette(60, 20)
	p.SetFiles(paletteFiles())
	for _, r := range "main" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	p.SetFiles(paletteFiles())
	if p.query.Value() != "" {
		t.Errorf("query should reset, got %q", p.query.Value())
	}
	if got := len(p.list.Items()); got != 3 {
		t.Errorf("expected full list after reset, got %d", got)
	}
}

func TestSidebarCursorClamping(t *testing.T) {
	s := NewSidebar(32, 10)
	s.MoveDown(5)
	s.MoveDown(5)
	s.MoveDown(5)
	s.MoveDown(5)
	s.MoveDown(5)
	if s.cursor != 4 {
		t.Errorf("cursor = %d, want 4", s.cursor)
	}

	s.Clamp(2)
	if s.cursor != 1 {
		t.Errorf("cursor after shrink = %d, want 1", s.cursor)
	}

	s.MoveUp()
	s.MoveUp()
	s.MoveUp()
	if s.cursor != 0 {
		t.Errorf("cursor = %d, want 0", s.cursor)
	}
}

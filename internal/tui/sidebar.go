package tui

import (
	"fmt"
	gostrings "strings"

	"github.com/joss/workbench/internal/language"
	wbstrings "github.com/joss/workbench/internal/strings"
	"github.com/joss/workbench/internal/workspace"
)

// Sidebar renders the project tree and tracks the cursor over the visible
// rows. The rows come from the tree cache on every render; the sidebar
// itself only holds view state.
type Sidebar struct {
	cursor int
	offset int
	width  int
	height int
}

// NewSidebar creates a sidebar with the cursor on the root row.
func NewSidebar(width, height int) *Sidebar {
	return &Sidebar{width: width, height: height}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Width returns the configured width.
func (s *Sidebar) Width() int {
	return s.width
}

// MoveUp moves the cursor one row up.
func (s *Sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the cursor one row down, bounded by the row count.
func (s *Sidebar) MoveDown(rows int) {
	if s.cursor < rows-1 {
		s.cursor++
	}
}

// Clamp keeps the cursor inside the row count after a tree change.
func (s *Sidebar) Clamp(rows int) {
	if rows == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= rows {
		s.cursor = rows - 1
	}
}

// CursorRow returns the row under the cursor, or nil.
func (s *Sidebar) CursorRow(rows []workspace.VisibleNode) *workspace.VisibleNode {
	if s.cursor < 0 || s.cursor >= len(rows) {
		return nil
	}
	return &rows[s.cursor]
}

// View renders the tree rows with the cursor line highlighted and dirty
// open documents marked.
func (s *Sidebar) View(tc *workspace.TreeCache, docs *workspace.DocumentSet) string {
	rows := tc.Visible()
	s.Clamp(len(rows))
	s.scroll(len(rows))

	var b gostrings.Builder
	b.WriteString(titleStyle.Render(wbstrings.Truncate(tc.DisplayName(), s.width-2)) + "\n")

	end := s.offset + s.height - 1
	if end > len(rows) {
		end = len(rows)
	}
	for i := s.offset; i < end; i++ {
		row := rows[i]
		line := s.renderRow(tc, docs, row)
		if i == s.cursor {
			line = cursorRowStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return sidebarStyle.Width(s.width).Render(b.String())
}

func (s *Sidebar) renderRow(tc *workspace.TreeCache, docs *workspace.DocumentSet, row workspace.VisibleNode) string {
	n := row.Node

	marker := " "
	if n.IsDirectory {
		if tc.IsExpanded(n.Path) {
			marker = "▾"
		} else {
			marker = "▸"
		}
	} else if doc, ok := docs.Get(n.Path); ok && doc.Dirty {
		marker = dirtyStyle.Render("●")
	}

	indent := gostrings.Repeat("  ", row.Depth)
	label := fmt.Sprintf("%s%s %s %s", indent, marker, language.Icon(n.Path, n.IsDirectory), n.Name)
	return wbstrings.PadRight(label, s.width-1)
}

func (s *Sidebar) scroll(rows int) {
	visible := s.height - 1
	if visible < 1 {
		visible = 1
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}
	if s.offset < 0 || rows <= visible {
		s.offset = 0
	}
}

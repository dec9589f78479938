// Package render provides output formatting for the non-interactive CLI
// commands.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/joss/workbench/internal/backend"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer. pretty=false produces plain parseable lines.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// Recents formats the recent project list, most recent first.
func (r *Renderer) Recents(paths []string) string {
	if len(paths) == 0 {
		return "No recent projects"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Recent Projects\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}
	for i, p := range paths {
		if r.pretty {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, p)
		} else {
			sb.WriteString(p + "\n")
		}
	}
	return sb.String()
}

// Models formats the model list, marking the active one.
func (r *Renderer) Models(models []backend.ModelInfo, selected string) string {
	if len(models) == 0 {
		return "No models reported"
	}

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Models\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}
	for _, m := range models {
		active := m.ID == selected || (selected == "" && m.Selected)
		if r.pretty {
			marker := " "
			name := m.Name
			if active {
				marker = color.GreenString("*")
				name = color.GreenString(m.Name)
			}
			fmt.Fprintf(&sb, "  %s %s  %s\n", marker, name, color.HiBlackString(m.ID+" / "+m.Provider))
		} else {
			fmt.Fprintf(&sb, "%s\t%s\t%v\n", m.ID, m.Provider, active)
		}
	}
	return sb.String()
}

// Status formats backend reachability.
func (r *Renderer) Status(url string, reachable bool, detail string) string {
	if !r.pretty {
		return fmt.Sprintf("backend=%s reachable=%v %s", url, reachable, detail)
	}

	var sb strings.Builder
	sb.WriteString(color.CyanString("Workbench Status\n"))
	sb.WriteString(strings.Repeat("─", 40) + "\n")
	fmt.Fprintf(&sb, "  Backend: %s\n", url)
	if reachable {
		fmt.Fprintf(&sb, "  Link:    %s\n", color.GreenString("reachable"))
	} else {
		fmt.Fprintf(&sb, "  Link:    %s\n", color.RedString("unreachable"))
	}
	if detail != "" {
		fmt.Fprintf(&sb, "  Note:    %s\n", detail)
	}
	return sb.String()
}

// Stats formats project stats after a plain open.
func (r *Renderer) Stats(name string, stats backend.ProjectStats) string {
	if !r.pretty {
		return fmt.Sprintf("%s files=%d dirs=%d bytes=%d",
			name, stats.TotalFiles, stats.TotalDirs, stats.TotalSize)
	}

	var sb strings.Builder
	sb.WriteString(color.CyanString(name) + "\n")
	fmt.Fprintf(&sb, "  Files:       %d\n", stats.TotalFiles)
	fmt.Fprintf(&sb, "  Directories: %d\n", stats.TotalDirs)
	fmt.Fprintf(&sb, "  Size:        %d bytes\n", stats.TotalSize)
	return sb.String()
}

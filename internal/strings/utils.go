// Package strings provides display-string helpers for the workbench UI.
package strings

import "strings"

// Truncate shortens a string to n characters with ellipsis.
// If n < 4, uses n = 4 to ensure room for "...".
func Truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// TruncateRunes truncates by rune count, not byte count.
// Safer for unicode strings like tree rows with icons.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n < 4 {
		n = 4
	}
	return string(runes[:n-3]) + "..."
}

// PadRight pads s with spaces to exactly width visible columns,
// truncating when it is too long. ANSI escapes count as zero width.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	visible := visibleLength(s)
	if visible > width {
		return TruncateRunes(s, width)
	}
	return s + strings.Repeat(" ", width-visible)
}

// Ellipsize trims a path from the left, keeping the most specific part
// visible. "a/very/long/path.go" at width 12 becomes "...g/path.go".
func Ellipsize(path string, width int) string {
	if width < 4 {
		width = 4
	}
	if len(path) <= width {
		return path
	}
	return "..." + path[len(path)-(width-3):]
}

// visibleLength calculates string length excluding ANSI escape codes.
func visibleLength(s string) int {
	inEscape := false
	count := 0
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		count++
	}
	return count
}

// Package util provides text helpers shared by command output and the case
// browser.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks text that was cut to fit.
const Ellipsis = "…"

// OneLine collapses runs of whitespace, newlines included, to single spaces.
// Workbook cells often hold multi-line notes that would break a table row.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most width terminal cells, ending with Ellipsis when
// anything was removed. ANSI escape codes are preserved and wide characters
// count as two cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// Cell prepares a workbook value for a table column of the given width.
func Cell(s string, width int) string {
	return Truncate(OneLine(s), width)
}

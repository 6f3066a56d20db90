package cmd

import (
	"github.com/Iron-Ham/kanvas/internal/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Cell text longer than this is cut in command output.
const maxCellWidth = 40

// renderTable formats rows under headers for the terminal.
func renderTable(headers []string, rows [][]string) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = make([]string, len(headers))
		for j := range headers {
			if j < len(r) {
				cells[i][j] = util.Cell(r[j], maxCellWidth)
			}
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		}).
		String()
}

package tui

import (
	"fmt"

	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	tea "github.com/charmbracelet/bubbletea"
)

// confirmDelete asks before a row is removed.
type confirmDelete struct {
	sheet   string
	index   int
	focused bool
}

// Focus implements registry.Handle.
func (c *confirmDelete) Focus() {
	c.focused = true
}

// Close implements registry.Handle.
func (c *confirmDelete) Close() error {
	c.focused = false
	return nil
}

// handleKey returns true when the deletion is confirmed. Any other key
// dismisses the prompt.
func (c *confirmDelete) handleKey(msg tea.KeyMsg) (confirmed bool) {
	switch msg.String() {
	case "y", "Y":
		return true
	}
	return false
}

func (c *confirmDelete) view(st *styles.Styles) string {
	return st.WarningMsg.Render(fmt.Sprintf("Delete row %d of %s?", c.index+1, c.sheet)) + "  " +
		st.HelpKey.Render("[y]") + " delete  " +
		st.HelpKey.Render("[any]") + " keep"
}

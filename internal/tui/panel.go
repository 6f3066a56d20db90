package tui

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/Iron-Ham/kanvas/internal/util"
	tea "github.com/charmbracelet/bubbletea"
)

// Items wider than this are cut in the side panels.
const panelItemWidth = 40

// listPanel is a scrollable read-only list, used for the systems and users
// of a case.
type listPanel struct {
	kind    registry.ViewKind
	title   string
	items   []string
	cursor  int
	offset  int
	focused bool
	closed  bool
}

func newListPanel(kind registry.ViewKind, title string, items []string) *listPanel {
	return &listPanel{kind: kind, title: title, items: items}
}

// Focus implements registry.Handle.
func (p *listPanel) Focus() {
	p.focused = true
}

// Close implements registry.Handle.
func (p *listPanel) Close() error {
	p.focused = false
	p.closed = true
	return nil
}

// handleKey moves the cursor and reports whether the panel should close.
func (p *listPanel) handleKey(msg tea.KeyMsg) (done bool) {
	switch msg.String() {
	case "esc", "q", "s", "u":
		return true
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case "home", "g":
		p.cursor = 0
	case "end", "G":
		if len(p.items) > 0 {
			p.cursor = len(p.items) - 1
		}
	}
	return false
}

func (p *listPanel) view(st *styles.Styles, height int) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(fmt.Sprintf("%s (%d)", p.title, len(p.items))))
	b.WriteString("\n")

	if len(p.items) == 0 {
		b.WriteString(st.Muted.Render("none found"))
		return st.Panel.Render(b.String())
	}

	if height < 1 {
		height = len(p.items)
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+height {
		p.offset = p.cursor - height + 1
	}
	end := min(p.offset+height, len(p.items))

	for i := p.offset; i < end; i++ {
		if i == p.cursor && p.focused {
			b.WriteString(st.ItemSelected.Render(util.Truncate(p.items[i], panelItemWidth)))
		} else {
			b.WriteString(st.Item.Render(util.Truncate(p.items[i], panelItemWidth)))
		}
		b.WriteString("\n")
	}
	return st.Panel.Render(strings.TrimSuffix(b.String(), "\n"))
}

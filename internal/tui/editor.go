package tui

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type editorResult int

const (
	editorEditing editorResult = iota
	editorSubmit
	editorCancel
)

// newRowIndex marks an editor that appends instead of replacing a row.
const newRowIndex = -1

// rowEditor edits one row, one text input per column. Columns with a fixed
// list of values cycle through it with left and right.
type rowEditor struct {
	sheet   string
	index   int
	headers []string
	inputs  []textinput.Model
	choices [][]string
	field   int
	focused bool
}

func newRowEditor(sheet string, index int, headers, values []string) *rowEditor {
	e := &rowEditor{
		sheet:   sheet,
		index:   index,
		headers: headers,
		inputs:  make([]textinput.Model, len(headers)),
		choices: make([][]string, len(headers)),
	}
	for i, h := range headers {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 4096
		ti.Width = 48
		if i < len(values) {
			ti.SetValue(values[i])
		}
		e.inputs[i] = ti
		e.choices[i] = casefile.Choices(h)
	}
	if len(e.inputs) > 0 {
		e.inputs[0].Focus()
	}
	return e
}

// Focus implements registry.Handle.
func (e *rowEditor) Focus() {
	e.focused = true
}

// Close implements registry.Handle.
func (e *rowEditor) Close() error {
	e.focused = false
	for i := range e.inputs {
		e.inputs[i].Blur()
	}
	return nil
}

func (e *rowEditor) isNew() bool {
	return e.index == newRowIndex
}

// values returns the field values with trailing blanks removed.
func (e *rowEditor) values() []string {
	out := make([]string, len(e.inputs))
	for i, in := range e.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func (e *rowEditor) move(delta int) {
	if len(e.inputs) == 0 {
		return
	}
	e.inputs[e.field].Blur()
	e.field = (e.field + delta + len(e.inputs)) % len(e.inputs)
	e.inputs[e.field].Focus()
}

func (e *rowEditor) cycle(delta int) {
	opts := e.choices[e.field]
	cur := slices.Index(opts, e.inputs[e.field].Value())
	next := 0
	if cur >= 0 {
		next = (cur + delta + len(opts)) % len(opts)
	} else if delta < 0 {
		next = len(opts) - 1
	}
	e.inputs[e.field].SetValue(opts[next])
	e.inputs[e.field].CursorEnd()
}

func (e *rowEditor) handleKey(msg tea.KeyMsg) (editorResult, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return editorCancel, nil
	case "enter", "ctrl+s":
		return editorSubmit, nil
	case "tab", "down":
		e.move(1)
		return editorEditing, nil
	case "shift+tab", "up":
		e.move(-1)
		return editorEditing, nil
	case "left", "right":
		if len(e.inputs) > 0 && len(e.choices[e.field]) > 0 {
			if msg.String() == "left" {
				e.cycle(-1)
			} else {
				e.cycle(1)
			}
			return editorEditing, nil
		}
	}

	if len(e.inputs) == 0 {
		return editorEditing, nil
	}
	var cmd tea.Cmd
	e.inputs[e.field], cmd = e.inputs[e.field].Update(msg)
	return editorEditing, cmd
}

func (e *rowEditor) view(st *styles.Styles) string {
	var b strings.Builder
	if e.isNew() {
		b.WriteString(st.Title.Render("New row in " + e.sheet))
	} else {
		b.WriteString(st.Title.Render("Edit row " + strconv.Itoa(e.index+1) + " of " + e.sheet))
	}
	b.WriteString("\n\n")

	labelWidth := 0
	for _, h := range e.headers {
		labelWidth = max(labelWidth, lipgloss.Width(h))
	}
	label := lipgloss.NewStyle().Width(labelWidth + 2)

	for i, h := range e.headers {
		name := label.Render(h)
		if i == e.field {
			name = st.Primary.Bold(true).Inherit(label).Render(h)
		}
		b.WriteString(name)
		b.WriteString(e.inputs[i].View())
		if i == e.field && len(e.choices[i]) > 0 {
			b.WriteString("  " + st.Muted.Render("←/→ "+strings.Join(e.choices[i], " | ")))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.HelpBar.Render(
		st.HelpKey.Render("[Tab]") + " next field  " +
			st.HelpKey.Render("[Enter]") + " save  " +
			st.HelpKey.Render("[Esc]") + " cancel"))
	return st.Panel.Render(b.String())
}

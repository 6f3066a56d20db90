package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	tea "github.com/charmbracelet/bubbletea"
)

type conflictChoice struct {
	label    string
	decision session.Decision
}

// The dialog offers exactly these two answers.
var conflictChoices = []conflictChoice{
	{label: "Open read-only", decision: session.DecisionReadOnly},
	{label: "Cancel", decision: session.DecisionCancel},
}

const cancelChoice = 1

// ConflictModel is the dialog shown when a case file is locked by another
// process. It starts on Cancel, and esc, q and ctrl+c all cancel.
type ConflictModel struct {
	conflict session.Conflict
	styles   *styles.Styles
	cursor   int
	decided  bool
	decision session.Decision
	width    int
}

// NewConflictModel creates the dialog for c.
func NewConflictModel(c session.Conflict, st *styles.Styles) ConflictModel {
	if st == nil {
		st = styles.Default()
	}
	return ConflictModel{
		conflict: c,
		styles:   st,
		cursor:   cancelChoice,
	}
}

func (m ConflictModel) Init() tea.Cmd {
	return nil
}

func (m ConflictModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "ctrl+c", "n":
			return m.choose(cancelChoice)
		case "y":
			return m.choose(0)
		case "up", "k", "left", "h", "shift+tab":
			m.cursor = (m.cursor + len(conflictChoices) - 1) % len(conflictChoices)
		case "down", "j", "right", "l", "tab":
			m.cursor = (m.cursor + 1) % len(conflictChoices)
		case "enter", " ":
			return m.choose(m.cursor)
		}
	}
	return m, nil
}

func (m ConflictModel) choose(i int) (tea.Model, tea.Cmd) {
	m.cursor = i
	m.decided = true
	m.decision = conflictChoices[i].decision
	return m, tea.Quit
}

// Decided reports whether the user picked an answer.
func (m ConflictModel) Decided() bool {
	return m.decided
}

// Decision returns the answer. An undecided dialog cancels.
func (m ConflictModel) Decision() session.Decision {
	if !m.decided {
		return session.DecisionCancel
	}
	return m.decision
}

func (m ConflictModel) View() string {
	if m.decided {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Case file in use"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render(m.conflict.Path))
	b.WriteString("\n\n")
	b.WriteString(m.conflict.Prompt())
	b.WriteString("\n\n")

	for i, c := range conflictChoices {
		if i == m.cursor {
			b.WriteString(m.styles.ItemSelected.Render("> " + c.label))
		} else {
			b.WriteString(m.styles.Item.Render("  " + c.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.HelpBar.Render(
		m.styles.HelpKey.Render("[↑↓]") + " select  " +
			m.styles.HelpKey.Render("[Enter]") + " confirm  " +
			m.styles.HelpKey.Render("[Esc]") + " cancel"))

	return m.styles.Dialog.Render(b.String())
}

// ConflictDecider resolves lock conflicts with the dialog. It runs its own
// short-lived program, so it must not be used while another bubbletea
// program owns the terminal.
type ConflictDecider struct {
	Styles *styles.Styles
	Input  io.Reader
	Output io.Writer
}

// ResolveConflict implements session.Decider.
func (d ConflictDecider) ResolveConflict(ctx context.Context, c session.Conflict) (session.Decision, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if d.Input != nil {
		opts = append(opts, tea.WithInput(d.Input))
	}
	if d.Output != nil {
		opts = append(opts, tea.WithOutput(d.Output))
	}

	final, err := tea.NewProgram(NewConflictModel(c, d.Styles), opts...).Run()
	if err != nil {
		return session.DecisionCancel, fmt.Errorf("conflict dialog: %w", err)
	}
	m, ok := final.(ConflictModel)
	if !ok {
		return session.DecisionCancel, nil
	}
	return m.Decision(), nil
}

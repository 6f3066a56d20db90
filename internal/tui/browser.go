package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/logging"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/Iron-Ham/kanvas/internal/util"
	"github.com/Iron-Ham/kanvas/internal/watch"
	"github.com/Iron-Ham/kanvas/internal/workbook"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// diskChangedMsg reports that the case file changed on disk.
type diskChangedMsg struct {
	change watch.Change
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// BrowserOptions tunes the browser layout.
type BrowserOptions struct {
	Styles         *styles.Styles
	Logger         *logging.Logger
	MaxColumnWidth int
	PageRows       int
}

// Model is the case browser: one table per sheet, a status bar showing the
// session mode, and side views for editing and analysis. Side views live in
// a registry.Views so each kind is open at most once.
type Model struct {
	c      *casefile.Case
	views  *registry.Views
	styles *styles.Styles
	logger *logging.Logger

	maxColWidth int
	pageRows    int

	sheets   []string
	sheetIdx int
	table    table.Model

	width  int
	height int

	status     string
	statusKind statusKind
	changed    bool
	quitting   bool
}

// NewModel creates the browser for an open case.
func NewModel(c *casefile.Case, views *registry.Views, opts BrowserOptions) *Model {
	if views == nil {
		views = registry.NewViews()
	}
	if opts.Styles == nil {
		opts.Styles = styles.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.MaxColumnWidth <= 0 {
		opts.MaxColumnWidth = 32
	}
	if opts.PageRows <= 0 {
		opts.PageRows = 20
	}

	m := &Model{
		c:           c,
		views:       views,
		styles:      opts.Styles,
		logger:      opts.Logger,
		maxColWidth: opts.MaxColumnWidth,
		pageRows:    opts.PageRows,
		table:       newTable(opts.Styles, opts.PageRows),
	}
	_, _, _ = views.Open(registry.ViewBrowser, func() (registry.Handle, error) {
		return m, nil
	})
	m.refresh()
	return m
}

func newTable(st *styles.Styles, height int) table.Model {
	s := table.DefaultStyles()
	s.Header = st.TableHeader
	s.Selected = st.TableSelected

	// u and d belong to the browser, so half-page scrolling moves to ctrl.
	km := table.DefaultKeyMap()
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "½ page up"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down"))

	return table.New(
		table.WithFocused(true),
		table.WithHeight(height),
		table.WithStyles(s),
		table.WithKeyMap(km),
	)
}

// Focus implements registry.Handle.
func (m *Model) Focus() {
	m.table.Focus()
}

// Close implements registry.Handle. The browser never closes the case; its
// owner does.
func (m *Model) Close() error {
	m.table.Blur()
	return nil
}

// Sheet returns the name of the sheet on screen.
func (m *Model) Sheet() string {
	if len(m.sheets) == 0 {
		return ""
	}
	return m.sheets[m.sheetIdx]
}

// Status returns the status line message.
func (m *Model) Status() string {
	return m.status
}

// Changed reports whether the case changed on disk since it was loaded.
func (m *Model) Changed() bool {
	return m.changed
}

func (m *Model) setStatus(kind statusKind, format string, args ...any) {
	m.statusKind = kind
	m.status = fmt.Sprintf(format, args...)
}

func (m *Model) setError(err error) {
	m.setStatus(statusError, "%s", errors.UserMessage(err))
}

// refresh rebuilds the sheet list and the table of the current sheet.
func (m *Model) refresh() {
	m.sheets = m.c.Sheets()
	if m.sheetIdx >= len(m.sheets) {
		m.sheetIdx = max(0, len(m.sheets)-1)
	}

	// Rows must be cleared before the column count changes.
	m.table.SetRows(nil)
	if len(m.sheets) == 0 {
		m.table.SetColumns(nil)
		return
	}

	sheet, err := m.c.Sheet(m.Sheet())
	if err != nil {
		m.table.SetColumns(nil)
		m.setError(err)
		return
	}
	cols, rows := tableData(sheet, m.maxColWidth)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

// tableData converts a sheet into table columns and rows. The first column
// is the data row number.
func tableData(sheet *workbook.Sheet, maxWidth int) ([]table.Column, []table.Row) {
	width := len(sheet.Headers)
	for _, r := range sheet.Rows {
		width = max(width, len(r))
	}

	cols := make([]table.Column, width+1)
	cols[0] = table.Column{Title: "#", Width: max(1, len(strconv.Itoa(len(sheet.Rows))))}
	for i := 0; i < width; i++ {
		title := fmt.Sprintf("Column %d", i+1)
		if i < len(sheet.Headers) {
			title = sheet.Headers[i]
		}
		cols[i+1] = table.Column{Title: title, Width: lipgloss.Width(title)}
	}

	rows := make([]table.Row, len(sheet.Rows))
	for r, values := range sheet.Rows {
		row := make(table.Row, width+1)
		row[0] = strconv.Itoa(r + 1)
		for i := 0; i < width; i++ {
			if i < len(values) {
				row[i+1] = util.OneLine(values[i])
			}
			cols[i+1].Width = max(cols[i+1].Width, lipgloss.Width(row[i+1]))
		}
		rows[r] = row
	}

	for i := 1; i < len(cols); i++ {
		cols[i].Width = min(cols[i].Width, maxWidth)
	}
	return cols, rows
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// tabs, status bar, help bar and table header
		m.table.SetHeight(max(3, min(m.pageRows, msg.Height-6)))
		m.table.SetWidth(msg.Width)
		return m, nil

	case diskChangedMsg:
		return m.handleDiskChange(msg.change), nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleDiskChange(ch watch.Change) tea.Model {
	m.changed = true
	if ch.Removed() {
		m.setStatus(statusWarning, "Case file was removed or renamed on disk")
	} else {
		m.setStatus(statusWarning, "Case file changed on disk, press r to reload")
	}
	m.logger.Info("case file changed on disk", "op", ch.Op.String())
	return m
}

// handleKey routes a key to the active view.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kind := m.views.Active(); kind {
	case registry.ViewSystems, registry.ViewUsers:
		if h, ok := m.views.Get(kind); ok {
			if h.(*listPanel).handleKey(msg) {
				m.closeView(kind)
			}
		}
		return m, nil

	case registry.ViewEditor:
		if h, ok := m.views.Get(kind); ok {
			return m.handleEditorKey(h.(*rowEditor), msg)
		}

	case registry.ViewConfirm:
		if h, ok := m.views.Get(kind); ok {
			c := h.(*confirmDelete)
			m.closeView(kind)
			if c.handleKey(msg) {
				m.deleteRow(c.sheet, c.index)
			} else {
				m.setStatus(statusInfo, "Delete canceled")
			}
		}
		return m, nil
	}

	return m.handleBrowserKey(msg)
}

func (m *Model) closeView(kind registry.ViewKind) {
	if err := m.views.Close(kind); err != nil {
		m.logger.Warn("failed to close view", "view", string(kind), "error", err.Error())
	}
	_ = m.views.Focus(registry.ViewBrowser)
}

func (m *Model) handleBrowserKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "tab", "right", "l":
		if len(m.sheets) > 0 {
			m.sheetIdx = (m.sheetIdx + 1) % len(m.sheets)
			m.table.SetCursor(0)
			m.refresh()
		}
		return m, nil

	case "shift+tab", "left", "h":
		if len(m.sheets) > 0 {
			m.sheetIdx = (m.sheetIdx + len(m.sheets) - 1) % len(m.sheets)
			m.table.SetCursor(0)
			m.refresh()
		}
		return m, nil

	case "a":
		m.openEditor(newRowIndex)
		return m, nil

	case "e", "enter":
		if len(m.table.Rows()) > 0 {
			m.openEditor(m.table.Cursor())
		}
		return m, nil

	case "d":
		m.openConfirm()
		return m, nil

	case "s":
		m.openList(registry.ViewSystems)
		return m, nil

	case "u":
		m.openList(registry.ViewUsers)
		return m, nil

	case "r":
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// guardWrite shows the read-only message instead of opening a mutating view.
// The casefile layer refuses the write regardless.
func (m *Model) guardWrite() bool {
	if m.c.ReadOnly() {
		m.setError(errors.NewCaseError("edit", errors.ErrReadOnlyWrite).WithPath(m.c.Path()))
		return false
	}
	return true
}

func (m *Model) openEditor(index int) {
	if !m.guardWrite() {
		return
	}
	sheet, err := m.c.Sheet(m.Sheet())
	if err != nil {
		m.setError(err)
		return
	}
	if len(sheet.Headers) == 0 {
		m.setStatus(statusWarning, "Sheet %s has no header row", sheet.Name)
		return
	}

	var values []string
	if index != newRowIndex && index < len(sheet.Rows) {
		values = sheet.Rows[index]
	}
	_, _, err = m.views.Open(registry.ViewEditor, func() (registry.Handle, error) {
		return newRowEditor(sheet.Name, index, sheet.Headers, values), nil
	})
	if err != nil {
		m.setError(err)
	}
}

func (m *Model) handleEditorKey(e *rowEditor, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	result, cmd := e.handleKey(msg)
	switch result {
	case editorCancel:
		m.closeView(registry.ViewEditor)
		m.setStatus(statusInfo, "Edit canceled")
		return m, nil

	case editorSubmit:
		idx, err := m.submit(e)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.closeView(registry.ViewEditor)
		m.refresh()
		m.table.SetCursor(idx)
		return m, nil
	}
	return m, cmd
}

// submit writes the editor's row and returns its data index.
func (m *Model) submit(e *rowEditor) (int, error) {
	if e.isNew() {
		idx, err := m.c.AddRow(e.sheet, e.values())
		if err != nil {
			return 0, err
		}
		m.setStatus(statusSuccess, "Added row %d to %s", idx+1, e.sheet)
		return idx, nil
	}
	if err := m.c.EditRow(e.sheet, e.index, e.values()); err != nil {
		return 0, err
	}
	m.setStatus(statusSuccess, "Saved row %d of %s", e.index+1, e.sheet)
	return e.index, nil
}

func (m *Model) openConfirm() {
	if !m.guardWrite() {
		return
	}
	if len(m.table.Rows()) == 0 {
		m.setStatus(statusInfo, "Nothing to delete")
		return
	}
	sheet, index := m.Sheet(), m.table.Cursor()
	_, _, _ = m.views.Open(registry.ViewConfirm, func() (registry.Handle, error) {
		return &confirmDelete{sheet: sheet, index: index}, nil
	})
}

func (m *Model) deleteRow(sheet string, index int) {
	if err := m.c.DeleteRows(sheet, []int{index}); err != nil {
		m.setError(err)
		return
	}
	m.setStatus(statusSuccess, "Deleted row %d of %s", index+1, sheet)
	m.refresh()
}

func (m *Model) openList(kind registry.ViewKind) {
	title, extract := "Users", m.c.Users
	if kind == registry.ViewSystems {
		title, extract = "Systems", m.c.Systems
	}

	// Re-opening focuses the existing panel, so values are only read on create.
	var count int
	_, created, err := m.views.Open(kind, func() (registry.Handle, error) {
		items, err := extract()
		if err != nil {
			return nil, err
		}
		count = len(items)
		return newListPanel(kind, title, items), nil
	})
	if err != nil {
		m.setError(err)
		return
	}
	if created {
		m.setStatus(statusInfo, "%d %s on %s", count, strings.ToLower(title), m.c.TimelineSheet())
	}
}

func (m *Model) reload() {
	if err := m.c.Reload(); err != nil {
		m.setError(err)
		return
	}
	m.changed = false
	// Cached panels would show stale values.
	m.closeView(registry.ViewSystems)
	m.closeView(registry.ViewUsers)
	m.refresh()
	m.setStatus(statusSuccess, "Reloaded %s", m.c.Path())
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	main := m.table.View()
	if len(m.sheets) == 0 {
		main = m.styles.Muted.Render("This workbook has no sheets.")
	}
	for _, kind := range []registry.ViewKind{registry.ViewSystems, registry.ViewUsers} {
		if h, ok := m.views.Get(kind); ok {
			main = lipgloss.JoinHorizontal(lipgloss.Top, main, " ", h.(*listPanel).view(m.styles, m.table.Height()))
		}
	}
	if h, ok := m.views.Get(registry.ViewEditor); ok {
		main = h.(*rowEditor).view(m.styles)
	}
	b.WriteString(main)
	b.WriteString("\n")

	if h, ok := m.views.Get(registry.ViewConfirm); ok {
		b.WriteString(h.(*confirmDelete).view(m.styles))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(m.sheets))
	for i, name := range m.sheets {
		if i == m.sheetIdx {
			tabs[i] = m.styles.TabActive.Render(name)
		} else {
			tabs[i] = m.styles.TabInactive.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderStatusBar() string {
	badge := m.styles.WriteBadge.Render("READ-WRITE")
	if m.c.ReadOnly() {
		badge = m.styles.ReadOnlyBadge.Render("[READ-ONLY]")
	}

	line := badge + m.styles.StatusBar.Render(m.c.Path())
	if m.changed {
		line += " " + m.styles.ChangedBanner.Render("changed on disk")
	}

	if m.status != "" {
		var style lipgloss.Style
		switch m.statusKind {
		case statusSuccess:
			style = m.styles.SuccessMsg
		case statusWarning:
			style = m.styles.WarningMsg
		case statusError:
			style = m.styles.ErrorMsg
		default:
			style = m.styles.Text
		}
		line += "  " + style.Render(m.status)
	}
	return line
}

func (m *Model) renderHelp() string {
	k := m.styles.HelpKey.Render
	var parts []string
	switch m.views.Active() {
	case registry.ViewSystems, registry.ViewUsers:
		parts = []string{k("[↑↓]") + " move", k("[Esc]") + " close"}
	case registry.ViewEditor, registry.ViewConfirm:
		return ""
	default:
		parts = []string{k("[Tab]") + " sheet", k("[↑↓]") + " row"}
		if !m.c.ReadOnly() {
			parts = append(parts, k("[a]")+" add", k("[e]")+" edit", k("[d]")+" delete")
		}
		parts = append(parts, k("[s]")+" systems", k("[u]")+" users", k("[r]")+" reload", k("[q]")+" quit")
	}
	return m.styles.HelpBar.Render(strings.Join(parts, "  "))
}

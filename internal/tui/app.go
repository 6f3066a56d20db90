package tui

import (
	"os"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/Iron-Ham/kanvas/internal/watch"
	tea "github.com/charmbracelet/bubbletea"
)

// App wraps the Bubbletea program for one open case.
type App struct {
	svc     *registry.Context
	c       *casefile.Case
	program *tea.Program
	model   *Model
}

// New creates the browser application for c. The caller keeps ownership of
// c and closes it after Run returns.
func New(svc *registry.Context, c *casefile.Case) *App {
	cfg := svc.Config
	model := NewModel(c, svc.Views, BrowserOptions{
		Styles:         styles.ForTheme(cfg.TUI.Theme),
		Logger:         svc.Logger.WithCase(c.Path()),
		MaxColumnWidth: cfg.TUI.MaxColumnWidth,
		PageRows:       cfg.TUI.PageRows,
	})
	return &App{svc: svc, c: c, model: model}
}

// Run starts the TUI and blocks until it exits.
func (a *App) Run() error {
	a.program = tea.NewProgram(a.model, tea.WithAltScreen())

	// A signal ends the session first, then the program.
	stop := a.svc.Sessions.CloseOnSignal(func(os.Signal) {
		a.program.Send(tea.Quit())
	})
	defer stop()

	if a.c.ReadOnly() && a.svc.Config.Watch.Enabled {
		w, err := watch.New(a.c.Path(), func(ch watch.Change) {
			a.program.Send(diskChangedMsg{change: ch})
		}, watch.WithDebounce(a.svc.Config.Watch.Debounce), watch.WithLogger(a.svc.Logger))
		if err != nil {
			a.svc.Logger.Warn("failed to watch case file", "path", a.c.Path(), "error", err.Error())
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	_, err := a.program.Run()

	if cerr := a.svc.Views.CloseAll(); cerr != nil {
		a.svc.Logger.Warn("failed to close views", "error", cerr.Error())
	}
	return err
}

package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/config"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/Iron-Ham/kanvas/internal/tui"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Exit status after a teardown signal, as a shell reports it.
const signalExitCode = 130

// Indirections for tests.
var (
	stdinIsTerminal  = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	exitProcess      = os.Exit
)

// userError prints the user-facing message of err while keeping it
// available to errors.Is and errors.As.
type userError struct {
	err error
}

func (e userError) Error() string { return errors.UserMessage(e.err) }
func (e userError) Unwrap() error { return e.err }

func friendly(err error) error {
	if err == nil || !errors.IsUserFacing(err) {
		return err
	}
	return userError{err: err}
}

// loadServices builds the service context from the active configuration.
func loadServices() (*registry.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return registry.Init(cfg)
}

func shutdown(cmd *cobra.Command, svc *registry.Context) {
	if err := svc.Shutdown(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: shutdown: %v\n", err)
	}
}

// conflictDecider picks how a lock conflict is answered. --read-only
// answers without asking; otherwise session.on_conflict decides, asking with
// the dialog on a full terminal, with a line prompt when only stdin is a
// terminal, and canceling when nobody can be asked.
func conflictDecider(cmd *cobra.Command, cfg *config.Config, readOnly, dialog bool) session.Decider {
	if readOnly {
		return session.Always(session.DecisionReadOnly)
	}

	var ask session.Decider
	switch {
	case dialog && stdinIsTerminal() && stdoutIsTerminal():
		ask = tui.ConflictDecider{Styles: styles.ForTheme(cfg.TUI.Theme)}
	case stdinIsTerminal():
		ask = session.AskDecider{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	}
	return session.PolicyDecider(cfg.Session.OnConflict, ask)
}

// readOnlyDecider never prompts: commands that only read a case fall back to
// read-only when the lock is taken.
func readOnlyDecider(*cobra.Command, *config.Config) session.Decider {
	return session.Always(session.DecisionReadOnly)
}

// writeDecider prompts on conflict the way interactive opens do, with a
// line prompt instead of the dialog.
func writeDecider(readOnly *bool) func(*cobra.Command, *config.Config) session.Decider {
	return func(cmd *cobra.Command, cfg *config.Config) session.Decider {
		return conflictDecider(cmd, cfg, *readOnly, false)
	}
}

func caseOptions(svc *registry.Context) []casefile.Option {
	return []casefile.Option{
		casefile.WithLogger(svc.Logger),
		casefile.WithTimelineSheet(svc.Config.Workbook.TimelineSheet),
	}
}

// withCase opens path, runs fn, and closes the case and the services on
// every exit path. A teardown signal ends the session and exits.
func withCase(cmd *cobra.Command, path string,
	decider func(*cobra.Command, *config.Config) session.Decider,
	fn func(*registry.Context, *casefile.Case) error,
) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer shutdown(cmd, svc)

	stop := svc.Sessions.CloseOnSignal(func(os.Signal) {
		_ = svc.Shutdown()
		exitProcess(signalExitCode)
	})
	defer stop()

	c, err := casefile.Load(cmd.Context(), svc.Sessions, path, decider(cmd, svc.Config), caseOptions(svc)...)
	if err != nil {
		return friendly(err)
	}
	defer func() { _ = c.Close() }()

	return friendly(fn(svc, c))
}

// modeLabel is shown next to the case path in command output.
func modeLabel(c *casefile.Case) string {
	if c.ReadOnly() {
		return "[READ-ONLY]"
	}
	return "[read-write]"
}

package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/tui"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <case.xlsx>",
	Short: "Open a case in the browser",
	Long: `Open a case workbook in the terminal browser.

The case lock is taken before the workbook is read. If another user holds it
you are asked whether to open the case read-only (see session.on_conflict).
Read-only cases are watched for saves by the lock holder; press r to reload.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

var (
	openReadOnly bool
	openNoTUI    bool
)

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolVar(&openReadOnly, "read-only", false, "open read-only without asking when the case is locked")
	openCmd.Flags().BoolVar(&openNoTUI, "no-tui", false, "print a summary instead of starting the browser")
}

func runOpen(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer shutdown(cmd, svc)

	useTUI := !openNoTUI && stdinIsTerminal() && stdoutIsTerminal()
	decider := conflictDecider(cmd, svc.Config, openReadOnly, useTUI)

	c, err := casefile.Load(cmd.Context(), svc.Sessions, args[0], decider, caseOptions(svc)...)
	if err != nil {
		return friendly(err)
	}
	defer func() { _ = c.Close() }()

	if !useTUI {
		stop := svc.Sessions.CloseOnSignal(func(os.Signal) {
			_ = svc.Shutdown()
			exitProcess(signalExitCode)
		})
		defer stop()
		return printSummary(cmd, c)
	}

	if err := tui.New(svc, c).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

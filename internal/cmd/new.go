package cmd

import (
	"fmt"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/tui"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <case.xlsx>",
	Short: "Create a case workbook",
	Long: `Create a new case workbook.

The workbook is copied from --template (or workbook.template). Without a
template a blank case with Timeline, Systems and Indicators sheets is built.
An existing file is never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var (
	newTemplate string
	newOpen     bool
)

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVarP(&newTemplate, "template", "t", "", "template workbook to copy (default: workbook.template)")
	newCmd.Flags().BoolVar(&newOpen, "open", false, "open the new case in the browser")
}

func runNew(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer shutdown(cmd, svc)

	template := newTemplate
	if template == "" {
		template = svc.Config.Workbook.Template
	}

	c, err := casefile.NewCase(cmd.Context(), svc.Sessions, args[0], template, caseOptions(svc)...)
	if err != nil {
		return friendly(err)
	}
	defer func() { _ = c.Close() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Created case %s\n", c.Path())

	if newOpen && stdinIsTerminal() && stdoutIsTerminal() {
		return tui.New(svc, c).Run()
	}
	return nil
}

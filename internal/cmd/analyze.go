package cmd

import (
	"fmt"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/spf13/cobra"
)

var systemsCmd = &cobra.Command{
	Use:   "systems <case.xlsx>",
	Short: "List the systems named on the timeline",
	Long: `List the unique values of the Event System and Remote System columns of
the timeline sheet (workbook.timeline_sheet), sorted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSystems,
}

var usersCmd = &cobra.Command{
	Use:   "users <case.xlsx>",
	Short: "List the suspect accounts on the timeline",
	Long: `List the unique values of the Suspect Account column of the timeline
sheet (workbook.timeline_sheet), sorted.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsers,
}

func init() {
	rootCmd.AddCommand(systemsCmd)
	rootCmd.AddCommand(usersCmd)
}

func runSystems(cmd *cobra.Command, args []string) error {
	return withCase(cmd, args[0], readOnlyDecider, func(_ *registry.Context, c *casefile.Case) error {
		return printList(cmd, c.Systems)
	})
}

func runUsers(cmd *cobra.Command, args []string) error {
	return withCase(cmd, args[0], readOnlyDecider, func(_ *registry.Context, c *casefile.Case) error {
		return printList(cmd, c.Users)
	})
}

func printList(cmd *cobra.Command, list func() ([]string, error)) error {
	items, err := list()
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Fprintln(cmd.OutOrStdout(), item)
	}
	return nil
}

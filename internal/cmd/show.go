package cmd

import (
	"fmt"
	"strconv"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <case.xlsx>",
	Short: "Print a case or one of its sheets",
	Long: `Print the sheets of a case, or the rows of one sheet with --sheet.

show never prompts: if the case is locked by another user it is read
read-only.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var (
	showSheet string
	showLimit int
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showSheet, "sheet", "s", "", "sheet to print")
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "print at most n rows (0 = all)")
}

func runShow(cmd *cobra.Command, args []string) error {
	return withCase(cmd, args[0], readOnlyDecider, func(_ *registry.Context, c *casefile.Case) error {
		if showSheet == "" {
			return printSummary(cmd, c)
		}
		return printSheet(cmd, c, showSheet, showLimit)
	})
}

func printSummary(cmd *cobra.Command, c *casefile.Case) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n\n", c.Path(), modeLabel(c))

	var rows [][]string
	for _, name := range c.Sheets() {
		s, err := c.Sheet(name)
		if err != nil {
			return err
		}
		rows = append(rows, []string{name, strconv.Itoa(s.Len()), strconv.Itoa(len(s.Headers))})
	}
	fmt.Fprintln(out, renderTable([]string{"Sheet", "Rows", "Columns"}, rows))
	return nil
}

func printSheet(cmd *cobra.Command, c *casefile.Case, name string, limit int) error {
	s, err := c.Sheet(name)
	if err != nil {
		return err
	}

	rows := s.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	numbered := make([][]string, len(rows))
	for i, r := range rows {
		numbered[i] = append([]string{strconv.Itoa(i + 1)}, r...)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s - %s\n\n", c.Path(), modeLabel(c), s.Name)
	fmt.Fprintln(out, renderTable(append([]string{"#"}, s.Headers...), numbered))
	if len(rows) < s.Len() {
		fmt.Fprintf(out, "%d of %d rows\n", len(rows), s.Len())
	}
	return nil
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/spf13/cobra"
)

var rowCmd = &cobra.Command{
	Use:   "row",
	Short: "Add, edit or delete case rows",
	Long: `Add, edit or delete rows of a case sheet.

Rows are numbered from 1, the first row under the header. Every change is
saved immediately and needs the case lock; a case opened read-only refuses
changes without touching the file.`,
}

var rowAddCmd = &cobra.Command{
	Use:   "add <case.xlsx> <sheet> [value...]",
	Short: "Append a row",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRowAdd,
}

var rowEditCmd = &cobra.Command{
	Use:   "edit <case.xlsx> <sheet> <row> [value...]",
	Short: "Replace a row",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runRowEdit,
}

var rowDeleteCmd = &cobra.Command{
	Use:   "delete <case.xlsx> <sheet> <row>...",
	Short: "Delete rows",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runRowDelete,
}

var rowReadOnly bool

func init() {
	rootCmd.AddCommand(rowCmd)
	rowCmd.AddCommand(rowAddCmd)
	rowCmd.AddCommand(rowEditCmd)
	rowCmd.AddCommand(rowDeleteCmd)
	rowCmd.PersistentFlags().BoolVar(&rowReadOnly, "read-only", false, "open read-only without asking when the case is locked")
}

// parseRow converts a 1-based row argument to a data index.
func parseRow(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, errors.NewValidationError("row", arg, "must be a row number starting at 1")
	}
	return n - 1, nil
}

func runRowAdd(cmd *cobra.Command, args []string) error {
	sheet, values := args[1], args[2:]
	return withCase(cmd, args[0], writeDecider(&rowReadOnly), func(_ *registry.Context, c *casefile.Case) error {
		idx, err := c.AddRow(sheet, values)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added row %d to %s\n", idx+1, sheet)
		return nil
	})
}

func runRowEdit(cmd *cobra.Command, args []string) error {
	sheet, values := args[1], args[3:]
	idx, err := parseRow(args[2])
	if err != nil {
		return err
	}
	return withCase(cmd, args[0], writeDecider(&rowReadOnly), func(_ *registry.Context, c *casefile.Case) error {
		if err := c.EditRow(sheet, idx, values); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved row %d of %s\n", idx+1, sheet)
		return nil
	})
}

func runRowDelete(cmd *cobra.Command, args []string) error {
	sheet := args[1]
	indexes := make([]int, 0, len(args)-2)
	for _, a := range args[2:] {
		idx, err := parseRow(a)
		if err != nil {
			return err
		}
		indexes = append(indexes, idx)
	}
	return withCase(cmd, args[0], writeDecider(&rowReadOnly), func(_ *registry.Context, c *casefile.Case) error {
		if err := c.DeleteRows(sheet, indexes); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d row(s) from %s\n", len(indexes), sheet)
		return nil
	})
}

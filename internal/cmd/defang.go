package cmd

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/spf13/cobra"
)

var defangCmd = &cobra.Command{
	Use:   "defang <case.xlsx>",
	Short: "Write a defanged copy of a case",
	Long: `Defang indicators (IP addresses, URLs, domains and e-mail addresses) so the
case can be shared without live links.

By default a copy is written next to the case as <name>_sanitized.xlsx under
that file's own lock; the case itself may be open read-only. An existing
output file is only replaced with --force. With --in-place the case itself is
rewritten, which needs its lock.

Sheets are selected with a glob pattern, e.g. --sheets 'Time*'.`,
	Args: cobra.ExactArgs(1),
	RunE: runDefang,
}

var (
	defangOutput   string
	defangSheets   string
	defangInPlace  bool
	defangReadOnly bool
	defangForce    bool
)

func init() {
	rootCmd.AddCommand(defangCmd)
	defangCmd.Flags().StringVarP(&defangOutput, "output", "o", "", "output workbook (default: <name>_sanitized.xlsx)")
	defangCmd.Flags().StringVar(&defangSheets, "sheets", casefile.AllSheets, "glob selecting the sheets to defang")
	defangCmd.Flags().BoolVar(&defangInPlace, "in-place", false, "rewrite the case itself")
	defangCmd.Flags().BoolVarP(&defangForce, "force", "f", false, "replace the output workbook if it exists")
	defangCmd.Flags().BoolVar(&defangReadOnly, "read-only", false, "with --in-place, open read-only without asking when the case is locked")
}

func runDefang(cmd *cobra.Command, args []string) error {
	if defangInPlace && defangOutput != "" {
		return fmt.Errorf("--in-place and --output are mutually exclusive")
	}
	if defangInPlace && defangForce {
		return fmt.Errorf("--force only applies to a copy, not --in-place")
	}

	decider := readOnlyDecider
	if defangInPlace {
		decider = writeDecider(&defangReadOnly)
	}

	return withCase(cmd, args[0], decider, func(_ *registry.Context, c *casefile.Case) error {
		var (
			report *casefile.DefangReport
			err    error
		)
		if defangInPlace {
			report, err = c.Sanitize(defangSheets)
		} else {
			out := defangOutput
			if out == "" {
				out = casefile.SanitizedPath(c.Path())
			}
			report, err = c.DefangTo(cmd.Context(), out, defangSheets, casefile.WithOverwrite(defangForce))
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%s already exists; use --force to replace it", out)
			}
		}
		if err != nil {
			return err
		}
		printDefangReport(cmd, report)
		return nil
	})
}

func printDefangReport(cmd *cobra.Command, r *casefile.DefangReport) {
	out := cmd.OutOrStdout()
	sheets := append([]string(nil), r.Sheets...)
	sort.Strings(sheets)
	for _, s := range sheets {
		fmt.Fprintf(out, "  %-24s %d cell(s)\n", s, r.Cells[s])
	}
	fmt.Fprintf(out, "Defanged %d cell(s) in %d sheet(s): %s\n", r.Total(), len(r.Sheets), r.Output)
}

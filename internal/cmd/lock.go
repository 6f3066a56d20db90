package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect case file locks",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status [case.xlsx | dir]",
	Short: "Show whether cases are locked",
	Long: `Show whether a case, or every case in a directory, is locked by another
process. The default is the current directory.

A lock file on disk does not mean the case is locked: locks are released when
their owner exits, and the file is left behind.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLockStatus,
}

var lockLockedOnly bool

func init() {
	rootCmd.AddCommand(lockCmd)
	lockCmd.AddCommand(lockStatusCmd)
	lockStatusCmd.Flags().BoolVar(&lockLockedOnly, "locked", false, "only list locked cases")
}

func runLockStatus(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	st, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", target, err)
	}

	var infos []*session.CaseInfo
	switch {
	case !st.IsDir():
		info, err := session.GetCaseInfo(target)
		if err != nil {
			return err
		}
		infos = []*session.CaseInfo{info}
	case lockLockedOnly:
		infos, err = session.FindLockedCases(target)
	default:
		infos, err = session.ListCases(target)
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		if lockLockedOnly && !info.IsLocked {
			continue
		}
		rows = append(rows, []string{
			info.Path,
			lockState(info),
			formatSize(info.Size),
			info.Modified.Format("2006-01-02 15:04"),
		})
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No case files found.")
		return nil
	}
	fmt.Fprintln(out, renderTable([]string{"Case", "Lock", "Size", "Modified"}, rows))
	return nil
}

func lockState(info *session.CaseInfo) string {
	switch {
	case info.IsLocked:
		return "locked"
	case info.HasLockFile:
		return "free (stale lock file)"
	default:
		return "free"
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

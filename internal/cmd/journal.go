package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Iron-Ham/kanvas/internal/journal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent case session events",
	Long: `Show the local journal of case sessions: opens (read-write or read-only),
declined opens, saves, refused writes and lock release failures.

The journal lives in the state directory unless journal.path is set, and is
turned off with journal.enabled=false.`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

var (
	journalCase  string
	journalLimit int
	journalYAML  bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().StringVar(&journalCase, "case", "", "only events for this case file")
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", journal.DefaultLimit, "number of events to show")
	journalCmd.Flags().BoolVar(&journalYAML, "yaml", false, "print events as YAML")
}

func runJournal(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer shutdown(cmd, svc)

	if svc.Journal == nil {
		return fmt.Errorf("the journal is disabled (journal.enabled=false)")
	}

	var entries []journal.Entry
	if journalCase != "" {
		path := journalCase
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		entries, err = svc.Journal.ForCase(cmd.Context(), path, journalLimit)
	} else {
		entries, err = svc.Journal.Recent(cmd.Context(), journalLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if journalYAML {
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to encode journal: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No session events recorded.")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Event,
			e.Mode,
			e.CasePath,
			e.Detail,
			fmt.Sprintf("%s:%d", e.Hostname, e.PID),
		}
	}
	fmt.Fprintln(out, renderTable([]string{"Time", "Event", "Mode", "Case", "Detail", "Process"}, rows))
	return nil
}

package config

import (
	"fmt"

	appconfig "github.com/Iron-Ham/kanvas/internal/config"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "List the available color themes",
	Long: `List the color themes available to the case browser.

The active theme is marked with '*'. Change it with:
  kanvas config set tui.theme <name>`,
	Args: cobra.NoArgs,
	RunE: runThemeList,
}

func init() {
	configCmd.AddCommand(themeCmd)
}

func runThemeList(cmd *cobra.Command, args []string) error {
	active := appconfig.Get().TUI.Theme
	out := cmd.OutOrStdout()

	for _, name := range styles.BuiltinThemes() {
		p := styles.GetPalette(styles.ThemeName(name))
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-16s primary %s  secondary %s\n", marker, name, p.Primary, p.Secondary)
	}
	return nil
}

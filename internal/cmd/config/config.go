// Package config provides CLI commands for managing Kanvas configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	appconfig "github.com/Iron-Ham/kanvas/internal/config"
	"github.com/Iron-Ham/kanvas/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify Kanvas configuration",
	Long: `View or modify Kanvas configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  kanvas config set session.on_conflict read_only
  kanvas config set session.lock_timeout 2s
  kanvas config set tui.theme nord

Valid keys:
  session.lock_timeout     - How long opening a case waits for its lock (e.g. 1s)
  session.retry_interval   - How often the lock is retried while waiting
  session.on_conflict      - When the case is locked: ask, read_only, cancel
  workbook.template        - Workbook copied by 'kanvas new'
  workbook.timeline_sheet  - Sheet scanned for systems and users
  journal.enabled          - Record session events (true/false)
  journal.path             - Journal database path
  watch.enabled            - Watch read-only cases for saves (true/false)
  watch.debounce           - Coalescing window for file events
  tui.max_column_width     - Widest table column in cells
  tui.page_rows            - Table rows shown at once
  tui.theme                - Color theme: default, nord, dracula, solarized-light
  logging.enabled          - Write kanvas.log (true/false)
  logging.level            - debug, info, warn, error
  logging.max_size_mb      - Log size before rotation
  logging.max_backups      - Rotated logs to keep
  paths.state_dir          - Directory for logs and the journal`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/kanvas/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

var showYAML bool

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configResetCmd)

	configCmd.PersistentFlags().BoolVar(&showYAML, "yaml", false, "print the effective configuration as YAML")
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes maps every settable key to how its value is parsed.
var keyTypes = map[string]string{
	"session.lock_timeout":    "duration",
	"session.retry_interval":  "duration",
	"session.on_conflict":     "conflict",
	"workbook.template":       "string",
	"workbook.timeline_sheet": "string",
	"journal.enabled":         "bool",
	"journal.path":            "string",
	"watch.enabled":           "bool",
	"watch.debounce":          "duration",
	"tui.max_column_width":    "int",
	"tui.page_rows":           "int",
	"tui.theme":               "theme",
	"logging.enabled":         "bool",
	"logging.level":           "level",
	"logging.max_size_mb":     "int",
	"logging.max_backups":     "int",
	"paths.state_dir":         "string",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Get()
	out := cmd.OutOrStdout()

	if showYAML {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "session:")
	fmt.Fprintf(out, "  lock_timeout: %s\n", cfg.Session.LockTimeout)
	fmt.Fprintf(out, "  retry_interval: %s\n", cfg.Session.RetryInterval)
	fmt.Fprintf(out, "  on_conflict: %s\n", cfg.Session.OnConflict)

	fmt.Fprintln(out, "workbook:")
	fmt.Fprintf(out, "  template: %s\n", cfg.Workbook.Template)
	fmt.Fprintf(out, "  timeline_sheet: %s\n", cfg.Workbook.TimelineSheet)

	fmt.Fprintln(out, "journal:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Journal.Enabled)
	fmt.Fprintf(out, "  path: %s\n", cfg.Journal.ResolvePath(cfg.Paths.ResolveStateDir()))

	fmt.Fprintln(out, "watch:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Watch.Enabled)
	fmt.Fprintf(out, "  debounce: %s\n", cfg.Watch.Debounce)

	fmt.Fprintln(out, "tui:")
	fmt.Fprintf(out, "  max_column_width: %d\n", cfg.TUI.MaxColumnWidth)
	fmt.Fprintf(out, "  page_rows: %d\n", cfg.TUI.PageRows)
	fmt.Fprintf(out, "  theme: %s\n", cfg.TUI.Theme)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	fmt.Fprintln(out, "paths:")
	fmt.Fprintf(out, "  state_dir: %s\n", cfg.Paths.ResolveStateDir())

	return nil
}

// parseValue validates value for key and converts it to the type viper stores.
func parseValue(key, value string) (any, error) {
	keyType, ok := keyTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'kanvas config set --help' to see valid keys", key)
	}

	switch keyType {
	case "conflict":
		if !slices.Contains(appconfig.ValidConflictPolicies(), value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidConflictPolicies(), ", "))
		}
		return value, nil
	case "level":
		if !slices.Contains(appconfig.ValidLogLevels(), strings.ToLower(value)) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		return strings.ToLower(value), nil
	case "theme":
		if !styles.IsValidTheme(value) {
			return nil, fmt.Errorf("invalid theme: %s\nValid options: %s",
				value, strings.Join(styles.BuiltinThemes(), ", "))
		}
		return value, nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a duration such as 1s or 250ms", key)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return d.String(), nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseValue(key, args[1])
	if err != nil {
		return err
	}

	viper.Set(key, typedValue)

	// Reject values that parse but fail validation, e.g. a 1m lock timeout.
	if _, err := appconfig.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

func writeConfig() (string, error) {
	configDir := appconfig.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := appconfig.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

const defaultConfigContent = `# Kanvas Configuration

# Case file locking
session:
  # How long opening a case waits for its lock before asking what to do
  lock_timeout: 1s
  # How often the lock is retried while waiting
  retry_interval: 100ms
  # When the case is locked by another user: ask, read_only, cancel
  on_conflict: ask

# Case workbooks
workbook:
  # Workbook copied by 'kanvas new' (empty builds a blank case)
  template: ""
  # Sheet scanned by 'kanvas systems' and 'kanvas users'
  timeline_sheet: Timeline

# Local journal of case sessions (SQLite)
journal:
  enabled: true
  # Empty uses {state_dir}/journal.db
  path: ""

# Watch read-only cases for saves by the lock holder
watch:
  enabled: true
  debounce: 250ms

# TUI (terminal user interface) settings
tui:
  max_column_width: 32
  page_rows: 20
  # Color theme: default, nord, dracula, solarized-light
  theme: default

# Debug logging
logging:
  enabled: true
  # Options: debug, info, warn, error
  level: info
  max_size_mb: 10
  max_backups: 3

paths:
  # Directory for logs and the journal (empty uses the config directory)
  state_dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'kanvas config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize Kanvas's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/kanvas/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: KANVAS_* (e.g., KANVAS_SESSION_ON_CONFLICT)")

	return nil
}

// defaultValues returns the default of every settable key in the form
// runConfigSet stores it.
func defaultValues() map[string]any {
	d := appconfig.Default()
	return map[string]any{
		"session.lock_timeout":    d.Session.LockTimeout.String(),
		"session.retry_interval":  d.Session.RetryInterval.String(),
		"session.on_conflict":     d.Session.OnConflict,
		"workbook.template":       d.Workbook.Template,
		"workbook.timeline_sheet": d.Workbook.TimelineSheet,
		"journal.enabled":         d.Journal.Enabled,
		"journal.path":            d.Journal.Path,
		"watch.enabled":           d.Watch.Enabled,
		"watch.debounce":          d.Watch.Debounce.String(),
		"tui.max_column_width":    d.TUI.MaxColumnWidth,
		"tui.page_rows":           d.TUI.PageRows,
		"tui.theme":               d.TUI.Theme,
		"logging.enabled":         d.Logging.Enabled,
		"logging.level":           d.Logging.Level,
		"logging.max_size_mb":     d.Logging.MaxSizeMB,
		"logging.max_backups":     d.Logging.MaxBackups,
		"paths.state_dir":         d.Paths.StateDir,
	}
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaults := defaultValues()

	if len(args) == 1 {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s = %v\n", key, value)
	} else {
		for key, value := range defaults {
			viper.Set(key, value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Reset all configuration to defaults")
	}

	configFile, err := writeConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

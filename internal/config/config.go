package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Kanvas configuration
type Config struct {
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Workbook WorkbookConfig `mapstructure:"workbook" yaml:"workbook"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
	TUI      TUIConfig      `mapstructure:"tui" yaml:"tui"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Paths    PathsConfig    `mapstructure:"paths" yaml:"paths"`
}

// SessionConfig controls case file locking
type SessionConfig struct {
	// LockTimeout bounds how long opening a case waits for its lock (default: 1s).
	// There is no backoff: after the timeout the user is asked what to do.
	LockTimeout time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
	// RetryInterval is how often the lock is re-tried within LockTimeout (default: 100ms)
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
	// OnConflict decides what happens when the lock is held elsewhere.
	// Options: "ask" (default), "read_only", "cancel"
	OnConflict string `mapstructure:"on_conflict" yaml:"on_conflict"`
}

// WorkbookConfig controls case workbook creation and analysis
type WorkbookConfig struct {
	// Template is an .xlsx copied when creating a new case. Empty builds a blank case.
	Template string `mapstructure:"template" yaml:"template"`
	// TimelineSheet is the sheet scanned for systems and users (default: "Timeline")
	TimelineSheet string `mapstructure:"timeline_sheet" yaml:"timeline_sheet"`
}

// JournalConfig controls the local session audit journal
type JournalConfig struct {
	// Enabled records session events to SQLite (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Path is the journal database. Empty uses {state_dir}/journal.db.
	Path string `mapstructure:"path" yaml:"path"`
}

// WatchConfig controls on-disk change detection for open cases
type WatchConfig struct {
	// Enabled watches read-only cases for saves by the lock holder (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Debounce coalesces bursts of file events (default: 250ms)
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// TUIConfig controls the case browser
type TUIConfig struct {
	// MaxColumnWidth caps the width of a table column in cells (default: 32)
	MaxColumnWidth int `mapstructure:"max_column_width" yaml:"max_column_width"`
	// PageRows is the number of table rows shown at once (default: 20)
	PageRows int `mapstructure:"page_rows" yaml:"page_rows"`
	// Theme is the color theme for the case browser (default: "default")
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logs are written to the state directory (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// PathsConfig controls where Kanvas stores its own data
type PathsConfig struct {
	// StateDir holds logs and the journal. Empty uses the config directory.
	// Supports ~ for home directory expansion.
	StateDir string `mapstructure:"state_dir" yaml:"state_dir"`
}

// ResolveStateDir returns the state directory with ~ expanded.
func (p *PathsConfig) ResolveStateDir() string {
	if p.StateDir == "" {
		return ConfigDir()
	}
	return expandHome(p.StateDir)
}

// ResolvePath returns the journal database path.
func (j *JournalConfig) ResolvePath(stateDir string) string {
	if j.Path == "" {
		return filepath.Join(stateDir, "journal.db")
	}
	return expandHome(j.Path)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			LockTimeout:   time.Second,
			RetryInterval: 100 * time.Millisecond,
			OnConflict:    ConflictAsk,
		},
		Workbook: WorkbookConfig{
			Template:      "",
			TimelineSheet: "Timeline",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
		TUI: TUIConfig{
			MaxColumnWidth: 32,
			PageRows:       20,
			Theme:          "default",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Paths: PathsConfig{
			StateDir: "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("session.lock_timeout", defaults.Session.LockTimeout)
	viper.SetDefault("session.retry_interval", defaults.Session.RetryInterval)
	viper.SetDefault("session.on_conflict", defaults.Session.OnConflict)

	viper.SetDefault("workbook.template", defaults.Workbook.Template)
	viper.SetDefault("workbook.timeline_sheet", defaults.Workbook.TimelineSheet)

	viper.SetDefault("journal.enabled", defaults.Journal.Enabled)
	viper.SetDefault("journal.path", defaults.Journal.Path)

	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)

	viper.SetDefault("tui.max_column_width", defaults.TUI.MaxColumnWidth)
	viper.SetDefault("tui.page_rows", defaults.TUI.PageRows)
	viper.SetDefault("tui.theme", defaults.TUI.Theme)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kanvas")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kanvas"
	}
	return filepath.Join(home, ".config", "kanvas")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

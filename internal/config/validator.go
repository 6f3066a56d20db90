package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Conflict policies for session.on_conflict
const (
	ConflictAsk      = "ask"
	ConflictReadOnly = "read_only"
	ConflictCancel   = "cancel"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.lock_timeout")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidConflictPolicies returns the accepted session.on_conflict values
func ValidConflictPolicies() []string {
	return []string{ConflictAsk, ConflictReadOnly, ConflictCancel}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateWorkbook()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	// The lock wait runs on the UI thread, so it has to stay short.
	const maxLockTimeout = 30 * time.Second

	if c.Session.LockTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.lock_timeout",
			Value:   c.Session.LockTimeout,
			Message: "must be non-negative (0 tries once without waiting)",
		})
	}
	if c.Session.LockTimeout > maxLockTimeout {
		errors = append(errors, ValidationError{
			Field:   "session.lock_timeout",
			Value:   c.Session.LockTimeout,
			Message: fmt.Sprintf("exceeds maximum of %s", maxLockTimeout),
		})
	}
	if c.Session.RetryInterval < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.retry_interval",
			Value:   c.Session.RetryInterval,
			Message: "must be non-negative",
		})
	}
	if c.Session.OnConflict != "" && !slices.Contains(ValidConflictPolicies(), c.Session.OnConflict) {
		errors = append(errors, ValidationError{
			Field:   "session.on_conflict",
			Value:   c.Session.OnConflict,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidConflictPolicies(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateWorkbook() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Workbook.TimelineSheet) == "" {
		errors = append(errors, ValidationError{
			Field:   "workbook.timeline_sheet",
			Value:   c.Workbook.TimelineSheet,
			Message: "must not be empty",
		})
	}
	if c.Workbook.Template != "" && !strings.HasSuffix(strings.ToLower(c.Workbook.Template), ".xlsx") {
		errors = append(errors, ValidationError{
			Field:   "workbook.template",
			Value:   c.Workbook.Template,
			Message: "must be an .xlsx file",
		})
	}

	return errors
}

func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.Debounce < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce",
			Value:   c.Watch.Debounce,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	const minColumnWidth = 4
	const maxColumnWidth = 200

	if c.TUI.MaxColumnWidth != 0 && (c.TUI.MaxColumnWidth < minColumnWidth || c.TUI.MaxColumnWidth > maxColumnWidth) {
		errors = append(errors, ValidationError{
			Field:   "tui.max_column_width",
			Value:   c.TUI.MaxColumnWidth,
			Message: fmt.Sprintf("must be between %d and %d", minColumnWidth, maxColumnWidth),
		})
	}
	if c.TUI.PageRows < 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.page_rows",
			Value:   c.TUI.PageRows,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 disables rotation)",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

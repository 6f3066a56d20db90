// Package errors provides centralized error definitions and error handling utilities
// for Kanvas. It defines the sentinel errors of the case-file session layer, typed
// errors that carry the case path and an error [Kind], and classification helpers
// used at the boundary between I/O (lock acquire, workbook read/write) and the
// presentation layer.
//
// # Error Kinds
//
// Every Kanvas error is classified into a [Kind]:
//   - KindLockTimeout: the case file lock is held by another process
//   - KindLockAcquisition: the lock could not be taken for any other reason
//   - KindLockRelease: releasing a held lock failed (logged, never surfaced)
//   - KindReadOnlyWrite: a mutating command was issued in a read-only session
//   - KindCanceled: the user declined to open the case
//   - KindNotFound: a sheet, column or row does not exist
//   - KindValidation: invalid input
//   - KindIO: workbook read or write failure
//
// # Usage
//
//	err := errors.NewLockError("acquire", path, errors.ErrLockTimeout)
//
//	switch errors.KindOf(err) {
//	case errors.KindLockTimeout:
//		// ask the user: read-only or cancel
//	case errors.KindReadOnlyWrite:
//		fmt.Println(errors.UserMessage(err))
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Kind classifies an error so callers can branch on it without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindLockTimeout
	KindLockAcquisition
	KindLockRelease
	KindReadOnlyWrite
	KindCanceled
	KindNotFound
	KindValidation
	KindIO
)

// String returns the snake_case name of the kind, as written to logs and the journal.
func (k Kind) String() string {
	switch k {
	case KindLockTimeout:
		return "lock_timeout"
	case KindLockAcquisition:
		return "lock_acquisition"
	case KindLockRelease:
		return "lock_release"
	case KindReadOnlyWrite:
		return "read_only_write"
	case KindCanceled:
		return "canceled"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Lock-related sentinel errors
var (
	// ErrLockTimeout indicates that the case file lock is held by another process.
	ErrLockTimeout = New("case file is locked by another process")
	// ErrLockAcquisition indicates the lock could not be acquired for a reason other than contention.
	ErrLockAcquisition = New("failed to acquire case file lock")
	// ErrLockRelease indicates that releasing the case file lock failed.
	ErrLockRelease = New("failed to release case file lock")
)

// Session-related sentinel errors
var (
	// ErrReadOnlyWrite indicates a mutating command was issued in a read-only session.
	ErrReadOnlyWrite = New("case file is open in read-only mode")
	// ErrNoSession indicates that no case file is open.
	ErrNoSession = New("no case file is open")
	// ErrOpenCanceled indicates the user declined to open a locked case file.
	ErrOpenCanceled = New("open canceled")
)

// Workbook-related sentinel errors
var (
	// ErrSheetNotFound indicates that a worksheet does not exist in the workbook.
	ErrSheetNotFound = New("sheet not found")
	// ErrColumnNotFound indicates that a required header column is missing.
	ErrColumnNotFound = New("column not found")
	// ErrRowOutOfRange indicates that a row index is outside the sheet's data rows.
	ErrRowOutOfRange = New("row out of range")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// KanvasError is the base interface for all Kanvas errors.
type KanvasError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Kind returns the classification of this error.
	Kind() Kind

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	kind       Kind
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Kind returns the error kind.
func (e *baseError) Kind() Kind {
	return e.kind
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// LockError represents errors from the case file lock.
//
// Example:
//
//	err := errors.NewLockError("acquire", "/cases/acme.xlsx", errors.ErrLockTimeout)
//	fmt.Println(err) // "lock error [op=acquire, path=/cases/acme.xlsx]: case file is locked by another process"
type LockError struct {
	baseError
	Op   string
	Path string
}

// NewLockError creates a LockError. The kind is derived from the cause.
func NewLockError(op, path string, cause error) *LockError {
	kind := kindFromSentinel(cause, KindLockAcquisition)
	severity := SeverityError
	switch kind {
	case KindLockTimeout:
		severity = SeverityInfo
	case KindLockRelease:
		severity = SeverityWarning
	}
	return &LockError{
		baseError: baseError{
			cause:      cause,
			kind:       kind,
			severity:   severity,
			userFacing: kind != KindLockRelease,
		},
		Op:   op,
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *LockError) Error() string {
	return formatWithContext("lock error", []string{
		contextPart("op", e.Op),
		contextPart("path", e.Path),
	}, e.message, e.cause)
}

// CaseError represents errors from the case workbook command layer.
//
// Example:
//
//	err := errors.NewCaseError("save", errors.ErrReadOnlyWrite).WithPath(path).WithSheet("Timeline")
type CaseError struct {
	baseError
	Op    string
	Path  string
	Sheet string
}

// NewCaseError creates a CaseError. The kind is derived from the cause.
func NewCaseError(op string, cause error) *CaseError {
	kind := kindFromSentinel(cause, KindIO)
	severity := SeverityError
	if kind == KindReadOnlyWrite || kind == KindCanceled {
		severity = SeverityWarning
	}
	return &CaseError{
		baseError: baseError{
			cause:      cause,
			kind:       kind,
			severity:   severity,
			userFacing: true,
		},
		Op: op,
	}
}

// WithPath adds the case file path to the error context.
func (e *CaseError) WithPath(path string) *CaseError {
	e.Path = path
	return e
}

// WithSheet adds the sheet name to the error context.
func (e *CaseError) WithSheet(sheet string) *CaseError {
	e.Sheet = sheet
	return e
}

// WithMessage sets a descriptive message placed before the cause.
func (e *CaseError) WithMessage(msg string) *CaseError {
	e.message = msg
	return e
}

// Error returns the formatted error message.
func (e *CaseError) Error() string {
	return formatWithContext("case error", []string{
		contextPart("op", e.Op),
		contextPart("path", e.Path),
		contextPart("sheet", e.Sheet),
	}, e.message, e.cause)
}

// ValidationError represents invalid user input.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			cause:      ErrInvalidInput,
			kind:       KindValidation,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Field: field,
		Value: value,
	}
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error: %s: %s (got: %v)", e.Field, e.message, e.Value)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
}

func contextPart(key, value string) string {
	if value == "" {
		return ""
	}
	return key + "=" + value
}

func formatWithContext(prefix string, parts []string, message string, cause error) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(kept, ", "))
	}
	switch {
	case message != "" && cause != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	case cause != nil:
		return fmt.Sprintf("%s: %v", prefix, cause)
	case message != "":
		return fmt.Sprintf("%s: %s", prefix, message)
	default:
		return prefix
	}
}

func kindFromSentinel(err error, fallback Kind) Kind {
	switch {
	case err == nil:
		return fallback
	case Is(err, ErrOpenCanceled):
		// A declined open wraps the timeout that prompted it.
		return KindCanceled
	case Is(err, ErrLockTimeout):
		return KindLockTimeout
	case Is(err, ErrLockRelease):
		return KindLockRelease
	case Is(err, ErrLockAcquisition):
		return KindLockAcquisition
	case Is(err, ErrReadOnlyWrite):
		return KindReadOnlyWrite
	case Is(err, ErrSheetNotFound), Is(err, ErrColumnNotFound), Is(err, ErrRowOutOfRange), Is(err, ErrNoSession):
		return KindNotFound
	case Is(err, ErrInvalidInput):
		return KindValidation
	}
	var ke KanvasError
	if As(err, &ke) {
		return ke.Kind()
	}
	return fallback
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// KindOf returns the Kind of err, looking through wrapped errors.
// Unclassified errors report KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ke KanvasError
	if As(err, &ke) {
		return ke.Kind()
	}
	return kindFromSentinel(err, KindUnknown)
}

// IsRecoverable reports whether err is an expected condition the caller should
// turn into a user decision rather than a failure.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindLockTimeout, KindCanceled, KindNotFound, KindValidation, KindReadOnlyWrite:
		return true
	}
	return false
}

// IsUserFacing returns true if the error is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var ke KanvasError
	if As(err, &ke) {
		return ke.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity of err, defaulting to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var ke KanvasError
	if As(err, &ke) {
		return ke.Severity()
	}
	return SeverityError
}

// UserMessage returns a message suitable for a status bar or error dialog.
// Read-only write attempts get a dedicated message distinct from I/O failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindReadOnlyWrite:
		return "This case file is open in read-only mode. Changes cannot be saved."
	case KindLockTimeout:
		return "The case file is currently being edited by another user."
	case KindCanceled:
		return "Open canceled."
	case KindLockAcquisition:
		return "Could not lock the case file: " + err.Error()
	}
	return err.Error()
}

// Wrap wraps an error with additional context.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity / Kind Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindLockTimeout, "lock_timeout"},
		{KindLockAcquisition, "lock_acquisition"},
		{KindLockRelease, "lock_release"},
		{KindReadOnlyWrite, "read_only_write"},
		{KindCanceled, "canceled"},
		{KindNotFound, "not_found"},
		{KindValidation, "validation"},
		{KindIO, "io"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// LockError Tests
// -----------------------------------------------------------------------------

func TestNewLockError_KindFromCause(t *testing.T) {
	tests := []struct {
		name       string
		cause      error
		wantKind   Kind
		wantSev    Severity
		userFacing bool
	}{
		{"timeout", ErrLockTimeout, KindLockTimeout, SeverityInfo, true},
		{"wrapped timeout", fmt.Errorf("after 1s: %w", ErrLockTimeout), KindLockTimeout, SeverityInfo, true},
		{"release", ErrLockRelease, KindLockRelease, SeverityWarning, false},
		{"permission", errors.New("permission denied"), KindLockAcquisition, SeverityError, true},
		{"canceled", ErrOpenCanceled, KindCanceled, SeverityError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLockError("acquire", "/cases/a.xlsx", tt.cause)
			if err.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", err.Kind(), tt.wantKind)
			}
			if err.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.wantSev)
			}
			if err.IsUserFacing() != tt.userFacing {
				t.Errorf("IsUserFacing() = %v, want %v", err.IsUserFacing(), tt.userFacing)
			}
		})
	}
}

func TestLockError_Error(t *testing.T) {
	err := NewLockError("acquire", "/cases/a.xlsx", ErrLockTimeout)
	want := "lock error [op=acquire, path=/cases/a.xlsx]: case file is locked by another process"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrLockTimeout) {
		t.Error("errors.Is(err, ErrLockTimeout) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// CaseError Tests
// -----------------------------------------------------------------------------

func TestCaseError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CaseError
		want string
	}{
		{
			name: "cause only",
			err:  NewCaseError("save", ErrReadOnlyWrite),
			want: "case error [op=save]: case file is open in read-only mode",
		},
		{
			name: "full context",
			err:  NewCaseError("append", ErrSheetNotFound).WithPath("/c.xlsx").WithSheet("Timeline"),
			want: "case error [op=append, path=/c.xlsx, sheet=Timeline]: sheet not found",
		},
		{
			name: "message and cause",
			err:  NewCaseError("load", errors.New("zip: not a valid zip file")).WithMessage("failed to open workbook"),
			want: "case error [op=load]: failed to open workbook: zip: not a valid zip file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaseError_Kind(t *testing.T) {
	if k := NewCaseError("save", ErrReadOnlyWrite).Kind(); k != KindReadOnlyWrite {
		t.Errorf("Kind() = %v, want %v", k, KindReadOnlyWrite)
	}
	if k := NewCaseError("save", errors.New("disk full")).Kind(); k != KindIO {
		t.Errorf("Kind() = %v, want %v", k, KindIO)
	}
	if k := NewCaseError("edit", ErrRowOutOfRange).Kind(); k != KindNotFound {
		t.Errorf("Kind() = %v, want %v", k, KindNotFound)
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"sentinel", ErrReadOnlyWrite, KindReadOnlyWrite},
		{"wrapped typed", fmt.Errorf("open: %w", NewLockError("acquire", "p", ErrLockTimeout)), KindLockTimeout},
		{"validation", NewValidationError("row", -1, "must be positive"), KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(NewLockError("acquire", "p", ErrLockTimeout)) {
		t.Error("lock timeout should be recoverable")
	}
	if IsRecoverable(NewLockError("acquire", "p", errors.New("EACCES"))) {
		t.Error("acquisition failure should not be recoverable")
	}
	if IsRecoverable(nil) {
		t.Error("nil should not be recoverable")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(errors.New("internal")) {
		t.Error("plain error should not be user facing")
	}
	if IsUserFacing(NewLockError("release", "p", ErrLockRelease)) {
		t.Error("release error should not be user facing")
	}
	if !IsUserFacing(NewCaseError("save", ErrReadOnlyWrite)) {
		t.Error("read-only write should be user facing")
	}
}

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want debug", got)
	}
	if got := GetSeverity(errors.New("x")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want error", got)
	}
}

func TestUserMessage_ReadOnlyIsDistinct(t *testing.T) {
	ro := UserMessage(NewCaseError("save", ErrReadOnlyWrite))
	io := UserMessage(NewCaseError("save", errors.New("disk full")))

	if !strings.Contains(ro, "read-only") {
		t.Errorf("read-only message = %q, want mention of read-only", ro)
	}
	if ro == io {
		t.Error("read-only message should differ from generic I/O message")
	}
	if UserMessage(nil) != "" {
		t.Error("UserMessage(nil) should be empty")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrapf(ErrSheetNotFound, "sheet %q", "Timeline")
	if !Is(err, ErrSheetNotFound) {
		t.Error("Wrapf should preserve the chain")
	}
	if err.Error() != `sheet "Timeline": sheet not found` {
		t.Errorf("Wrapf() = %q", err.Error())
	}
}

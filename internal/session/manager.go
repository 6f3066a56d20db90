package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/filelock"
	"github.com/Iron-Ham/kanvas/internal/logging"
	"github.com/google/uuid"
)

// DefaultLockTimeout bounds the lock wait when opening a case.
const DefaultLockTimeout = time.Second

// Session is one open case file. Its fields never change after Open returns.
type Session struct {
	ID       string
	Path     string
	LockPath string
	Mode     Mode
	OpenedAt time.Time
}

// CanWrite reports whether the session was opened with the lock held.
func (s *Session) CanWrite() bool {
	return s != nil && s.Mode.CanWrite()
}

// String returns "path [mode]".
func (s *Session) String() string {
	if s == nil {
		return "<no session>"
	}
	return fmt.Sprintf("%s [%s]", s.Path, s.Mode)
}

// Manager coordinates exclusive access to case files for this process.
// It holds at most one session, and at most one lock, at a time.
type Manager struct {
	// opMu serializes Open and Close so a decider can run without holding mu.
	opMu sync.Mutex
	mu   sync.RWMutex

	locker    filelock.Locker
	timeout   time.Duration
	logger    *logging.Logger
	observers []Observer

	current *Session
	handle  filelock.Handle

	// cancelOpen aborts the Open in progress, if any.
	cancelOpen context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker replaces the lock primitive.
func WithLocker(l filelock.Locker) Option {
	return func(m *Manager) {
		m.locker = l
	}
}

// WithLockTimeout sets how long Open waits for a contended lock.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithObserver registers an observer for session events.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, o)
	}
}

// NewManager creates a Manager. By default it uses gofrs/flock with a one
// second timeout and discards logs.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locker:  filelock.NewFlockLocker(filelock.DefaultRetryInterval),
		timeout: DefaultLockTimeout,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session for the case file at path.
//
// Any session already open in this process is closed first, so two locks are
// never held at once. The mode is decided before the workbook is read:
// ExclusiveWrite if the lock is acquired within the timeout, otherwise the
// decider picks ReadOnly or cancel. Cancellation returns an error of kind
// errors.KindCanceled and other lock failures errors.KindLockAcquisition; in
// both cases no session is left open.
func (m *Manager) Open(ctx context.Context, path string, decider Decider) (*Session, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewValidationError("path", path, "case file path is required")
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancelOpen = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.cancelOpen = nil
		m.mu.Unlock()
		cancel()
	}()

	m.closeCurrent()

	lockPath := filelock.LockPath(path)
	log := m.logger.WithCase(path)

	handle, err := m.locker.TryAcquire(ctx, lockPath, m.timeout)
	switch {
	case err == nil:
		return m.begin(path, lockPath, ExclusiveWrite, handle), nil

	case errors.Is(err, errors.ErrLockTimeout):
		log.Info("case file is locked by another process", "lock", lockPath)
		decision := m.decide(ctx, decider, Conflict{Path: path, LockPath: lockPath, Waited: m.timeout})
		if decision != DecisionReadOnly {
			m.emit(Event{Type: EventDeclined, Path: path, Mode: Unopened, Detail: decision.String()})
			return nil, errors.NewLockError("open", path, fmt.Errorf("%w: %w", errors.ErrOpenCanceled, err))
		}
		return m.begin(path, lockPath, ReadOnly, nil), nil

	case errors.Is(err, errors.ErrOpenCanceled):
		log.Info("open interrupted while waiting for the lock")
		m.emit(Event{Type: EventDeclined, Path: path, Mode: Unopened, Detail: DecisionCancel.String()})
		return nil, errors.NewLockError("open", path, err)

	default:
		lockErr := errors.NewLockError("acquire", path, err)
		log.Error("failed to acquire lock", "error", err.Error(), "kind", lockErr.Kind().String())
		m.emit(Event{Type: EventOpenFailed, Path: path, Mode: Unopened, Detail: err.Error()})
		return nil, lockErr
	}
}

func (m *Manager) decide(ctx context.Context, decider Decider, c Conflict) Decision {
	if decider == nil {
		return DecisionCancel
	}
	d, err := decider.ResolveConflict(ctx, c)
	if err == nil && ctx.Err() != nil {
		// Interrupted after the answer was given.
		err = ctx.Err()
	}
	if err != nil {
		m.logger.WithCase(c.Path).Warn("conflict decision failed, canceling open", "error", err.Error())
		return DecisionCancel
	}
	if d != DecisionReadOnly {
		return DecisionCancel
	}
	return d
}

func (m *Manager) begin(path, lockPath string, mode Mode, handle filelock.Handle) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Path:     path,
		LockPath: lockPath,
		Mode:     mode,
		OpenedAt: time.Now(),
	}

	m.mu.Lock()
	m.current = s
	m.handle = handle
	m.mu.Unlock()

	m.logger.WithCase(path).WithSession(s.ID).WithMode(mode.String()).Info("case session opened")
	m.emit(Event{Type: EventOpened, SessionID: s.ID, Path: path, Mode: mode})
	return s
}

// Interrupt aborts an Open that is waiting for the lock or for the decider.
// The interrupted Open cancels and leaves no session behind. It is a no-op
// when no Open is running.
func (m *Manager) Interrupt() {
	m.mu.RLock()
	cancel := m.cancelOpen
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
}

// Close ends the current session and releases its lock if one is held.
// It is a no-op when nothing is open. Release failures are logged and
// reported to observers as EventReleaseFailed, never returned.
func (m *Manager) Close() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.closeCurrent()
}

// Release closes s if it is still the current session. Use it to end a
// specific session without tearing down one opened after it.
func (m *Manager) Release(s *Session) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.IsCurrent(s) {
		m.closeCurrent()
	}
}

// closeCurrent tears down the current session. The caller must hold opMu.
func (m *Manager) closeCurrent() {
	m.mu.Lock()
	s, handle := m.current, m.handle
	m.current, m.handle = nil, nil
	m.mu.Unlock()

	if s == nil {
		return
	}

	log := m.logger.WithCase(s.Path).WithSession(s.ID)
	if handle != nil {
		if err := handle.Release(); err != nil {
			log.Error("failed to release lock", "lock", s.LockPath, "error", err.Error(),
				"kind", errors.KindLockRelease.String())
			m.emit(Event{Type: EventReleaseFailed, SessionID: s.ID, Path: s.Path, Mode: s.Mode, Detail: err.Error()})
		} else {
			log.Info("case lock released")
		}
	}
	m.emit(Event{Type: EventClosed, SessionID: s.ID, Path: s.Path, Mode: s.Mode})
}

// Scope opens path, runs fn with the session, and closes the session on
// every exit path including panics. The open error is returned unchanged.
func (m *Manager) Scope(ctx context.Context, path string, decider Decider, fn func(*Session) error) error {
	s, err := m.Open(ctx, path, decider)
	if err != nil {
		return err
	}
	defer m.Release(s)

	return fn(s)
}

// Current returns the open session, or nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Mode returns the current session's mode, or Unopened.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Unopened
	}
	return m.current.Mode
}

// IsCurrent reports whether s is the open session.
func (m *Manager) IsCurrent(s *Session) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return s != nil && m.current == s
}

// HoldsLock reports whether this process currently holds a case lock.
func (m *Manager) HoldsLock() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle != nil
}

// RequireWrite checks that s is the current session and holds the lock.
// Mutating commands call it before any I/O.
func (m *Manager) RequireWrite(s *Session, op string) error {
	if !m.IsCurrent(s) {
		path := ""
		if s != nil {
			path = s.Path
		}
		return errors.NewCaseError(op, errors.ErrNoSession).WithPath(path)
	}
	if !s.CanWrite() {
		m.emit(Event{Type: EventWriteDenied, SessionID: s.ID, Path: s.Path, Mode: s.Mode, Detail: op})
		return errors.NewCaseError(op, errors.ErrReadOnlyWrite).WithPath(s.Path)
	}
	return nil
}

// LockAside acquires the lock of another case file for a one-shot write,
// such as an export, without touching the current session. There is no
// read-only fallback: contention returns an error of kind
// errors.KindLockTimeout. The caller must release the handle.
func (m *Manager) LockAside(ctx context.Context, path string) (filelock.Handle, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if cur := m.Current(); cur != nil && cur.Path == path {
		return nil, errors.NewValidationError("path", path, "target is the open case file")
	}

	handle, err := m.locker.TryAcquire(ctx, filelock.LockPath(path), m.timeout)
	if err != nil {
		return nil, errors.NewLockError("acquire", path, err)
	}
	m.logger.WithCase(path).Debug("acquired export lock")
	return handle, nil
}

// Notify records a session event on behalf of a command layer, such as a save.
func (m *Manager) Notify(s *Session, t EventType, detail string) {
	if s == nil {
		return
	}
	m.emit(Event{Type: t, SessionID: s.ID, Path: s.Path, Mode: s.Mode, Detail: detail})
}

func (m *Manager) emit(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	for _, o := range m.observers {
		o.SessionEvent(e)
	}
}

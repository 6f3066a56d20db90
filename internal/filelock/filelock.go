package filelock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/gofrs/flock"
)

// LockSuffix is appended to a case file path to form its sidecar lock path.
const LockSuffix = ".lock"

// DefaultRetryInterval is how often a contended lock is re-tried within the timeout.
const DefaultRetryInterval = 100 * time.Millisecond

// LockPath returns the sidecar lock path for a case file.
func LockPath(casePath string) string {
	return casePath + LockSuffix
}

// Handle is an acquired lock. It is owned by exactly one session.
type Handle interface {
	// Path returns the sidecar lock path.
	Path() string
	// Release unlocks. Calling it more than once is a no-op.
	Release() error
}

// Locker acquires case file locks with a bounded wait.
type Locker interface {
	// TryAcquire attempts to take the lock at lockPath, retrying until timeout.
	// Contention past the timeout returns an error wrapping errors.ErrLockTimeout;
	// any other failure wraps errors.ErrLockAcquisition.
	TryAcquire(ctx context.Context, lockPath string, timeout time.Duration) (Handle, error)
}

// FlockLocker implements Locker with github.com/gofrs/flock.
type FlockLocker struct {
	retry time.Duration
}

// NewFlockLocker creates a FlockLocker that polls a contended lock every retry.
// A non-positive retry uses DefaultRetryInterval.
func NewFlockLocker(retry time.Duration) *FlockLocker {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	return &FlockLocker{retry: retry}
}

// TryAcquire implements Locker.
func (l *FlockLocker) TryAcquire(ctx context.Context, lockPath string, timeout time.Duration) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrOpenCanceled, err)
	}

	fl := flock.New(lockPath)

	// A zero timeout is a single non-blocking attempt.
	if timeout <= 0 {
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrLockAcquisition, err)
		}
		if !ok {
			return nil, errors.ErrLockTimeout
		}
		return &flockHandle{fl: fl}, nil
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := fl.TryLockContext(tctx, l.retry)
	if ok {
		return &flockHandle{fl: fl}, nil
	}

	switch {
	case ctx.Err() != nil:
		// The caller gave up, not the lock holder.
		return nil, fmt.Errorf("%w: %w", errors.ErrOpenCanceled, ctx.Err())
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: waited %s", errors.ErrLockTimeout, timeout)
	default:
		return nil, fmt.Errorf("%w: %w", errors.ErrLockAcquisition, err)
	}
}

// Probe reports whether the lock at lockPath is currently held by someone else.
// It takes and immediately releases the lock when it is free.
func Probe(lockPath string) (held bool, err error) {
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("%w: %w", errors.ErrLockAcquisition, err)
	}
	if !ok {
		return true, nil
	}
	if err := fl.Unlock(); err != nil {
		return false, fmt.Errorf("%w: %w", errors.ErrLockRelease, err)
	}
	return false, nil
}

type flockHandle struct {
	mu       sync.Mutex
	fl       *flock.Flock
	released bool
}

func (h *flockHandle) Path() string {
	return h.fl.Path()
}

func (h *flockHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	h.released = true

	if err := h.fl.Unlock(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrLockRelease, err)
	}
	return nil
}

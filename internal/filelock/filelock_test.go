package filelock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/kanvas/internal/errors"
)

func TestLockPath(t *testing.T) {
	if got := LockPath("/cases/acme.xlsx"); got != "/cases/acme.xlsx.lock" {
		t.Errorf("LockPath() = %q, want %q", got, "/cases/acme.xlsx.lock")
	}
}

func TestFlockLocker_AcquireRelease(t *testing.T) {
	lockPath := LockPath(filepath.Join(t.TempDir(), "case.xlsx"))
	locker := NewFlockLocker(10 * time.Millisecond)

	h, err := locker.TryAcquire(context.Background(), lockPath, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if h.Path() != lockPath {
		t.Errorf("Path() = %q, want %q", h.Path(), lockPath)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	// Second release is a no-op.
	if err := h.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	// Lock is free again.
	h2, err := locker.TryAcquire(context.Background(), lockPath, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("re-acquire error = %v", err)
	}
	_ = h2.Release()
}

func TestFlockLocker_ContendedTimesOut(t *testing.T) {
	lockPath := LockPath(filepath.Join(t.TempDir(), "case.xlsx"))
	locker := NewFlockLocker(10 * time.Millisecond)

	holder, err := locker.TryAcquire(context.Background(), lockPath, 0)
	if err != nil {
		t.Fatalf("holder TryAcquire() error = %v", err)
	}
	defer holder.Release()

	start := time.Now()
	_, err = locker.TryAcquire(context.Background(), lockPath, 50*time.Millisecond)
	if !errors.Is(err, errors.ErrLockTimeout) {
		t.Fatalf("TryAcquire() error = %v, want ErrLockTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("returned after %s, want at least the timeout", elapsed)
	}
}

func TestFlockLocker_ZeroTimeoutIsNonBlocking(t *testing.T) {
	lockPath := LockPath(filepath.Join(t.TempDir(), "case.xlsx"))
	locker := NewFlockLocker(0)

	holder, err := locker.TryAcquire(context.Background(), lockPath, 0)
	if err != nil {
		t.Fatalf("holder error = %v", err)
	}
	defer holder.Release()

	if _, err := locker.TryAcquire(context.Background(), lockPath, 0); !errors.Is(err, errors.ErrLockTimeout) {
		t.Errorf("TryAcquire() error = %v, want ErrLockTimeout", err)
	}
}

func TestFlockLocker_CanceledContext(t *testing.T) {
	lockPath := LockPath(filepath.Join(t.TempDir(), "case.xlsx"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFlockLocker(0).TryAcquire(ctx, lockPath, time.Second)
	if !errors.Is(err, errors.ErrOpenCanceled) {
		t.Errorf("TryAcquire() error = %v, want ErrOpenCanceled", err)
	}
	if errors.Is(err, errors.ErrLockTimeout) {
		t.Error("cancellation must not be reported as a lock timeout")
	}
}

func TestFlockLocker_MissingDirectory(t *testing.T) {
	lockPath := LockPath(filepath.Join(t.TempDir(), "no", "such", "dir", "case.xlsx"))

	_, err := NewFlockLocker(0).TryAcquire(context.Background(), lockPath, 50*time.Millisecond)
	if !errors.Is(err, errors.ErrLockAcquisition) {
		t.Fatalf("TryAcquire() error = %v, want ErrLockAcquisition", err)
	}
	if errors.KindOf(errors.NewLockError("acquire", lockPath, err)) != errors.KindLockAcquisition {
		t.Error("expected acquisition kind")
	}
}

func TestProbe(t *testing.T) {
	lockPath := LockPath(filepath.Join(t.TempDir(), "case.xlsx"))

	held, err := Probe(lockPath)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if held {
		t.Error("Probe() on free lock = held")
	}

	h, err := NewFlockLocker(0).TryAcquire(context.Background(), lockPath, 0)
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	defer h.Release()

	held, err = Probe(lockPath)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !held {
		t.Error("Probe() on held lock = free")
	}
}

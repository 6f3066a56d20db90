// Package filelock provides the advisory lock primitive that guards a Kanvas
// case workbook against concurrent writers.
//
// A case file at path P is guarded by a sidecar lock file at P + ".lock",
// managed by github.com/gofrs/flock (flock(2) on Unix, LockFileEx on Windows).
// The sidecar's contents are opaque and it is left on disk after release.
//
// # Advisory Semantics
//
// The lock is cooperative: it only excludes processes that also take it.
// A program that writes the workbook without checking the lock can still
// corrupt it. Kanvas documents this rather than compensating for it.
//
// Staleness is whatever the OS provides: a flock is dropped when the owning
// process exits, so a crashed holder leaves only an unlocked sidecar file.
// No extra stale-lock detection is layered on top.
//
// # Basic Usage
//
//	locker := filelock.NewFlockLocker(100 * time.Millisecond)
//
//	h, err := locker.TryAcquire(ctx, filelock.LockPath(casePath), time.Second)
//	if errors.Is(err, errors.ErrLockTimeout) {
//		// held elsewhere
//	}
//	defer h.Release()
package filelock

// Package session implements the single-writer case file session manager.
//
// A [Manager] owns at most one open [Session] per process. Opening a case
// first releases any session already held, then tries the case's sidecar lock
// for a short, bounded time:
//
//   - lock acquired: the session is [ExclusiveWrite]
//   - lock held elsewhere: a [Decider] chooses [DecisionReadOnly] or
//     [DecisionCancel]; cancel is the default for anything unexpected
//   - any other lock failure: the open is aborted and the error returned
//
// The mode is fixed for the lifetime of a session. Switching files always
// closes and re-opens; it never changes a mode in place.
//
// [Manager.Close] is idempotent and never fails: release errors are logged and
// reported to observers but not returned, so shutdown cannot be blocked by the
// lock. [Manager.Scope] wraps open/close in a guard that releases on every exit
// path, including panics.
//
// Locking is advisory. Only processes that take the same lock are excluded.
package session

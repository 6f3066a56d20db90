package registry

import (
	"fmt"
	"sort"
	"sync"
)

// ViewKind identifies a kind of view. At most one view of each kind is open.
type ViewKind string

// View kinds used by the case browser.
const (
	ViewBrowser  ViewKind = "browser"
	ViewSystems  ViewKind = "systems"
	ViewUsers    ViewKind = "users"
	ViewEditor   ViewKind = "editor"
	ViewConfirm  ViewKind = "confirm"
	ViewConflict ViewKind = "conflict"
)

// Handle is an open view.
type Handle interface {
	// Focus brings the view to the front.
	Focus()
	// Close disposes of the view. The registry calls it at most once.
	Close() error
}

// Factory creates a view of a kind that is not open yet.
type Factory func() (Handle, error)

// ErrNotOpen is returned when no view of the requested kind is open.
var ErrNotOpen = fmt.Errorf("view not open")

// Views is a keyed registry of open views. It replaces one "is this window
// already open" variable per view type. It is safe for concurrent use.
type Views struct {
	mu     sync.RWMutex
	open   map[ViewKind]Handle
	order  []ViewKind // focus order, most recent last
	onOpen []func(ViewKind)
}

// NewViews creates an empty registry.
func NewViews() *Views {
	return &Views{open: make(map[ViewKind]Handle)}
}

// OnOpen registers a callback invoked, outside the lock, after a view is created.
func (v *Views) OnOpen(fn func(ViewKind)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onOpen = append(v.onOpen, fn)
}

// Open returns the open view of kind, focusing it, or creates one with
// factory. created reports which happened. The factory runs under the
// registry lock and must not call back into v.
func (v *Views) Open(kind ViewKind, factory Factory) (h Handle, created bool, err error) {
	v.mu.Lock()
	if existing, ok := v.open[kind]; ok {
		v.touchLocked(kind)
		v.mu.Unlock()
		existing.Focus()
		return existing, false, nil
	}

	h, err = factory()
	if err != nil {
		v.mu.Unlock()
		return nil, false, fmt.Errorf("open %s view: %w", kind, err)
	}
	v.open[kind] = h
	v.touchLocked(kind)
	handlers := append([]func(ViewKind){}, v.onOpen...)
	v.mu.Unlock()

	for _, fn := range handlers {
		fn(kind)
	}
	return h, true, nil
}

// Focus brings the view of kind to the front.
func (v *Views) Focus(kind ViewKind) error {
	v.mu.Lock()
	h, ok := v.open[kind]
	if ok {
		v.touchLocked(kind)
	}
	v.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, kind)
	}
	h.Focus()
	return nil
}

// Close closes and forgets the view of kind. Closing a view that is not open
// is a no-op.
func (v *Views) Close(kind ViewKind) error {
	v.mu.Lock()
	h, ok := v.open[kind]
	if ok {
		v.removeLocked(kind)
	}
	v.mu.Unlock()

	if !ok {
		return nil
	}
	return h.Close()
}

// CloseAll closes every open view, most recently focused first, and returns
// the first error.
func (v *Views) CloseAll() error {
	v.mu.Lock()
	kinds := append([]ViewKind{}, v.order...)
	handles := make([]Handle, len(kinds))
	for i, k := range kinds {
		handles[i] = v.open[k]
	}
	v.open = make(map[ViewKind]Handle)
	v.order = nil
	v.mu.Unlock()

	var firstErr error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := handles[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Active returns the most recently focused view kind, or "" when none is open.
func (v *Views) Active() ViewKind {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.order) == 0 {
		return ""
	}
	return v.order[len(v.order)-1]
}

// Get returns the open view of kind.
func (v *Views) Get(kind ViewKind) (Handle, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	h, ok := v.open[kind]
	return h, ok
}

// IsOpen reports whether a view of kind is open.
func (v *Views) IsOpen(kind ViewKind) bool {
	_, ok := v.Get(kind)
	return ok
}

// Kinds returns the open view kinds sorted by name.
func (v *Views) Kinds() []ViewKind {
	v.mu.RLock()
	defer v.mu.RUnlock()
	kinds := make([]ViewKind, 0, len(v.open))
	for k := range v.open {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (v *Views) touchLocked(kind ViewKind) {
	v.removeOrderLocked(kind)
	v.order = append(v.order, kind)
}

func (v *Views) removeLocked(kind ViewKind) {
	delete(v.open, kind)
	v.removeOrderLocked(kind)
}

func (v *Views) removeOrderLocked(kind ViewKind) {
	for i, k := range v.order {
		if k == kind {
			v.order = append(v.order[:i], v.order[i+1:]...)
			return
		}
	}
}

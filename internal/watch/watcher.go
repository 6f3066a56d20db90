// Package watch reports on-disk changes to an open case file, so a
// read-only session can offer to reload after the lock holder saves.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/kanvas/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 250 * time.Millisecond

// relevantOps are the operations that can change a case file's contents.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Change describes a coalesced modification of the watched file.
type Change struct {
	Path string
	Op   fsnotify.Op // union of the operations seen in the debounce window
	At   time.Time
}

// Removed reports whether the file was removed or renamed away.
func (c Change) Removed() bool {
	return c.Op.Has(fsnotify.Remove) || (c.Op.Has(fsnotify.Rename) && !c.Op.Has(fsnotify.Create))
}

// Watcher watches a single case file.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(Change)
	logger   *logging.Logger

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window. Non-positive values use DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher for path. onChange runs on the watcher goroutine and
// must not block. The parent directory is watched rather than the file so
// that saves which replace the file are still seen.
func New(path string, onChange func(Change), opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   logging.NopLogger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins delivering changes. Calls after the first do nothing.
func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.loop()
	})
}

// Stop stops the watcher and, if it was started, waits for the loop to exit,
// so no onChange call runs after Stop returns. It is safe to call more than
// once but must not be called from onChange.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.doneCh
	}
}

// Done is closed when the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) loop() {
	defer close(w.doneCh)

	timer := time.NewTimer(0)
	<-timer.C

	var pending fsnotify.Op
	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 || filepath.Clean(event.Name) != w.path {
				continue
			}
			pending |= event.Op
			timer.Reset(w.debounce)

		case <-timer.C:
			if pending == 0 {
				continue
			}
			change := Change{Path: w.path, Op: pending, At: time.Now()}
			pending = 0
			w.logger.WithCase(w.path).Debug("case file changed on disk", "op", change.Op.String())
			if w.onChange != nil {
				w.onChange(change)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithCase(w.path).Warn("file watcher error", "error", err.Error())
		}
	}
}

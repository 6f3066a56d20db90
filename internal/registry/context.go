// Package registry holds the process-wide services of a Kanvas run: the
// configuration, logger, session manager, journal and open views. A Context
// is created once at startup with Init, passed to the components that need
// it, and torn down with Shutdown.
package registry

import (
	"sync"

	"github.com/Iron-Ham/kanvas/internal/config"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/filelock"
	"github.com/Iron-Ham/kanvas/internal/journal"
	"github.com/Iron-Ham/kanvas/internal/logging"
	"github.com/Iron-Ham/kanvas/internal/session"
)

// Context is the service context for one process.
type Context struct {
	Config   *config.Config
	Logger   *logging.Logger
	Sessions *session.Manager
	Journal  *journal.Journal // nil when the journal is disabled
	Views    *Views

	shutdownOnce sync.Once
	shutdownErr  error
}

// InitOption adjusts how Init builds a Context.
type InitOption func(*initOptions)

type initOptions struct {
	logger    *logging.Logger
	locker    filelock.Locker
	observers []session.Observer
}

// WithLogger uses l instead of building a logger from the config.
func WithLogger(l *logging.Logger) InitOption {
	return func(o *initOptions) {
		o.logger = l
	}
}

// WithLocker replaces the lock primitive of the session manager.
func WithLocker(l filelock.Locker) InitOption {
	return func(o *initOptions) {
		o.locker = l
	}
}

// WithObserver adds a session observer next to the journal.
func WithObserver(obs session.Observer) InitOption {
	return func(o *initOptions) {
		o.observers = append(o.observers, obs)
	}
}

// Init builds the services described by cfg. On error everything created so
// far is closed again.
func Init(cfg *config.Config, opts ...InitOption) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o initOptions
	for _, opt := range opts {
		opt(&o)
	}

	stateDir := cfg.Paths.ResolveStateDir()

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = newLogger(cfg, stateDir)
		if err != nil {
			return nil, errors.Wrap(err, "init logger")
		}
	}

	c := &Context{Config: cfg, Logger: logger, Views: NewViews()}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.ResolvePath(stateDir), logger)
		if err != nil {
			_ = logger.Close()
			return nil, errors.Wrap(err, "init journal")
		}
		c.Journal = j
	}

	locker := o.locker
	if locker == nil {
		locker = filelock.NewFlockLocker(cfg.Session.RetryInterval)
	}

	mopts := []session.Option{
		session.WithLocker(locker),
		session.WithLockTimeout(cfg.Session.LockTimeout),
		session.WithLogger(logger),
	}
	if c.Journal != nil {
		mopts = append(mopts, session.WithObserver(c.Journal))
	}
	for _, obs := range o.observers {
		mopts = append(mopts, session.WithObserver(obs))
	}
	c.Sessions = session.NewManager(mopts...)

	logger.Debug("service context initialized", "state_dir", stateDir, "journal", c.Journal != nil)
	return c, nil
}

func newLogger(cfg *config.Config, stateDir string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(stateDir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// Shutdown closes views, ends the session (releasing its lock), and closes
// the journal and logger, in that order. Later calls return the first
// result.
func (c *Context) Shutdown() error {
	c.shutdownOnce.Do(func() {
		var errs []error
		if err := c.Views.CloseAll(); err != nil {
			errs = append(errs, err)
		}
		c.Sessions.Close()
		if c.Journal != nil {
			if err := c.Journal.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.Logger.Debug("service context shut down")
		if err := c.Logger.Close(); err != nil {
			errs = append(errs, err)
		}
		c.shutdownErr = errors.Join(errs...)
	})
	return c.shutdownErr
}

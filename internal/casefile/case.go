// Package casefile is the command layer over an open case: it ties a
// session to its workbook and enforces that nothing mutates a case unless the
// session holds the lock.
package casefile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/logging"
	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/Iron-Ham/kanvas/internal/workbook"
)

// Case is an open case file.
type Case struct {
	mu       sync.RWMutex
	mgr      *session.Manager
	sess     *session.Session
	wb       *workbook.Workbook
	logger   *logging.Logger
	timeline string
}

// Option configures a Case.
type Option func(*Case)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Case) {
		c.logger = l
	}
}

// WithTimelineSheet overrides the sheet used by Systems and Users.
func WithTimelineSheet(name string) Option {
	return func(c *Case) {
		if name != "" {
			c.timeline = name
		}
	}
}

func newCase(mgr *session.Manager, sess *session.Session, opts []Option) *Case {
	c := &Case{
		mgr:      mgr,
		sess:     sess,
		logger:   logging.NopLogger(),
		timeline: workbook.SheetTimeline,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithCase(sess.Path).WithSession(sess.ID).WithMode(sess.Mode.String())
	return c
}

// Load opens a session for path and then loads the workbook in the mode the
// session was granted. If the workbook cannot be loaded the session is
// closed again, so a failed Load never leaves a lock behind.
func Load(ctx context.Context, mgr *session.Manager, path string, decider session.Decider, opts ...Option) (*Case, error) {
	sess, err := mgr.Open(ctx, path, decider)
	if err != nil {
		return nil, err
	}

	c := newCase(mgr, sess, opts)
	wb, err := workbook.Open(sess.Path, sess.Mode)
	if err != nil {
		c.logger.Error("failed to load workbook", "error", err.Error())
		mgr.Release(sess)
		return nil, err
	}
	c.wb = wb

	c.logger.Info("case loaded", "sheets", len(wb.Sheets()))
	return c, nil
}

// NewCase creates a case workbook at path, from templatePath when it is set,
// and returns it opened for writing. The destination lock is taken before
// the file is written; a lock held elsewhere cancels the creation.
func NewCase(ctx context.Context, mgr *session.Manager, path, templatePath string, opts ...Option) (*Case, error) {
	sess, err := mgr.Open(ctx, path, session.Always(session.DecisionCancel))
	if err != nil {
		return nil, err
	}

	c := newCase(mgr, sess, opts)
	if err := workbook.Create(sess.Path, templatePath, nil); err != nil {
		c.logger.Error("failed to create case", "error", err.Error())
		mgr.Release(sess)
		return nil, err
	}

	wb, err := workbook.Open(sess.Path, sess.Mode)
	if err != nil {
		mgr.Release(sess)
		return nil, err
	}
	c.wb = wb

	c.logger.Info("case created", "template", templatePath)
	return c, nil
}

// Session returns the session the case was opened under.
func (c *Case) Session() *session.Session {
	return c.sess
}

// Path returns the case file path.
func (c *Case) Path() string {
	return c.sess.Path
}

// Mode returns the session mode.
func (c *Case) Mode() session.Mode {
	return c.sess.Mode
}

// ReadOnly reports whether mutations are refused.
func (c *Case) ReadOnly() bool {
	return !c.sess.CanWrite()
}

// TimelineSheet returns the name of the sheet Systems and Users read.
func (c *Case) TimelineSheet() string {
	return c.timeline
}

// Sheets returns the sheet names in workbook order.
func (c *Case) Sheets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wb.Sheets()
}

// Sheet returns a copy of the named sheet.
func (c *Case) Sheet(name string) (*workbook.Sheet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wb.Sheet(name)
}

// requireWrite refuses op unless the session is current and holds the lock.
// It runs before any workbook I/O.
func (c *Case) requireWrite(op string) error {
	if err := c.mgr.RequireWrite(c.sess, op); err != nil {
		c.logger.Warn("mutation refused", "op", op, "kind", errors.KindOf(err).String())
		return err
	}
	return nil
}

// commit persists the workbook and reports the save to session observers.
func (c *Case) commit(op string) error {
	if err := c.wb.Save(); err != nil {
		c.logger.Error("failed to save case", "op", op, "error", err.Error())
		return err
	}
	c.mgr.Notify(c.sess, session.EventSaved, op)
	c.logger.Info("case saved", "op", op)
	return nil
}

func (c *Case) checkWidth(op, sheet string, values []string) error {
	s, err := c.wb.Sheet(sheet)
	if err != nil {
		return err
	}
	if len(s.Headers) > 0 && len(values) > len(s.Headers) {
		return errors.NewCaseError(op, errors.ErrInvalidInput).WithPath(c.sess.Path).WithSheet(sheet).
			WithMessage(fmt.Sprintf("%d values for %d columns", len(values), len(s.Headers)))
	}
	return nil
}

// AddRow appends a data row to sheet and saves the case. It returns the new
// row's data index.
func (c *Case) AddRow(sheet string, values []string) (int, error) {
	if err := c.requireWrite("add_row"); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkWidth("add_row", sheet, values); err != nil {
		return 0, err
	}
	idx, err := c.wb.Append(sheet, values)
	if err != nil {
		return 0, err
	}
	return idx, c.commit("add_row")
}

// EditRow replaces data row index of sheet and saves the case.
func (c *Case) EditRow(sheet string, index int, values []string) error {
	if err := c.requireWrite("edit_row"); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkWidth("edit_row", sheet, values); err != nil {
		return err
	}
	if err := c.wb.SetRow(sheet, index, values); err != nil {
		return err
	}
	return c.commit("edit_row")
}

// DeleteRows removes data rows from sheet and saves the case.
func (c *Case) DeleteRows(sheet string, indexes []int) error {
	if err := c.requireWrite("delete_rows"); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.wb.DeleteRows(sheet, indexes); err != nil {
		return err
	}
	return c.commit("delete_rows")
}

// Save writes the case back to disk.
func (c *Case) Save() error {
	if err := c.requireWrite("save"); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit("save")
}

// Reload re-reads the workbook from disk in the session's mode. Read-only
// sessions use it to pick up changes saved by the lock holder.
func (c *Case) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mgr.IsCurrent(c.sess) {
		return errors.NewCaseError("reload", errors.ErrNoSession).WithPath(c.sess.Path)
	}

	wb, err := workbook.Open(c.sess.Path, c.sess.Mode)
	if err != nil {
		return err
	}
	old := c.wb
	c.wb = wb
	if err := old.Close(); err != nil {
		c.logger.Warn("failed to close previous workbook", "error", err.Error())
	}
	c.logger.Info("case reloaded")
	return nil
}

// Close closes the workbook and ends the session. It is safe to call more
// than once.
func (c *Case) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.wb != nil {
		err = c.wb.Close()
	}
	c.mgr.Release(c.sess)
	return err
}

// Systems returns the unique, trimmed, non-empty values of the Event System
// and Remote System columns of the timeline sheet, sorted. Either column may
// be missing but not both.
func (c *Case) Systems() ([]string, error) {
	sheet, err := c.timelineSheet()
	if err != nil {
		return nil, err
	}

	cols := columns(sheet, workbook.ColEventSystem, workbook.ColRemoteSystem)
	if len(cols) == 0 {
		return nil, errors.NewCaseError("systems", errors.ErrColumnNotFound).WithPath(c.sess.Path).WithSheet(sheet.Name).
			WithMessage(fmt.Sprintf("neither %q nor %q found", workbook.ColEventSystem, workbook.ColRemoteSystem))
	}
	return uniqueValues(sheet, cols), nil
}

// Users returns the unique, trimmed, non-empty values of the Suspect Account
// column of the timeline sheet, sorted.
func (c *Case) Users() ([]string, error) {
	sheet, err := c.timelineSheet()
	if err != nil {
		return nil, err
	}

	cols := columns(sheet, workbook.ColSuspectAccount)
	if len(cols) == 0 {
		return nil, errors.NewCaseError("users", errors.ErrColumnNotFound).WithPath(c.sess.Path).WithSheet(sheet.Name).
			WithMessage(fmt.Sprintf("%q not found", workbook.ColSuspectAccount))
	}
	return uniqueValues(sheet, cols), nil
}

func (c *Case) timelineSheet() (*workbook.Sheet, error) {
	return c.Sheet(c.timeline)
}

func columns(sheet *workbook.Sheet, names ...string) []int {
	var cols []int
	for _, name := range names {
		if idx := sheet.Column(name); idx >= 0 {
			cols = append(cols, idx)
		}
	}
	return cols
}

func uniqueValues(sheet *workbook.Sheet, cols []int) []string {
	seen := make(map[string]struct{})
	for _, row := range sheet.Rows {
		for _, col := range cols {
			if v := strings.TrimSpace(row[col]); v != "" {
				seen[v] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

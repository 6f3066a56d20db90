package casefile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/kanvas/internal/defang"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/workbook"
	"github.com/gobwas/glob"
)

// AllSheets selects every sheet.
const AllSheets = "*"

// DefangReport summarizes a defang pass.
type DefangReport struct {
	Output string         `json:"output"`
	Sheets []string       `json:"sheets"`
	Cells  map[string]int `json:"cells"`
}

// Total returns the number of changed cells across all sheets.
func (r *DefangReport) Total() int {
	n := 0
	for _, c := range r.Cells {
		n += c
	}
	return n
}

// SanitizedPath returns the default export path for a case, "name_sanitized.xlsx".
func SanitizedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_sanitized" + workbook.Ext(ext)
}

// selectSheets returns the sheets matching pattern, in workbook order.
func selectSheets(sheets []string, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = AllSheets
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("sheets", pattern, "invalid sheet pattern: "+err.Error())
	}

	var out []string
	for _, s := range sheets {
		if g.Match(s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewCaseError("defang", errors.ErrSheetNotFound).WithMessage("no sheet matches " + pattern)
	}
	return out, nil
}

func defangSheets(wb *workbook.Workbook, sheets []string, report *DefangReport) error {
	for _, name := range sheets {
		n, err := wb.MapCells(name, defang.Text)
		if err != nil {
			return err
		}
		report.Cells[name] = n
	}
	return nil
}

// Sanitize defangs the selected sheets of the open case in place and saves it.
func (c *Case) Sanitize(pattern string) (*DefangReport, error) {
	if err := c.requireWrite("sanitize"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sheets, err := selectSheets(c.wb.Sheets(), pattern)
	if err != nil {
		return nil, err
	}

	report := &DefangReport{Output: c.sess.Path, Sheets: sheets, Cells: make(map[string]int)}
	if err := defangSheets(c.wb, sheets, report); err != nil {
		return nil, err
	}
	if err := c.commit("sanitize"); err != nil {
		return nil, err
	}
	c.logger.Info("case sanitized", "cells", report.Total())
	return report, nil
}

// ExportOption configures DefangTo.
type ExportOption func(*exportOptions)

type exportOptions struct {
	overwrite bool
}

// WithOverwrite lets DefangTo replace an existing destination file.
func WithOverwrite(overwrite bool) ExportOption {
	return func(o *exportOptions) {
		o.overwrite = overwrite
	}
}

// DefangTo writes a defanged copy of the case to out. It works from read-only
// sessions too: the source is read from disk and never written, and the
// destination is written under its own lock. The current session is kept.
// An existing destination is refused with fs.ErrExist unless WithOverwrite
// is given.
func (c *Case) DefangTo(ctx context.Context, out, pattern string, opts ...ExportOption) (*DefangReport, error) {
	var o exportOptions
	for _, opt := range opts {
		opt(&o)
	}

	if out == "" {
		out = SanitizedPath(c.sess.Path)
	}
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}

	handle, err := c.mgr.LockAside(ctx, out)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := handle.Release(); err != nil {
			c.logger.Warn("failed to release export lock", "output", out, "error", err.Error())
		}
	}()

	// Checked under the destination lock so a concurrent export cannot slip in.
	if !o.overwrite {
		if _, err := os.Stat(out); err == nil {
			return nil, errors.NewCaseError("defang", fs.ErrExist).WithPath(out).WithMessage("destination already exists")
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewCaseError("defang", err).WithPath(out)
		}
	}

	src, err := workbook.OpenDetached(c.sess.Path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sheets, err := selectSheets(src.Sheets(), pattern)
	if err != nil {
		return nil, err
	}

	report := &DefangReport{Output: out, Sheets: sheets, Cells: make(map[string]int)}
	if err := defangSheets(src, sheets, report); err != nil {
		return nil, err
	}
	if err := src.SaveAs(out); err != nil {
		return nil, err
	}

	c.logger.Info("defanged copy written", "output", out, "cells", report.Total())
	return report, nil
}

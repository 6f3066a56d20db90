package workbook

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/xuri/excelize/v2"
)

// Sheet is a copy of one worksheet's contents. Every row has exactly
// len(Headers) cells.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Column returns the index of the header equal to name, or -1.
func (s *Sheet) Column(name string) int {
	return slices.Index(s.Headers, name)
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	return len(s.Rows)
}

// Workbook is a loaded case workbook. It is safe for concurrent use.
type Workbook struct {
	mu       sync.RWMutex
	path     string
	mode     session.Mode
	file     *excelize.File    // nil for read-only workbooks
	sheets   []string          // sheet order as stored
	snapshot map[string]*Sheet // read-only contents
	detached bool              // mutable copy that may only be saved elsewhere
}

// Open loads the workbook at path for the given session mode. ExclusiveWrite
// keeps the file open for mutation; ReadOnly streams a snapshot and closes
// the file. Opening with Unopened is an error.
func Open(path string, mode session.Mode) (*Workbook, error) {
	switch mode {
	case session.ExclusiveWrite:
		return openFull(path)
	case session.ReadOnly:
		return openSnapshot(path)
	default:
		return nil, errors.NewCaseError("load", errors.ErrNoSession).WithPath(path)
	}
}

func openFull(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewCaseError("load", err).WithPath(path).WithMessage("failed to open workbook")
	}
	return &Workbook{
		path:   path,
		mode:   session.ExclusiveWrite,
		file:   f,
		sheets: f.GetSheetList(),
	}, nil
}

// OpenDetached loads path as a mutable in-memory copy for exports. It needs
// no lock on path: Save is refused and SaveAs must target another file.
func OpenDetached(path string) (*Workbook, error) {
	wb, err := openFull(path)
	if err != nil {
		return nil, err
	}
	wb.detached = true
	return wb, nil
}

func openSnapshot(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewCaseError("load", err).WithPath(path).WithMessage("failed to open workbook")
	}
	defer f.Close()

	wb := &Workbook{
		path:     path,
		mode:     session.ReadOnly,
		sheets:   f.GetSheetList(),
		snapshot: make(map[string]*Sheet),
	}

	for _, name := range wb.sheets {
		raw, err := streamRows(f, name)
		if err != nil {
			return nil, errors.NewCaseError("load", err).WithPath(path).WithSheet(name).WithMessage("failed to read sheet")
		}
		wb.snapshot[name] = buildSheet(name, raw)
	}
	return wb, nil
}

// streamRows reads a sheet with the row iterator instead of loading the
// whole sheet model.
func streamRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		out = append(out, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildSheet turns raw rows into a Sheet. Blank headers become "Column N"
// and ragged rows are padded to the widest row.
func buildSheet(name string, raw [][]string) *Sheet {
	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}

	s := &Sheet{Name: name, Headers: make([]string, width)}
	var header []string
	if len(raw) > 0 {
		header = raw[0]
	}
	for i := range width {
		if i < len(header) && header[i] != "" {
			s.Headers[i] = header[i]
		} else {
			s.Headers[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	if len(raw) > 1 {
		s.Rows = make([][]string, 0, len(raw)-1)
		for _, r := range raw[1:] {
			s.Rows = append(s.Rows, pad(r, width))
		}
	}
	return s
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Path returns the file the workbook was loaded from.
func (w *Workbook) Path() string {
	return w.path
}

// Mode returns the mode the workbook was opened with.
func (w *Workbook) Mode() session.Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

// ReadOnly reports whether the workbook rejects mutation.
func (w *Workbook) ReadOnly() bool {
	return w.Mode() != session.ExclusiveWrite
}

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.sheets)
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.sheets, name)
}

// Sheet returns a copy of the named sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !slices.Contains(w.sheets, name) {
		return nil, errors.NewCaseError("read", errors.ErrSheetNotFound).WithPath(w.path).WithSheet(name)
	}

	if w.file == nil {
		snap, ok := w.snapshot[name]
		if !ok {
			return nil, errors.NewCaseError("read", errors.ErrNoSession).WithPath(w.path).WithSheet(name)
		}
		return cloneSheet(snap), nil
	}

	raw, err := w.file.GetRows(name)
	if err != nil {
		return nil, errors.NewCaseError("read", err).WithPath(w.path).WithSheet(name)
	}
	return buildSheet(name, raw), nil
}

func cloneSheet(s *Sheet) *Sheet {
	c := &Sheet{Name: s.Name, Headers: slices.Clone(s.Headers), Rows: make([][]string, len(s.Rows))}
	for i, r := range s.Rows {
		c.Rows[i] = slices.Clone(r)
	}
	return c
}

// writable returns the open file or the read-only error for op. The caller
// must hold w.mu.
func (w *Workbook) writable(op, sheet string) (*excelize.File, error) {
	if w.file == nil {
		if w.mode == session.ReadOnly {
			return nil, errors.NewCaseError(op, errors.ErrReadOnlyWrite).WithPath(w.path).WithSheet(sheet)
		}
		return nil, errors.NewCaseError(op, errors.ErrNoSession).WithPath(w.path).WithSheet(sheet)
	}
	if sheet != "" && !slices.Contains(w.sheets, sheet) {
		return nil, errors.NewCaseError(op, errors.ErrSheetNotFound).WithPath(w.path).WithSheet(sheet)
	}
	return w.file, nil
}

// dataRows returns the number of data rows in sheet. The caller must hold w.mu.
func (w *Workbook) dataRows(f *excelize.File, sheet string) (int, error) {
	raw, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	return max(len(raw)-1, 0), nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// Append adds a data row after the last row of sheet and returns its data
// index. The change is in memory until Save.
func (w *Workbook) Append(sheet string, values []string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.writable("append", sheet)
	if err != nil {
		return 0, err
	}

	n, err := w.dataRows(f, sheet)
	if err != nil {
		return 0, errors.NewCaseError("append", err).WithPath(w.path).WithSheet(sheet)
	}

	cell, err := excelize.CoordinatesToCellName(1, FirstDataRow+n)
	if err != nil {
		return 0, errors.NewCaseError("append", err).WithPath(w.path).WithSheet(sheet)
	}
	cells := toCells(values)
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return 0, errors.NewCaseError("append", err).WithPath(w.path).WithSheet(sheet)
	}
	return n, nil
}

// SetRow replaces data row index of sheet. Cells beyond len(values) up to
// the existing row width are cleared.
func (w *Workbook) SetRow(sheet string, index int, values []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.writable("edit", sheet)
	if err != nil {
		return err
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return errors.NewCaseError("edit", err).WithPath(w.path).WithSheet(sheet)
	}
	n := max(len(raw)-1, 0)
	if index < 0 || index >= n {
		return errors.NewCaseError("edit", errors.ErrRowOutOfRange).WithPath(w.path).WithSheet(sheet).
			WithMessage(fmt.Sprintf("row %d of %d", index, n))
	}

	width := len(values)
	for _, r := range raw {
		width = max(width, len(r))
	}

	cell, err := excelize.CoordinatesToCellName(1, FirstDataRow+index)
	if err != nil {
		return errors.NewCaseError("edit", err).WithPath(w.path).WithSheet(sheet)
	}
	cells := toCells(pad(values, width))
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return errors.NewCaseError("edit", err).WithPath(w.path).WithSheet(sheet)
	}
	return nil
}

// DeleteRows removes the given data rows from sheet. Indexes are validated
// before anything changes and removed from the highest down so earlier
// removals do not shift later ones. Duplicates are ignored.
func (w *Workbook) DeleteRows(sheet string, indexes []int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.writable("delete", sheet)
	if err != nil {
		return err
	}
	if len(indexes) == 0 {
		return errors.NewCaseError("delete", errors.ErrInvalidInput).WithPath(w.path).WithSheet(sheet).
			WithMessage("no rows selected")
	}

	n, err := w.dataRows(f, sheet)
	if err != nil {
		return errors.NewCaseError("delete", err).WithPath(w.path).WithSheet(sheet)
	}

	sorted := slices.Clone(indexes)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	sorted = slices.Compact(sorted)

	for _, idx := range sorted {
		if idx < 0 || idx >= n {
			return errors.NewCaseError("delete", errors.ErrRowOutOfRange).WithPath(w.path).WithSheet(sheet).
				WithMessage(fmt.Sprintf("row %d of %d", idx, n))
		}
	}
	for _, idx := range sorted {
		if err := f.RemoveRow(sheet, FirstDataRow+idx); err != nil {
			return errors.NewCaseError("delete", err).WithPath(w.path).WithSheet(sheet)
		}
	}
	return nil
}

// MapCells applies fn to every non-empty cell of sheet, header row included,
// and writes back the cells it changed. It returns the number of changed cells.
func (w *Workbook) MapCells(sheet string, fn func(string) string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.writable("rewrite", sheet)
	if err != nil {
		return 0, err
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return 0, errors.NewCaseError("rewrite", err).WithPath(w.path).WithSheet(sheet)
	}

	changed := 0
	for r, row := range raw {
		for c, v := range row {
			if v == "" {
				continue
			}
			nv := fn(v)
			if nv == v {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return changed, errors.NewCaseError("rewrite", err).WithPath(w.path).WithSheet(sheet)
			}
			if err := f.SetCellValue(sheet, cell, nv); err != nil {
				return changed, errors.NewCaseError("rewrite", err).WithPath(w.path).WithSheet(sheet)
			}
			changed++
		}
	}
	return changed, nil
}

// Save writes the whole workbook back to its path.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.writable("save", "")
	if err != nil {
		return err
	}
	if w.detached {
		return errors.NewCaseError("save", errors.ErrReadOnlyWrite).WithPath(w.path).
			WithMessage("detached copy cannot overwrite its source")
	}
	if err := f.SaveAs(w.path); err != nil {
		return errors.NewCaseError("save", err).WithPath(w.path).WithMessage("failed to save workbook")
	}
	return nil
}

// SaveAs writes the whole workbook to path without changing Path. It is
// used for exports, so it is refused for read-only workbooks as well.
func (w *Workbook) SaveAs(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.writable("save", "")
	if err != nil {
		return err
	}
	if w.detached && samePath(path, w.path) {
		return errors.NewCaseError("save", errors.ErrReadOnlyWrite).WithPath(w.path).
			WithMessage("detached copy cannot overwrite its source")
	}
	if err := f.SaveAs(path); err != nil {
		return errors.NewCaseError("save", err).WithPath(path).WithMessage("failed to save workbook")
	}
	return nil
}

// Close releases the underlying file. It is safe to call more than once.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if w.mode == session.ExclusiveWrite {
		w.mode = session.Unopened
	}
	if err != nil {
		return errors.NewCaseError("close", err).WithPath(w.path)
	}
	return nil
}

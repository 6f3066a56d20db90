// Package workbook reads and writes case workbooks (.xlsx) with excelize.
//
// A workbook is opened in one of two ways, chosen by the session mode:
//
//   - ExclusiveWrite: the whole file is loaded and kept open for mutation.
//     Every change is applied in memory and persisted with Save, which
//     rewrites the file in full.
//   - ReadOnly: each sheet is streamed row by row into an immutable
//     snapshot and the file is closed before Open returns. All mutating
//     methods fail with errors.ErrReadOnlyWrite.
//
// Sheets follow the case layout: row 1 holds the column headers and data
// rows start at row 2. Data rows are addressed by zero-based index, so data
// row 0 is sheet row 2.
package workbook

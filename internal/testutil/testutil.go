// Package testutil provides testing utilities for Kanvas tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"
)

// TimelineHeaders is the header row of a standard Timeline sheet.
var TimelineHeaders = []string{
	"Timestamp", "MITRE Tactic", "MITRE Techniques", "Event System", "Remote System",
	"<->", "Suspect Account", "Activity", "Notes", "Visualize",
}

// Fixture describes one sheet of a test workbook. Rows[0] is the header row.
type Fixture struct {
	Name string
	Rows [][]string
}

// Timeline returns a Timeline fixture with the standard headers followed by rows.
func Timeline(rows ...[]string) Fixture {
	return Fixture{Name: "Timeline", Rows: append([][]string{TimelineHeaders}, rows...)}
}

// TimelineRow builds a Timeline data row from the columns that matter to
// most tests.
func TimelineRow(eventSystem, remoteSystem, account, activity string) []string {
	return []string{"2024-01-02 10:00", "", "", eventSystem, remoteSystem, "->", account, activity, "", "Yes"}
}

// WriteCase creates a workbook named name in dir with the given sheets and
// returns its path. With no sheets it writes a single empty Timeline sheet.
func WriteCase(t *testing.T, dir, name string, sheets ...Fixture) string {
	t.Helper()

	if len(sheets) == 0 {
		sheets = []Fixture{Timeline()}
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, sheet.Name); err != nil {
				t.Fatalf("failed to rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("failed to add sheet %s: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("bad coordinates: %v", err)
			}
			if err := f.SetSheetRow(sheet.Name, cell, &cells); err != nil {
				t.Fatalf("failed to write row %d of %s: %v", r+1, sheet.Name, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

// ReadRows returns the raw rows of a sheet as stored on disk.
func ReadRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("failed to read sheet %s: %v", sheet, err)
	}
	return rows
}

// ReadBytes returns the file contents.
func ReadBytes(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

// AssertUnchanged fails the test if the file at path no longer matches before.
func AssertUnchanged(t *testing.T, path string, before []byte) {
	t.Helper()

	if after := ReadBytes(t, path); !bytes.Equal(before, after) {
		t.Errorf("%s changed on disk (%d bytes before, %d after)", path, len(before), len(after))
	}
}

// HoldLock takes the sidecar lock of casePath the way another Kanvas process
// would, and releases it when the test ends. The returned function releases
// it early.
func HoldLock(t *testing.T, casePath string) (release func()) {
	t.Helper()

	fl := flock.New(casePath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		t.Fatalf("failed to lock %s: %v", casePath, err)
	}
	if !ok {
		t.Fatalf("lock on %s is already held", casePath)
	}

	release = func() { _ = fl.Unlock() }
	t.Cleanup(release)
	return release
}

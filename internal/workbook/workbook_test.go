package workbook

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/Iron-Ham/kanvas/internal/testutil"
)

func writeTimeline(t *testing.T, rows ...[]string) string {
	t.Helper()
	return testutil.WriteCase(t, t.TempDir(), "case.xlsx", testutil.Timeline(rows...),
		testutil.Fixture{Name: "Systems", Rows: [][]string{{"HostName", "IPAddress"}, {"dc01", "10.0.0.1"}}})
}

func openWorkbook(t *testing.T, path string, mode session.Mode) *Workbook {
	t.Helper()
	wb, err := Open(path, mode)
	if err != nil {
		t.Fatalf("Open(%v) error = %v", mode, err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestOpen_BothModesSeeSameContent(t *testing.T) {
	path := writeTimeline(t,
		testutil.TimelineRow("WS01", "DC01", "alice", "logon"),
		testutil.TimelineRow("WS02", "", "bob", "rdp"),
	)

	for _, mode := range []session.Mode{session.ExclusiveWrite, session.ReadOnly} {
		t.Run(mode.String(), func(t *testing.T) {
			wb := openWorkbook(t, path, mode)

			if got := wb.Sheets(); !slices.Equal(got, []string{"Timeline", "Systems"}) {
				t.Errorf("Sheets() = %v", got)
			}
			sheet, err := wb.Sheet("Timeline")
			if err != nil {
				t.Fatalf("Sheet() error = %v", err)
			}
			if sheet.Len() != 2 {
				t.Fatalf("Len() = %d, want 2", sheet.Len())
			}
			if col := sheet.Column(ColSuspectAccount); col < 0 || sheet.Rows[1][col] != "bob" {
				t.Errorf("Suspect Account of row 1 = %v", sheet.Rows[1])
			}
			if wb.ReadOnly() != (mode == session.ReadOnly) {
				t.Errorf("ReadOnly() = %v for %v", wb.ReadOnly(), mode)
			}
		})
	}
}

func TestOpen_UnopenedModeIsRejected(t *testing.T) {
	path := writeTimeline(t)
	if _, err := Open(path, session.Unopened); err == nil {
		t.Error("Open(Unopened) error = nil")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xlsx")
	for _, mode := range []session.Mode{session.ExclusiveWrite, session.ReadOnly} {
		if _, err := Open(missing, mode); errors.KindOf(err) != errors.KindIO {
			t.Errorf("Open(missing, %v) kind = %v, want io", mode, errors.KindOf(err))
		}
	}
}

func TestSheet_RaggedRowsAndBlankHeaders(t *testing.T) {
	path := testutil.WriteCase(t, t.TempDir(), "case.xlsx", testutil.Fixture{
		Name: "Notes",
		Rows: [][]string{
			{"Title"},
			{"a", "extra", "more"},
			{"b"},
		},
	})

	for _, mode := range []session.Mode{session.ExclusiveWrite, session.ReadOnly} {
		t.Run(mode.String(), func(t *testing.T) {
			sheet, err := openWorkbook(t, path, mode).Sheet("Notes")
			if err != nil {
				t.Fatalf("Sheet() error = %v", err)
			}
			want := []string{"Title", "Column 2", "Column 3"}
			if !slices.Equal(sheet.Headers, want) {
				t.Errorf("Headers = %v, want %v", sheet.Headers, want)
			}
			for i, row := range sheet.Rows {
				if len(row) != 3 {
					t.Errorf("row %d has %d cells, want 3", i, len(row))
				}
			}
		})
	}
}

func TestSheet_NotFound(t *testing.T) {
	wb := openWorkbook(t, writeTimeline(t), session.ReadOnly)
	_, err := wb.Sheet("Nope")
	if !errors.Is(err, errors.ErrSheetNotFound) {
		t.Errorf("Sheet() error = %v, want ErrSheetNotFound", err)
	}
}

func TestReadOnly_MutationsFailWithoutTouchingDisk(t *testing.T) {
	path := writeTimeline(t, testutil.TimelineRow("WS01", "", "alice", "logon"))
	before := testutil.ReadBytes(t, path)
	wb := openWorkbook(t, path, session.ReadOnly)

	ops := map[string]func() error{
		"append": func() error { _, err := wb.Append("Timeline", []string{"x"}); return err },
		"edit":   func() error { return wb.SetRow("Timeline", 0, []string{"x"}) },
		"delete": func() error { return wb.DeleteRows("Timeline", []int{0}) },
		"map":    func() error { _, err := wb.MapCells("Timeline", strings.ToUpper); return err },
		"save":   wb.Save,
		"saveas": func() error { return wb.SaveAs(filepath.Join(t.TempDir(), "copy.xlsx")) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, errors.ErrReadOnlyWrite) {
				t.Errorf("error = %v, want ErrReadOnlyWrite", err)
			}
		})
	}
	testutil.AssertUnchanged(t, path, before)
}

func TestAppendAndSave(t *testing.T) {
	path := writeTimeline(t, testutil.TimelineRow("WS01", "", "alice", "logon"))
	wb := openWorkbook(t, path, session.ExclusiveWrite)

	idx, err := wb.Append("Timeline", testutil.TimelineRow("WS09", "DC01", "eve", "psexec"))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if idx != 1 {
		t.Errorf("Append() index = %d, want 1", idx)
	}
	if err := wb.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rows := testutil.ReadRows(t, path, "Timeline")
	if len(rows) != 3 {
		t.Fatalf("on-disk rows = %d, want 3", len(rows))
	}
	if rows[2][3] != "WS09" {
		t.Errorf("appended Event System = %q, want WS09", rows[2][3])
	}
}

func TestSetRow(t *testing.T) {
	path := writeTimeline(t,
		testutil.TimelineRow("WS01", "", "alice", "logon"),
		testutil.TimelineRow("WS02", "", "bob", "rdp"),
	)
	wb := openWorkbook(t, path, session.ExclusiveWrite)

	if err := wb.SetRow("Timeline", 1, []string{"2024-02-02", "TA0008"}); err != nil {
		t.Fatalf("SetRow() error = %v", err)
	}
	sheet, err := wb.Sheet("Timeline")
	if err != nil {
		t.Fatal(err)
	}
	got := sheet.Rows[1]
	if got[0] != "2024-02-02" || got[1] != "TA0008" {
		t.Errorf("row = %v", got)
	}
	if got[6] != "" {
		t.Errorf("trailing cells should be cleared, Suspect Account = %q", got[6])
	}
	if sheet.Rows[0][6] != "alice" {
		t.Error("SetRow changed a different row")
	}

	if err := wb.SetRow("Timeline", 2, []string{"x"}); !errors.Is(err, errors.ErrRowOutOfRange) {
		t.Errorf("SetRow(out of range) error = %v", err)
	}
	if err := wb.SetRow("Timeline", -1, []string{"x"}); !errors.Is(err, errors.ErrRowOutOfRange) {
		t.Errorf("SetRow(-1) error = %v", err)
	}
}

func TestDeleteRows(t *testing.T) {
	var rows [][]string
	for i := range 5 {
		rows = append(rows, testutil.TimelineRow(fmt.Sprintf("WS%02d", i), "", "", ""))
	}

	tests := []struct {
		name    string
		indexes []int
		want    []string
		wantErr error
	}{
		{"single", []int{2}, []string{"WS00", "WS01", "WS03", "WS04"}, nil},
		{"ascending input", []int{0, 1, 4}, []string{"WS02", "WS03"}, nil},
		{"duplicates", []int{3, 3, 1}, []string{"WS00", "WS02", "WS04"}, nil},
		{"out of range changes nothing", []int{1, 9}, []string{"WS00", "WS01", "WS02", "WS03", "WS04"}, errors.ErrRowOutOfRange},
		{"empty selection", nil, []string{"WS00", "WS01", "WS02", "WS03", "WS04"}, errors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := openWorkbook(t, writeTimeline(t, rows...), session.ExclusiveWrite)

			err := wb.DeleteRows("Timeline", tt.indexes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DeleteRows() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("DeleteRows() error = %v", err)
			}

			sheet, err := wb.Sheet("Timeline")
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, r := range sheet.Rows {
				got = append(got, r[3])
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("remaining = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapCells(t *testing.T) {
	path := writeTimeline(t, testutil.TimelineRow("ws01", "", "alice", "logon"))
	wb := openWorkbook(t, path, session.ExclusiveWrite)

	n, err := wb.MapCells("Systems", strings.ToUpper)
	if err != nil {
		t.Fatalf("MapCells() error = %v", err)
	}
	// Both headers and "dc01" change; the IP address does not.
	if n != 3 {
		t.Errorf("changed = %d, want 3", n)
	}
	sheet, _ := wb.Sheet("Systems")
	if sheet.Rows[0][0] != "DC01" {
		t.Errorf("cell = %q, want DC01", sheet.Rows[0][0])
	}
}

func TestSaveAs_LeavesSourceUntouched(t *testing.T) {
	path := writeTimeline(t, testutil.TimelineRow("WS01", "", "alice", "logon"))
	before := testutil.ReadBytes(t, path)
	wb := openWorkbook(t, path, session.ExclusiveWrite)

	if _, err := wb.MapCells("Timeline", strings.ToUpper); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "export.xlsx")
	if err := wb.SaveAs(out); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}

	testutil.AssertUnchanged(t, path, before)
	if rows := testutil.ReadRows(t, out, "Timeline"); rows[1][6] != "ALICE" {
		t.Errorf("exported account = %q, want ALICE", rows[1][6])
	}
	if wb.Path() != path {
		t.Errorf("Path() = %q, want %q", wb.Path(), path)
	}
}

func TestClose_Idempotent(t *testing.T) {
	wb, err := Open(writeTimeline(t), session.ExclusiveWrite)
	if err != nil {
		t.Fatal(err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := wb.Save(); err == nil {
		t.Error("Save() after Close should fail")
	}
}

func TestCreate(t *testing.T) {
	t.Run("blank uses default sheets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.xlsx")
		if err := Create(path, "", nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		wb := openWorkbook(t, path, session.ReadOnly)
		if got := wb.Sheets(); !slices.Equal(got, []string{SheetTimeline, SheetSystems, SheetIndicators}) {
			t.Errorf("Sheets() = %v", got)
		}
		sheet, err := wb.Sheet(SheetTimeline)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(sheet.Headers, DefaultSheets[0].Headers) || sheet.Len() != 0 {
			t.Errorf("Timeline = %+v", sheet)
		}
	})

	t.Run("template is copied", func(t *testing.T) {
		dir := t.TempDir()
		tmpl := testutil.WriteCase(t, dir, "sod.xlsx", testutil.Timeline(testutil.TimelineRow("T", "", "", "")))
		path := filepath.Join(dir, "new.xlsx")
		if err := Create(path, tmpl, nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		testutil.AssertUnchanged(t, path, testutil.ReadBytes(t, tmpl))
	})

	t.Run("refuses existing file", func(t *testing.T) {
		path := writeTimeline(t)
		before := testutil.ReadBytes(t, path)
		if err := Create(path, "", nil); !errors.Is(err, fs.ErrExist) {
			t.Errorf("Create() error = %v, want fs.ErrExist", err)
		}
		testutil.AssertUnchanged(t, path, before)
	})

	t.Run("missing template", func(t *testing.T) {
		dir := t.TempDir()
		if err := Create(filepath.Join(dir, "new.xlsx"), filepath.Join(dir, "nope.xlsx"), nil); err == nil {
			t.Error("Create() with missing template should fail")
		}
	})
}

func TestOpenDetached(t *testing.T) {
	path := writeTimeline(t, testutil.TimelineRow("WS01", "", "alice", "logon"))
	before := testutil.ReadBytes(t, path)

	wb, err := OpenDetached(path)
	if err != nil {
		t.Fatalf("OpenDetached() error = %v", err)
	}
	defer wb.Close()

	if _, err := wb.MapCells("Timeline", strings.ToUpper); err != nil {
		t.Fatalf("MapCells() error = %v", err)
	}
	if err := wb.Save(); !errors.Is(err, errors.ErrReadOnlyWrite) {
		t.Errorf("Save() error = %v, want ErrReadOnlyWrite", err)
	}
	if err := wb.SaveAs(path); !errors.Is(err, errors.ErrReadOnlyWrite) {
		t.Errorf("SaveAs(source) error = %v, want ErrReadOnlyWrite", err)
	}
	if err := wb.SaveAs(filepath.Join(t.TempDir(), "out.xlsx")); err != nil {
		t.Errorf("SaveAs(other) error = %v", err)
	}
	testutil.AssertUnchanged(t, path, before)
}

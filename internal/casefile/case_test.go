package casefile

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/filelock"
	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/Iron-Ham/kanvas/internal/testutil"
	"github.com/Iron-Ham/kanvas/internal/workbook"
)

func newManager() *session.Manager {
	return session.NewManager(
		session.WithLocker(filelock.NewFlockLocker(10*time.Millisecond)),
		session.WithLockTimeout(50*time.Millisecond),
	)
}

func sampleCase(t *testing.T) string {
	t.Helper()
	return testutil.WriteCase(t, t.TempDir(), "case.xlsx",
		testutil.Timeline(
			testutil.TimelineRow("WS01", "DC01", "alice", "logon"),
			testutil.TimelineRow(" DC01 ", "", "bob", "rdp"),
			testutil.TimelineRow("WS02", "10.0.0.5", "alice ", "smb to http://evil.example.com"),
			testutil.TimelineRow("", "", "", "note"),
		),
		testutil.Fixture{Name: "Indicators", Rows: [][]string{
			{"IndicatorType", "Indicator", "Notes"},
			{"EmailAddress", "ceo@corp.example.com", ""},
		}},
	)
}

func loadCase(t *testing.T, mgr *session.Manager, path string, d session.Decider) *Case {
	t.Helper()
	c, err := Load(context.Background(), mgr, path, d)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoad_ExclusiveAndReadOnly(t *testing.T) {
	path := sampleCase(t)

	mgr := newManager()
	c := loadCase(t, mgr, path, nil)
	if c.Mode() != session.ExclusiveWrite || c.ReadOnly() {
		t.Errorf("Mode() = %v, want read-write", c.Mode())
	}

	other := newManager()
	ro := loadCase(t, other, path, session.Always(session.DecisionReadOnly))
	if ro.Mode() != session.ReadOnly || !ro.ReadOnly() {
		t.Errorf("second loader Mode() = %v, want read-only", ro.Mode())
	}
	if got := ro.Sheets(); !slices.Equal(got, []string{"Timeline", "Indicators"}) {
		t.Errorf("Sheets() = %v", got)
	}
}

func TestLoad_FailureClosesSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	mgr := newManager()
	if _, err := Load(context.Background(), mgr, path, nil); err == nil {
		t.Fatal("Load() of a corrupt workbook should fail")
	}
	if mgr.Current() != nil || mgr.HoldsLock() {
		t.Error("failed Load left a session open")
	}
	held, err := filelock.Probe(filelock.LockPath(path))
	if err != nil || held {
		t.Errorf("lock still held after failed Load (held=%v, err=%v)", held, err)
	}
}

func TestLoad_CanceledConflict(t *testing.T) {
	path := sampleCase(t)
	testutil.HoldLock(t, path)

	mgr := newManager()
	_, err := Load(context.Background(), mgr, path, session.Always(session.DecisionCancel))
	if errors.KindOf(err) != errors.KindCanceled {
		t.Errorf("Load() kind = %v, want canceled", errors.KindOf(err))
	}
	if mgr.Mode() != session.Unopened {
		t.Errorf("Mode() = %v, want unopened", mgr.Mode())
	}
}

func TestReadOnly_MutationsLeaveFileIdentical(t *testing.T) {
	path := sampleCase(t)
	testutil.HoldLock(t, path)
	before := testutil.ReadBytes(t, path)

	c := loadCase(t, newManager(), path, session.Always(session.DecisionReadOnly))

	ops := map[string]func() error{
		"add":      func() error { _, err := c.AddRow("Timeline", []string{"x"}); return err },
		"edit":     func() error { return c.EditRow("Timeline", 0, []string{"x"}) },
		"delete":   func() error { return c.DeleteRows("Timeline", []int{0}) },
		"save":     c.Save,
		"sanitize": func() error { _, err := c.Sanitize(AllSheets); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			if !errors.Is(err, errors.ErrReadOnlyWrite) {
				t.Fatalf("error = %v, want ErrReadOnlyWrite", err)
			}
			if errors.KindOf(err) != errors.KindReadOnlyWrite {
				t.Errorf("KindOf() = %v", errors.KindOf(err))
			}
		})
	}
	testutil.AssertUnchanged(t, path, before)
}

func TestMutationsPersist(t *testing.T) {
	path := sampleCase(t)
	c := loadCase(t, newManager(), path, nil)

	idx, err := c.AddRow("Timeline", testutil.TimelineRow("WS77", "", "mallory", "exfil"))
	if err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}
	if idx != 4 {
		t.Errorf("AddRow() index = %d, want 4", idx)
	}
	if err := c.EditRow("Timeline", 0, testutil.TimelineRow("WS01", "DC02", "alice", "logon")); err != nil {
		t.Fatalf("EditRow() error = %v", err)
	}
	if err := c.DeleteRows("Timeline", []int{1, 3}); err != nil {
		t.Fatalf("DeleteRows() error = %v", err)
	}

	rows := testutil.ReadRows(t, path, "Timeline")
	var systems []string
	for _, r := range rows[1:] {
		systems = append(systems, r[3])
	}
	if !slices.Equal(systems, []string{"WS01", "WS02", "WS77"}) {
		t.Errorf("on-disk Event System column = %v", systems)
	}
	if rows[1][4] != "DC02" {
		t.Errorf("edited Remote System = %q, want DC02", rows[1][4])
	}
}

func TestAddRow_TooManyValues(t *testing.T) {
	path := sampleCase(t)
	before := testutil.ReadBytes(t, path)
	c := loadCase(t, newManager(), path, nil)

	values := make([]string, len(testutil.TimelineHeaders)+1)
	if _, err := c.AddRow("Timeline", values); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("AddRow() error = %v, want ErrInvalidInput", err)
	}
	testutil.AssertUnchanged(t, path, before)
}

func TestMutationAfterSwitchIsRefused(t *testing.T) {
	a := sampleCase(t)
	b := sampleCase(t)
	mgr := newManager()

	ca := loadCase(t, mgr, a, nil)
	loadCase(t, mgr, b, nil)

	if err := ca.Save(); !errors.Is(err, errors.ErrNoSession) {
		t.Errorf("Save() on a replaced case error = %v, want ErrNoSession", err)
	}
}

func TestSaveEmitsEvent(t *testing.T) {
	var saved []string
	mgr := session.NewManager(
		session.WithLockTimeout(50*time.Millisecond),
		session.WithObserver(session.ObserverFunc(func(e session.Event) {
			if e.Type == session.EventSaved {
				saved = append(saved, e.Detail)
			}
		})),
	)

	c := loadCase(t, mgr, sampleCase(t), nil)
	if err := c.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !slices.Equal(saved, []string{"save"}) {
		t.Errorf("saved events = %v", saved)
	}
}

func TestSystemsAndUsers(t *testing.T) {
	path := sampleCase(t)
	testutil.HoldLock(t, path)
	c := loadCase(t, newManager(), path, session.Always(session.DecisionReadOnly))

	systems, err := c.Systems()
	if err != nil {
		t.Fatalf("Systems() error = %v", err)
	}
	if want := []string{"10.0.0.5", "DC01", "WS01", "WS02"}; !slices.Equal(systems, want) {
		t.Errorf("Systems() = %v, want %v", systems, want)
	}

	users, err := c.Users()
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if want := []string{"alice", "bob"}; !slices.Equal(users, want) {
		t.Errorf("Users() = %v, want %v", users, want)
	}
}

func TestSystems_MissingSheetOrColumns(t *testing.T) {
	t.Run("no timeline", func(t *testing.T) {
		path := testutil.WriteCase(t, t.TempDir(), "c.xlsx", testutil.Fixture{Name: "Systems", Rows: [][]string{{"HostName"}}})
		c := loadCase(t, newManager(), path, nil)
		if _, err := c.Systems(); !errors.Is(err, errors.ErrSheetNotFound) {
			t.Errorf("Systems() error = %v, want ErrSheetNotFound", err)
		}
		if _, err := c.Users(); !errors.Is(err, errors.ErrSheetNotFound) {
			t.Errorf("Users() error = %v, want ErrSheetNotFound", err)
		}
	})

	t.Run("no columns", func(t *testing.T) {
		path := testutil.WriteCase(t, t.TempDir(), "c.xlsx", testutil.Fixture{Name: "Timeline", Rows: [][]string{{"Timestamp", "Activity"}}})
		c := loadCase(t, newManager(), path, nil)
		if _, err := c.Systems(); !errors.Is(err, errors.ErrColumnNotFound) {
			t.Errorf("Systems() error = %v, want ErrColumnNotFound", err)
		}
		if _, err := c.Users(); !errors.Is(err, errors.ErrColumnNotFound) {
			t.Errorf("Users() error = %v, want ErrColumnNotFound", err)
		}
	})

	t.Run("custom timeline sheet", func(t *testing.T) {
		path := testutil.WriteCase(t, t.TempDir(), "c.xlsx", testutil.Fixture{Name: "Events", Rows: [][]string{
			{"Remote System"}, {"srv9"},
		}})
		c, err := Load(context.Background(), newManager(), path, nil, WithTimelineSheet("Events"))
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()
		systems, err := c.Systems()
		if err != nil || !slices.Equal(systems, []string{"srv9"}) {
			t.Errorf("Systems() = %v, %v", systems, err)
		}
	})
}

func TestNewCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.xlsx")
	mgr := newManager()

	c, err := NewCase(context.Background(), mgr, path, "")
	if err != nil {
		t.Fatalf("NewCase() error = %v", err)
	}
	defer c.Close()

	if c.Mode() != session.ExclusiveWrite {
		t.Errorf("Mode() = %v, want read-write", c.Mode())
	}
	if got := c.Sheets(); !slices.Equal(got, []string{workbook.SheetTimeline, workbook.SheetSystems, workbook.SheetIndicators}) {
		t.Errorf("Sheets() = %v", got)
	}
	if _, err := c.AddRow(workbook.SheetSystems, []string{"dc01", "10.0.0.1", "Server-DC", ""}); err != nil {
		t.Errorf("AddRow() on new case error = %v", err)
	}
}

func TestNewCase_LockedDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.xlsx")
	testutil.HoldLock(t, path)

	mgr := newManager()
	if _, err := NewCase(context.Background(), mgr, path, ""); errors.KindOf(err) != errors.KindCanceled {
		t.Errorf("NewCase() kind = %v, want canceled", errors.KindOf(err))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("NewCase wrote a file it did not hold the lock for")
	}
}

func TestNewCase_ExistingFile(t *testing.T) {
	path := sampleCase(t)
	mgr := newManager()

	if _, err := NewCase(context.Background(), mgr, path, ""); err == nil {
		t.Fatal("NewCase() over an existing case should fail")
	}
	if mgr.Current() != nil {
		t.Error("failed NewCase left a session open")
	}
}

func TestClose_Idempotent(t *testing.T) {
	path := sampleCase(t)
	mgr := newManager()
	c, err := Load(context.Background(), mgr, path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if mgr.Current() != nil {
		t.Error("Close did not end the session")
	}
}

func TestReload_PicksUpExternalChanges(t *testing.T) {
	path := sampleCase(t)

	writer := loadCase(t, newManager(), path, nil)
	reader := loadCase(t, newManager(), path, session.Always(session.DecisionReadOnly))

	if _, err := writer.AddRow("Timeline", testutil.TimelineRow("WS99", "", "", "")); err != nil {
		t.Fatal(err)
	}

	before, _ := reader.Sheet("Timeline")
	if err := reader.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	after, _ := reader.Sheet("Timeline")
	if after.Len() != before.Len()+1 {
		t.Errorf("rows after reload = %d, want %d", after.Len(), before.Len()+1)
	}
	if reader.Mode() != session.ReadOnly {
		t.Error("Reload changed the session mode")
	}
}

func TestChoices(t *testing.T) {
	if got := Choices(" Visualize "); !slices.Equal(got, []string{"Yes", "No"}) {
		t.Errorf("Choices(Visualize) = %v", got)
	}
	if Choices("Notes") != nil {
		t.Error("free text column should have no choices")
	}
}

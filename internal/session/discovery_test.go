package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListCases(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLSX", "notes.txt", "~$a.xlsx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0755); err != nil {
		t.Fatal(err)
	}

	b := filepath.Join(dir, "b.xlsx")
	holdLock(t, b)

	cases, err := ListCases(dir)
	if err != nil {
		t.Fatalf("ListCases() error = %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("ListCases() returned %d cases, want 2", len(cases))
	}
	if filepath.Base(cases[0].Path) != "a.XLSX" || filepath.Base(cases[1].Path) != "b.xlsx" {
		t.Errorf("unexpected order: %s, %s", cases[0].Path, cases[1].Path)
	}
	if cases[0].IsLocked || cases[0].HasLockFile {
		t.Error("a should be unlocked with no lock file")
	}
	if !cases[1].IsLocked || !cases[1].HasLockFile {
		t.Error("b should be locked")
	}

	locked, err := FindLockedCases(dir)
	if err != nil {
		t.Fatalf("FindLockedCases() error = %v", err)
	}
	if len(locked) != 1 || locked[0].Path != b {
		t.Errorf("FindLockedCases() = %v, want only b", locked)
	}
}

func TestGetCaseInfo_LeftoverLockFileIsNotLocked(t *testing.T) {
	path := newCasePath(t, "case.xlsx")
	if err := os.WriteFile(path+".lock", nil, 0644); err != nil {
		t.Fatal(err)
	}

	info, err := GetCaseInfo(path)
	if err != nil {
		t.Fatalf("GetCaseInfo() error = %v", err)
	}
	if !info.HasLockFile {
		t.Error("HasLockFile = false, want true")
	}
	if info.IsLocked {
		t.Error("a lock file without a holder must not count as locked")
	}
}

func TestListCases_MissingDir(t *testing.T) {
	cases, err := ListCases(filepath.Join(t.TempDir(), "nope"))
	if err != nil || cases != nil {
		t.Errorf("ListCases() = %v, %v; want nil, nil", cases, err)
	}
}

package session

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Iron-Ham/kanvas/internal/filelock"
)

// CaseExt is the file extension of case workbooks.
const CaseExt = ".xlsx"

// CaseInfo contains summary information about a case file on disk.
type CaseInfo struct {
	Path        string    `json:"path" yaml:"path"`
	LockPath    string    `json:"lock_path" yaml:"lock_path"`
	HasLockFile bool      `json:"has_lock_file" yaml:"has_lock_file"`
	IsLocked    bool      `json:"is_locked" yaml:"is_locked"`
	Size        int64     `json:"size" yaml:"size"`
	Modified    time.Time `json:"modified" yaml:"modified"`
}

// GetCaseInfo returns the on-disk state and lock status of one case file.
// A sidecar lock file on its own does not mean the case is locked; only a
// live holder does.
func GetCaseInfo(path string) (*CaseInfo, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	info := &CaseInfo{
		Path:     path,
		LockPath: filelock.LockPath(path),
		Size:     st.Size(),
		Modified: st.ModTime(),
	}

	if _, err := os.Stat(info.LockPath); err == nil {
		info.HasLockFile = true
		held, err := filelock.Probe(info.LockPath)
		if err != nil {
			return nil, err
		}
		info.IsLocked = held
	}

	return info, nil
}

// ListCases returns information about every case workbook in dir, sorted by
// path. Spreadsheet owner files ("~$name.xlsx") are skipped, as are entries
// that cannot be read.
func ListCases(dir string) ([]*CaseInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cases []*CaseInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), CaseExt) || strings.HasPrefix(name, "~$") {
			continue
		}

		info, err := GetCaseInfo(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		cases = append(cases, info)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].Path < cases[j].Path
	})
	return cases, nil
}

// FindLockedCases returns the cases in dir currently held by some process.
func FindLockedCases(dir string) ([]*CaseInfo, error) {
	cases, err := ListCases(dir)
	if err != nil {
		return nil, err
	}

	var locked []*CaseInfo
	for _, c := range cases {
		if c.IsLocked {
			locked = append(locked, c)
		}
	}
	return locked, nil
}

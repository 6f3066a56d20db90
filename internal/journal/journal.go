// Package journal keeps an SQLite audit trail of case session events: who
// opened which case, in which mode, and when the lock was released.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/kanvas/internal/logging"
	"github.com/Iron-Ham/kanvas/internal/session"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DefaultLimit is used when a query asks for a non-positive number of entries.
const DefaultLimit = 50

// recordTimeout bounds an observer write so a busy database cannot stall a
// session transition.
const recordTimeout = 2 * time.Second

// Entry is one recorded session event.
type Entry struct {
	ID        int64     `json:"id" yaml:"id"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	CasePath  string    `json:"case_path" yaml:"case_path"`
	Event     string    `json:"event" yaml:"event"`
	Mode      string    `json:"mode" yaml:"mode"`
	Detail    string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	PID       int       `json:"pid" yaml:"pid"`
	Hostname  string    `json:"hostname" yaml:"hostname"`
	At        time.Time `json:"at" yaml:"at"`
}

// Journal records session events. It implements session.Observer.
type Journal struct {
	db       *sql.DB
	logger   *logging.Logger
	pid      int
	hostname string
}

// Open opens or creates the journal database at path. Several Kanvas
// processes may share one journal.
func Open(path string, logger *logging.Logger) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return newJournal(db, logger)
}

// OpenInMemory opens a private journal that is discarded on Close.
func OpenInMemory(logger *logging.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return newJournal(db, logger)
}

func newJournal(db *sql.DB, logger *logging.Logger) (*Journal, error) {
	// One connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	hostname, _ := os.Hostname()
	return &Journal{db: db, logger: logger, pid: os.Getpid(), hostname: hostname}, nil
}

// Record stores a session event.
func (j *Journal) Record(ctx context.Context, e session.Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO session_events (session_id, case_path, event, mode, detail, pid, hostname, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Path, string(e.Type), e.Mode.String(), e.Detail, j.pid, j.hostname,
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// SessionEvent implements session.Observer. Write failures are logged; the
// journal never blocks or fails a session transition.
func (j *Journal) SessionEvent(e session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := j.Record(ctx, e); err != nil {
		j.logger.WithCase(e.Path).Warn("failed to record session event", "event", string(e.Type), "error", err.Error())
	}
}

// Recent returns the newest entries across all cases, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return j.query(ctx,
		`SELECT id, session_id, case_path, event, mode, detail, pid, hostname, at
		 FROM session_events ORDER BY id DESC LIMIT ?`, normalizeLimit(limit))
}

// ForCase returns the newest entries for one case file, newest first.
func (j *Journal) ForCase(ctx context.Context, path string, limit int) ([]Entry, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return j.query(ctx,
		`SELECT id, session_id, case_path, event, mode, detail, pid, hostname, at
		 FROM session_events WHERE case_path = ? ORDER BY id DESC LIMIT ?`, path, normalizeLimit(limit))
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.CasePath, &e.Event, &e.Mode, &e.Detail, &e.PID, &e.Hostname, &at); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.At = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}
	return out, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

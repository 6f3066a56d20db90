// Package internal contains integration tests that verify the case file
// packages work together: two processes sharing one case through the lock,
// the journal recording both sides, and the read-only side picking up saves.
package internal

import (
	"context"
	"testing"
	"time"

	"github.com/Iron-Ham/kanvas/internal/casefile"
	"github.com/Iron-Ham/kanvas/internal/config"
	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/Iron-Ham/kanvas/internal/filelock"
	"github.com/Iron-Ham/kanvas/internal/registry"
	"github.com/Iron-Ham/kanvas/internal/session"
	"github.com/Iron-Ham/kanvas/internal/testutil"
	"github.com/Iron-Ham/kanvas/internal/watch"
)

// analyst builds the services of one Kanvas process. Each has its own lock
// handles, so two analysts in one test contend like two processes.
func analyst(t *testing.T) *registry.Context {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Logging.Enabled = false
	cfg.Session.LockTimeout = 100 * time.Millisecond
	cfg.Session.RetryInterval = 10 * time.Millisecond

	svc, err := registry.Init(cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc
}

func journalEvents(t *testing.T, svc *registry.Context, path string) map[string]int {
	t.Helper()

	entries, err := svc.Journal.ForCase(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("ForCase() error = %v", err)
	}
	events := make(map[string]int)
	for _, e := range entries {
		events[e.Event]++
	}
	return events
}

// TestSharedCaseWorkflow walks one case through a writer and a read-only
// reader: the reader is refused writes, sees the writer's save on disk, and
// the lock is free once the writer closes.
func TestSharedCaseWorkflow(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteCase(t, t.TempDir(), "case.xlsx", testutil.Timeline(
		testutil.TimelineRow("WKS-01", "DC-01", "jdoe", "initial access"),
	))

	alice, bob := analyst(t), analyst(t)

	writer, err := casefile.Load(ctx, alice.Sessions, path, session.Always(session.DecisionCancel))
	if err != nil {
		t.Fatalf("writer Load() error = %v", err)
	}
	defer writer.Close()
	if writer.ReadOnly() {
		t.Fatal("first opener should hold the lock")
	}

	var asked bool
	decider := session.DeciderFunc(func(_ context.Context, c session.Conflict) (session.Decision, error) {
		asked = true
		if c.Path != writer.Path() {
			t.Errorf("conflict path = %q, want %q", c.Path, writer.Path())
		}
		return session.DecisionReadOnly, nil
	})
	reader, err := casefile.Load(ctx, bob.Sessions, path, decider)
	if err != nil {
		t.Fatalf("reader Load() error = %v", err)
	}
	defer reader.Close()
	if !asked {
		t.Error("reader was not asked about the conflict")
	}
	if !reader.ReadOnly() {
		t.Fatal("second opener should be read-only")
	}

	before := testutil.ReadBytes(t, path)
	if _, err := reader.AddRow("Timeline", []string{"2024-01-02 11:00"}); !errors.Is(err, errors.ErrReadOnlyWrite) {
		t.Fatalf("reader AddRow() error = %v, want ErrReadOnlyWrite", err)
	}
	testutil.AssertUnchanged(t, path, before)

	changes := make(chan watch.Change, 8)
	w, err := watch.New(path, func(c watch.Change) {
		select {
		case changes <- c:
		default:
		}
	}, watch.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("watch.New() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if _, err := writer.AddRow("Timeline", testutil.TimelineRow("WKS-02", "", "svc_backup", "lateral movement")); err != nil {
		t.Fatalf("writer AddRow() error = %v", err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("reader was not notified of the writer's save")
	}

	if err := reader.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	users, err := reader.Users()
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("reader users after reload = %v, want jdoe and svc_backup", users)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("writer Close() error = %v", err)
	}
	held, err := filelock.Probe(filelock.LockPath(writer.Path()))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if held {
		t.Error("lock still held after the writer closed")
	}

	if got := journalEvents(t, alice, writer.Path()); got["opened"] != 1 || got["saved"] != 1 || got["closed"] != 1 {
		t.Errorf("writer journal = %v", got)
	}
	if got := journalEvents(t, bob, writer.Path()); got["opened"] != 1 || got["write_denied"] != 1 {
		t.Errorf("reader journal = %v", got)
	}
}

// TestLockFreedForNextOpener checks that a case released by one process
// opens read-write for the next one.
func TestLockFreedForNextOpener(t *testing.T) {
	ctx := context.Background()
	path := testutil.WriteCase(t, t.TempDir(), "case.xlsx")

	first, second := analyst(t), analyst(t)

	err := first.Sessions.Scope(ctx, path, nil, func(s *session.Session) error {
		if !s.CanWrite() {
			t.Error("first session should be writable")
		}
		if _, err := second.Sessions.Open(ctx, path, nil); !errors.Is(err, errors.ErrOpenCanceled) {
			t.Errorf("contended Open() without a decider error = %v, want ErrOpenCanceled", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Scope() error = %v", err)
	}

	s, err := second.Sessions.Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("Open() after release error = %v", err)
	}
	if s.Mode != session.ExclusiveWrite {
		t.Errorf("mode after release = %v, want ExclusiveWrite", s.Mode)
	}
}

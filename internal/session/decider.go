package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Iron-Ham/kanvas/internal/config"
)

// Decision is the user's answer when a case file is locked elsewhere.
type Decision int

const (
	// DecisionCancel aborts the open. It is the zero value so that anything
	// left unanswered cancels.
	DecisionCancel Decision = iota
	// DecisionReadOnly opens the case without the lock.
	DecisionReadOnly
)

// String returns a short name for the decision.
func (d Decision) String() string {
	if d == DecisionReadOnly {
		return "read_only"
	}
	return "cancel"
}

// Conflict describes a case file whose lock could not be acquired in time.
type Conflict struct {
	Path     string
	LockPath string
	Waited   time.Duration
}

// Prompt is the question shown to the user for a conflict.
func (c Conflict) Prompt() string {
	return "The file is currently being edited by another user.\nDo you want to open it in read-only mode?"
}

// Decider resolves a lock conflict. Implementations must not call back into
// the Manager that invoked them.
type Decider interface {
	ResolveConflict(ctx context.Context, c Conflict) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, c Conflict) (Decision, error)

// ResolveConflict implements Decider.
func (f DeciderFunc) ResolveConflict(ctx context.Context, c Conflict) (Decision, error) {
	return f(ctx, c)
}

// Always returns a Decider that gives the same answer without asking.
func Always(d Decision) Decider {
	return DeciderFunc(func(context.Context, Conflict) (Decision, error) {
		return d, nil
	})
}

// AskDecider asks on a line-oriented terminal. Only an explicit "y" or
// "yes" opens read-only; an empty line, EOF or anything else cancels. When
// ctx ends before an answer arrives it cancels without waiting for the line;
// the pending read is abandoned.
type AskDecider struct {
	In  io.Reader
	Out io.Writer
}

type askAnswer struct {
	line string
	err  error
}

// ResolveConflict implements Decider.
func (p AskDecider) ResolveConflict(ctx context.Context, c Conflict) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return DecisionCancel, err
	}

	fmt.Fprintf(p.Out, "%s\n%s [y/N]: ", c.Path, c.Prompt())

	answers := make(chan askAnswer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		answers <- askAnswer{line: line, err: err}
	}()

	var a askAnswer
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return DecisionCancel, ctx.Err()
	case a = <-answers:
	}

	if a.err != nil && a.err != io.EOF {
		return DecisionCancel, fmt.Errorf("read answer: %w", a.err)
	}

	switch strings.ToLower(strings.TrimSpace(a.line)) {
	case "y", "yes":
		return DecisionReadOnly, nil
	default:
		return DecisionCancel, nil
	}
}

// PolicyDecider maps a session.on_conflict setting to a Decider. The ask decider
// is used for config.ConflictAsk and for unknown values.
func PolicyDecider(policy string, ask Decider) Decider {
	switch policy {
	case config.ConflictReadOnly:
		return Always(DecisionReadOnly)
	case config.ConflictCancel:
		return Always(DecisionCancel)
	default:
		if ask == nil {
			return Always(DecisionCancel)
		}
		return ask
	}
}

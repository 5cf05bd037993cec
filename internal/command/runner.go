package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a script run; on expiry the child is killed and the
// outcome is marked timed out.
const DefaultTimeout = 30 * time.Second

// Outcome reports how a dispatched script finished. It is returned to the
// caller and logged, never persisted.
type Outcome struct {
	Command    Kind  `json:"command"`
	ExitStatus int   `json:"exit_status"`
	DurationMs int64 `json:"duration_ms"`
	TimedOut   bool  `json:"timed_out"`
}

// ScriptRunner runs one fixed script path with a deadline. The single-method
// interface keeps request data out of process construction entirely: callers
// can only hand over a path the dispatcher itself derived from the command
// enum.
type ScriptRunner interface {
	Run(ctx context.Context, path string) (*Outcome, error)
}

type execRunner struct {
	timeout time.Duration
}

// NewRunner returns the production runner. Scripts are spawned directly with
// no shell and no arguments, under a sanitized environment.
func NewRunner(timeout time.Duration) ScriptRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &execRunner{timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, path string) (*Outcome, error) {
	// Only the timeout may cancel a running script. The caller's context is
	// a request context, and a client that disconnects mid-run must not kill
	// a half-done factory reset.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path)
	cmd.Env = []string{"PATH=/usr/sbin:/usr/bin:/bin", "LANG=C", "LC_ALL=C"}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// If the script ignores SIGKILL delivery to its children, give Wait a
	// bounded grace period instead of hanging the handler.
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	out := &Outcome{
		DurationMs: time.Since(start).Milliseconds(),
		TimedOut:   errors.Is(ctx.Err(), context.DeadlineExceeded),
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			out.ExitStatus = exitErr.ExitCode()
		case out.TimedOut:
			out.ExitStatus = -1
		default:
			// The script could not be invoked at all: missing file, not
			// executable, fork failure. Distinct from a script that ran and
			// failed.
			return nil, fmt.Errorf("invoke %s: %w", path, err)
		}
	}
	return out, nil
}

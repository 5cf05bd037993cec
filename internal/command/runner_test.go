package command

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReportsExitStatus(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "fail.sh", "#!/bin/sh\nexit 3\n")
	out, err := NewRunner(5*time.Second).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.ExitStatus != 3 {
		t.Fatalf("exit status: %d", out.ExitStatus)
	}
	if out.TimedOut {
		t.Fatal("should not be timed out")
	}
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "ok.sh", "#!/bin/sh\nexit 0\n")
	out, err := NewRunner(5*time.Second).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.ExitStatus != 0 || out.TimedOut {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestRunKillsOnTimeout(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "slow.sh", "#!/bin/sh\nexec sleep 30\n")
	start := time.Now()
	out, err := NewRunner(300*time.Millisecond).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.TimedOut {
		t.Fatal("expected timed_out=true")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("run took %v despite 300ms timeout", elapsed)
	}
}

func TestRunSurvivesCallerCancellation(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "done")
	path := writeScript(t, dir, "reset.sh", "#!/bin/sh\nsleep 0.5\ntouch "+marker+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	defer cancel()

	out, err := NewRunner(5*time.Second).Run(ctx, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.ExitStatus != 0 || out.TimedOut {
		t.Fatalf("script should run to completion: %+v", out)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("script was killed before finishing: %v", err)
	}
}

func TestRunMissingScriptIsInvocationError(t *testing.T) {
	out, err := NewRunner(time.Second).Run(context.Background(), filepath.Join(t.TempDir(), "absent.sh"))
	if err == nil {
		t.Fatalf("expected error, got outcome %+v", out)
	}
}

func TestRunNonExecutableIsInvocationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("not a script"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRunner(time.Second).Run(context.Background(), path); err == nil {
		t.Fatal("expected error")
	}
}

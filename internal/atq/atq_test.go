package atq

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func stubAt(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "at")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScheduleAtParsesJobID(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := stubAt(t, `echo "$@" > `+argsFile+`
cat > /dev/null
echo "warning: commands will be executed using /bin/sh" >&2
echo "job 42 at Tue Sep  1 04:00:00 2026" >&2
`)
	q := New(bin, zerolog.Nop())

	at := time.Date(2026, 9, 1, 4, 0, 30, 0, time.UTC)
	id, err := q.ScheduleAt(context.Background(), at, "/home/op1/MCS/sch/INIdp.sh")
	if err != nil {
		t.Fatalf("ScheduleAt: %v", err)
	}
	if id != 42 {
		t.Errorf("job ID = %d, want 42", id)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	if want := "-t 202609010400.30\n"; string(args) != want {
		t.Errorf("at arguments = %q, want %q", args, want)
	}
}

func TestScheduleAtToleratesMissingJobID(t *testing.T) {
	bin := stubAt(t, "cat > /dev/null\necho queued\n")
	q := New(bin, zerolog.Nop())

	id, err := q.ScheduleAt(context.Background(), time.Now().Add(time.Hour), "echo hi")
	if err != nil {
		t.Fatalf("ScheduleAt: %v", err)
	}
	if id != 0 {
		t.Errorf("job ID = %d, want 0 when at reports none", id)
	}
}

func TestScheduleAtReportsCommandFailure(t *testing.T) {
	bin := stubAt(t, "exit 1\n")
	q := New(bin, zerolog.Nop())

	if _, err := q.ScheduleAt(context.Background(), time.Now().Add(time.Hour), "echo hi"); err == nil {
		t.Fatal("expected an error when the queue binary fails")
	}
}

package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nextstep.log")
	lb, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer lb.Close()

	lb.Info("resolved %s", "P1_01.1")
	lb.Warn("two TODO files match %s", "P1_01")
	lb.Error("rename failed")

	lines := lb.Tail(10)
	if len(lines) != 3 {
		t.Fatalf("tail = %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], "INFO") || !strings.Contains(lines[0], "resolved P1_01.1") {
		t.Fatalf("unexpected first line: %s", lines[0])
	}
	if !strings.Contains(lines[2], "ERROR") {
		t.Fatalf("unexpected last line: %s", lines[2])
	}

	if got := lb.Tail(2); len(got) != 2 || !strings.Contains(got[0], "WARN") {
		t.Fatalf("tail window wrong: %v", got)
	}
}

func TestNilLogbookIsSilent(t *testing.T) {
	var lb *Logbook
	lb.Info("ignored")
	lb.Warn("ignored")
	lb.Error("ignored")
	if lb.Tail(5) != nil {
		t.Fatal("nil logbook should have no entries")
	}
	if lb.Path() != "" {
		t.Fatal("nil logbook has no path")
	}
	if err := lb.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "deep", "nested", "log.txt")
	lb, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer lb.Close()
	lb.Info("hello")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}

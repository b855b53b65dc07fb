package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesEveryArea(t *testing.T) {
	project := t.TempDir()
	l := New(project)

	if err := l.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, dir := range []string{
		l.StepsDir(), l.TodosDir(), l.PhasesDir(),
		l.DoneStepsDir(), l.DoneTodosDir(), l.DonePhasesDir(),
		l.BlockersDir(), l.OutDir(), l.LogsDir(),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("missing %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
	if !l.Exists() {
		t.Fatal("Exists should report an initialized layout")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	project := t.TempDir()
	l := New(project)
	if err := l.Init(); err != nil {
		t.Fatalf("first init: %v", err)
	}

	// Drop a file into an area and make sure re-init leaves it alone.
	marker := filepath.Join(l.StepsDir(), "P1_01.1_seed.md")
	if err := os.WriteFile(marker, []byte("body"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if err := l.Init(); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("re-init disturbed existing content: %v", err)
	}
}

func TestZeroValueIsNotInitialized(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "nowhere"))
	if l.Exists() {
		t.Fatal("uninitialized layout should not report Exists")
	}
}

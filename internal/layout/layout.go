// Package layout defines the on-disk schema the engine observes. The
// directory structure is carried as a value rather than package-level path
// constants so tests and tooling can point the engine at temporary roots.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is the directory created inside every project that uses nextstep.
const Dir = ".nextstep"

// Version identifies the layout schema. Bump when the directory structure
// changes shape so older trees can be detected and migrated.
const Version = 1

// Layout resolves every area the engine reads or writes. Construct with
// New; the zero value points at the current directory's ".nextstep".
type Layout struct {
	// Root is the absolute (or test-relative) path to the .nextstep dir.
	Root string
}

// New returns the layout rooted at projectDir/.nextstep.
func New(projectDir string) Layout {
	return Layout{Root: filepath.Join(projectDir, Dir)}
}

// StepsDir holds pending step files.
func (l Layout) StepsDir() string { return filepath.Join(l.Root, "steps") }

// TodosDir holds active TODO files.
func (l Layout) TodosDir() string { return filepath.Join(l.Root, "todos") }

// PhasesDir holds active phase documents.
func (l Layout) PhasesDir() string { return filepath.Join(l.Root, "phases") }

// DoneStepsDir holds completed step files.
func (l Layout) DoneStepsDir() string { return filepath.Join(l.Root, "done", "steps") }

// DoneTodosDir holds completed TODO files.
func (l Layout) DoneTodosDir() string { return filepath.Join(l.Root, "done", "todos") }

// DonePhasesDir holds completed phase documents.
func (l Layout) DonePhasesDir() string { return filepath.Join(l.Root, "done", "phases") }

// BlockersDir holds manual-intervention markers.
func (l Layout) BlockersDir() string { return filepath.Join(l.Root, "action_required") }

// OutDir holds the resolution artifacts consumed by the executor.
func (l Layout) OutDir() string { return filepath.Join(l.Root, "out") }

// LogsDir holds the engine logbook.
func (l Layout) LogsDir() string { return filepath.Join(l.Root, "logs") }

// PointerPath is the short artifact naming the chosen step.
func (l Layout) PointerPath() string { return filepath.Join(l.OutDir(), "next_step.md") }

// InstructionsPath is the fully substituted prompt payload.
func (l Layout) InstructionsPath() string { return filepath.Join(l.OutDir(), "instructions.md") }

// ConfigPath is the optional project configuration file.
func (l Layout) ConfigPath() string { return filepath.Join(l.Root, "config.yaml") }

// TemplatePath is the optional project prompt template override.
func (l Layout) TemplatePath() string { return filepath.Join(l.Root, "prompt_template.md") }

// LogPath is the engine logbook file.
func (l Layout) LogPath() string { return filepath.Join(l.LogsDir(), "nextstep.log") }

// Init creates every directory the engine needs. Safe to call repeatedly;
// existing directories and their contents are left untouched.
func (l Layout) Init() error {
	dirs := []string{
		l.StepsDir(),
		l.TodosDir(),
		l.PhasesDir(),
		l.DoneStepsDir(),
		l.DoneTodosDir(),
		l.DonePhasesDir(),
		l.BlockersDir(),
		l.OutDir(),
		l.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("layout: create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists reports whether the layout root has been initialized.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

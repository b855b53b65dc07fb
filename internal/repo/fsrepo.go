package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mwhitby/nextstep/internal/layout"
	"github.com/mwhitby/nextstep/internal/stepfile"
	"github.com/mwhitby/nextstep/internal/stepid"
)

// scanParallelism bounds how many step bodies are read at once during a
// pending scan.
const scanParallelism = 8

// FS is the filesystem-backed repository.
type FS struct {
	layout layout.Layout
}

// NewFS builds a repository over the given layout.
func NewFS(l layout.Layout) *FS {
	return &FS{layout: l}
}

// Layout exposes the schema this repository observes.
func (r *FS) Layout() layout.Layout {
	return r.layout
}

// ListPendingSteps scans the pending area and reads each step's dependency
// declaration. Files whose names do not carry an identifier are invisible,
// not errors. Bodies are read with bounded parallelism.
func (r *FS) ListPendingSteps(filter *stepid.ID) (ScanResult, error) {
	entries, err := os.ReadDir(r.layout.StepsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ScanResult{}, nil
		}
		return ScanResult{}, fmt.Errorf("repo: list pending steps: %w", err)
	}

	type candidate struct {
		id   stepid.ID
		name string
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := stepid.Parse(entry.Name())
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{id: id, name: entry.Name()})
	}

	steps := make([]Step, len(candidates))
	warnings := make([]string, len(candidates))
	g := new(errgroup.Group)
	g.SetLimit(scanParallelism)
	for i, c := range candidates {
		g.Go(func() error {
			path := filepath.Join(r.layout.StepsDir(), c.name)
			body, err := os.ReadFile(path)
			if err != nil {
				// The file vanished mid-scan; a later existence
				// re-check catches it if selected.
				if errors.Is(err, fs.ErrNotExist) {
					steps[i] = Step{ID: c.id, Filename: c.name, Path: path}
					return nil
				}
				return fmt.Errorf("repo: read step %s: %w", c.name, err)
			}
			deps := stepfile.ParseDependencies(body)
			if deps.Warning != "" {
				warnings[i] = fmt.Sprintf("%s: %s", c.name, deps.Warning)
			}
			steps[i] = Step{ID: c.id, Filename: c.name, Path: path, DependsOn: deps.IDs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, err
	}

	result := ScanResult{TotalPending: len(steps)}
	for _, w := range warnings {
		if w != "" {
			result.Warnings = append(result.Warnings, w)
		}
	}
	for _, step := range steps {
		if filter != nil && !filter.Covers(step.ID) {
			continue
		}
		result.Steps = append(result.Steps, step)
	}
	sort.Slice(result.Steps, func(i, j int) bool {
		return result.Steps[i].Filename < result.Steps[j].Filename
	})
	return result, nil
}

// ListDoneStepIDs returns the identifiers of every completed step.
func (r *FS) ListDoneStepIDs() (map[string]struct{}, error) {
	entries, err := os.ReadDir(r.layout.DoneStepsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("repo: list done steps: %w", err)
	}
	done := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := stepid.Parse(entry.Name()); ok {
			done[id.String()] = struct{}{}
		}
	}
	return done, nil
}

// StepExists reports whether the pending step file is still on disk.
func (r *FS) StepExists(filename string) bool {
	info, err := os.Stat(filepath.Join(r.layout.StepsDir(), filename))
	return err == nil && !info.IsDir()
}

// ReadStep returns the body of a pending step file.
func (r *FS) ReadStep(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.layout.StepsDir(), filename))
	if err != nil {
		return nil, fmt.Errorf("repo: read step %s: %w", filename, err)
	}
	return data, nil
}

// MoveStepToDone renames a pending step into the done area.
func (r *FS) MoveStepToDone(filename string) error {
	return r.move(
		filepath.Join(r.layout.StepsDir(), filename),
		filepath.Join(r.layout.DoneStepsDir(), filename),
	)
}

// ListTodos lists active TODO files with their cancellation state.
func (r *FS) ListTodos() ([]TodoFile, error) {
	entries, err := os.ReadDir(r.layout.TodosDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: list todos: %w", err)
	}
	var todos []TodoFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := stepid.Parse(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(r.layout.TodosDir(), entry.Name())
		cancelled := false
		if body, err := os.ReadFile(path); err == nil {
			cancelled = stepfile.ParseStatus(body) == stepfile.StatusCancelled
		}
		todos = append(todos, TodoFile{ID: id, Filename: entry.Name(), Path: path, Cancelled: cancelled})
	}
	return todos, nil
}

// MoveTodoToDone renames an active TODO into the done area.
func (r *FS) MoveTodoToDone(filename string) error {
	return r.move(
		filepath.Join(r.layout.TodosDir(), filename),
		filepath.Join(r.layout.DoneTodosDir(), filename),
	)
}

// ListPhaseDocs lists active phase documents.
func (r *FS) ListPhaseDocs() ([]PhaseDoc, error) {
	entries, err := os.ReadDir(r.layout.PhasesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: list phases: %w", err)
	}
	var docs []PhaseDoc
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := stepid.Parse(entry.Name())
		if !ok {
			continue
		}
		docs = append(docs, PhaseDoc{
			ID:       id,
			Filename: entry.Name(),
			Path:     filepath.Join(r.layout.PhasesDir(), entry.Name()),
		})
	}
	return docs, nil
}

// MovePhaseToDone renames an active phase document into the done area.
func (r *FS) MovePhaseToDone(filename string) error {
	return r.move(
		filepath.Join(r.layout.PhasesDir(), filename),
		filepath.Join(r.layout.DonePhasesDir(), filename),
	)
}

// ListBlockerFiles lists the action-required area.
func (r *FS) ListBlockerFiles() ([]string, error) {
	entries, err := os.ReadDir(r.layout.BlockersDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: list blockers: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RemoveBlockerFile deletes a consumed marker. Deleting a marker that is
// already gone is a no-op.
func (r *FS) RemoveBlockerFile(filename string) error {
	err := os.Remove(filepath.Join(r.layout.BlockersDir(), filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("repo: remove blocker %s: %w", filename, err)
	}
	return nil
}

// WriteArtifact writes data to path via a temp file and rename, so a
// concurrently polling consumer never observes a torn artifact.
func (r *FS) WriteArtifact(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("repo: ensure artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("repo: create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("repo: write artifact %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("repo: close artifact %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("repo: chmod artifact %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("repo: publish artifact %s: %w", path, err)
	}
	return nil
}

func (r *FS) move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("repo: ensure %s: %w", filepath.Dir(dst), err)
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrAlreadyMoved
		}
		return fmt.Errorf("repo: move %s: %w", src, err)
	}
	return nil
}

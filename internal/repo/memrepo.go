package repo

import (
	"fmt"
	"sort"

	"github.com/mwhitby/nextstep/internal/stepfile"
	"github.com/mwhitby/nextstep/internal/stepid"
)

// Mem is an in-memory Repository for tests. It mirrors the filesystem
// implementation's observable behavior, including silent filtering of
// non-conforming filenames and ErrAlreadyMoved on vanished sources.
type Mem struct {
	pending   map[string][]byte // step filename -> body
	done      map[string][]byte
	todos     map[string][]byte
	doneTodos map[string][]byte
	phases    map[string][]byte
	donePhase map[string][]byte
	blockers  map[string][]byte
	artifacts map[string][]byte
}

// NewMem returns an empty in-memory repository.
func NewMem() *Mem {
	return &Mem{
		pending:   map[string][]byte{},
		done:      map[string][]byte{},
		todos:     map[string][]byte{},
		doneTodos: map[string][]byte{},
		phases:    map[string][]byte{},
		donePhase: map[string][]byte{},
		blockers:  map[string][]byte{},
		artifacts: map[string][]byte{},
	}
}

// AddStep seeds a pending step file.
func (m *Mem) AddStep(filename string, body string) *Mem {
	m.pending[filename] = []byte(body)
	return m
}

// AddDoneStep seeds a completed step file.
func (m *Mem) AddDoneStep(filename string) *Mem {
	m.done[filename] = []byte{}
	return m
}

// AddTodo seeds an active TODO file.
func (m *Mem) AddTodo(filename string, body string) *Mem {
	m.todos[filename] = []byte(body)
	return m
}

// AddPhaseDoc seeds an active phase document.
func (m *Mem) AddPhaseDoc(filename string, body string) *Mem {
	m.phases[filename] = []byte(body)
	return m
}

// AddBlocker seeds a marker in the action-required area.
func (m *Mem) AddBlocker(filename string) *Mem {
	m.blockers[filename] = []byte{}
	return m
}

// DoneTodoFilenames lists completed TODO files, sorted.
func (m *Mem) DoneTodoFilenames() []string { return sortedKeys(m.doneTodos) }

// DonePhaseFilenames lists completed phase documents, sorted.
func (m *Mem) DonePhaseFilenames() []string { return sortedKeys(m.donePhase) }

// DoneStepFilenames lists completed step files, sorted.
func (m *Mem) DoneStepFilenames() []string { return sortedKeys(m.done) }

// Artifact returns a written artifact body.
func (m *Mem) Artifact(path string) ([]byte, bool) {
	data, ok := m.artifacts[path]
	return data, ok
}

func (m *Mem) ListPendingSteps(filter *stepid.ID) (ScanResult, error) {
	var result ScanResult
	for _, name := range sortedKeys(m.pending) {
		id, ok := stepid.Parse(name)
		if !ok {
			continue
		}
		result.TotalPending++
		if filter != nil && !filter.Covers(id) {
			continue
		}
		deps := stepfile.ParseDependencies(m.pending[name])
		if deps.Warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", name, deps.Warning))
		}
		result.Steps = append(result.Steps, Step{
			ID:        id,
			Filename:  name,
			Path:      "mem://steps/" + name,
			DependsOn: deps.IDs,
		})
	}
	return result, nil
}

func (m *Mem) ListDoneStepIDs() (map[string]struct{}, error) {
	done := make(map[string]struct{}, len(m.done))
	for name := range m.done {
		if id, ok := stepid.Parse(name); ok {
			done[id.String()] = struct{}{}
		}
	}
	return done, nil
}

func (m *Mem) StepExists(filename string) bool {
	_, ok := m.pending[filename]
	return ok
}

func (m *Mem) ReadStep(filename string) ([]byte, error) {
	body, ok := m.pending[filename]
	if !ok {
		return nil, fmt.Errorf("repo: read step %s: not found", filename)
	}
	return body, nil
}

func (m *Mem) MoveStepToDone(filename string) error {
	body, ok := m.pending[filename]
	if !ok {
		return ErrAlreadyMoved
	}
	delete(m.pending, filename)
	m.done[filename] = body
	return nil
}

func (m *Mem) ListTodos() ([]TodoFile, error) {
	var todos []TodoFile
	for _, name := range sortedKeys(m.todos) {
		id, ok := stepid.Parse(name)
		if !ok {
			continue
		}
		todos = append(todos, TodoFile{
			ID:        id,
			Filename:  name,
			Path:      "mem://todos/" + name,
			Cancelled: stepfile.ParseStatus(m.todos[name]) == stepfile.StatusCancelled,
		})
	}
	return todos, nil
}

func (m *Mem) MoveTodoToDone(filename string) error {
	body, ok := m.todos[filename]
	if !ok {
		return ErrAlreadyMoved
	}
	delete(m.todos, filename)
	m.doneTodos[filename] = body
	return nil
}

func (m *Mem) ListPhaseDocs() ([]PhaseDoc, error) {
	var docs []PhaseDoc
	for _, name := range sortedKeys(m.phases) {
		id, ok := stepid.Parse(name)
		if !ok {
			continue
		}
		docs = append(docs, PhaseDoc{ID: id, Filename: name, Path: "mem://phases/" + name})
	}
	return docs, nil
}

func (m *Mem) MovePhaseToDone(filename string) error {
	body, ok := m.phases[filename]
	if !ok {
		return ErrAlreadyMoved
	}
	delete(m.phases, filename)
	m.donePhase[filename] = body
	return nil
}

func (m *Mem) ListBlockerFiles() ([]string, error) {
	return sortedKeys(m.blockers), nil
}

func (m *Mem) RemoveBlockerFile(filename string) error {
	delete(m.blockers, filename)
	return nil
}

func (m *Mem) WriteArtifact(path string, data []byte) error {
	m.artifacts[path] = append([]byte(nil), data...)
	return nil
}

func sortedKeys(values map[string][]byte) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

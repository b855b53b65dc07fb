// Package repo isolates the engine's state-machine logic from I/O. The
// Repository interface is the only way the engine touches the pending,
// done, blocker, and artifact areas; FS is the filesystem-backed
// implementation and Mem is an in-memory fake for tests.
package repo

import (
	"errors"

	"github.com/mwhitby/nextstep/internal/stepid"
)

// ErrAlreadyMoved is returned by move operations whose source file no
// longer exists. A concurrent actor (or a previous crash-recovery pass)
// already handled the move; callers log it and continue, never retry.
var ErrAlreadyMoved = errors.New("repo: source already moved")

// Step is a pending unit of work backed by a single file.
type Step struct {
	ID        stepid.ID
	Filename  string
	Path      string
	DependsOn []stepid.ID
}

// TodoFile is a TODO document in the active or done area.
type TodoFile struct {
	ID        stepid.ID
	Filename  string
	Path      string
	Cancelled bool
}

// PhaseDoc is a phase document in the active or done area.
type PhaseDoc struct {
	ID       stepid.ID
	Filename string
	Path     string
}

// ScanResult is the outcome of listing pending steps. TotalPending counts
// every pending step before phase filtering so callers can distinguish "no
// steps at all" from "no steps in the requested phase".
type ScanResult struct {
	Steps        []Step
	TotalPending int
	Warnings     []string
}

// Repository is the engine's view of the project state. Implementations
// must keep moves atomic (rename within one volume) and directory creation
// idempotent. Exactly one resolver process may operate on a repository at
// a time; that invariant is the caller's to uphold.
type Repository interface {
	// ListPendingSteps scans the pending area. A non-nil filter keeps
	// only steps whose id equals the filter or is nested under it.
	ListPendingSteps(filter *stepid.ID) (ScanResult, error)

	// ListDoneStepIDs returns the set of completed step ids keyed by
	// their canonical string form.
	ListDoneStepIDs() (map[string]struct{}, error)

	// StepExists reports whether the named pending step file is still
	// present. Used to re-verify a selection before handing it out.
	StepExists(filename string) bool

	// ReadStep returns the body of a pending step file.
	ReadStep(filename string) ([]byte, error)

	// MoveStepToDone relocates a pending step into the done area.
	MoveStepToDone(filename string) error

	// ListTodos lists TODO files in the active area, with cancellation
	// parsed from each file body.
	ListTodos() ([]TodoFile, error)

	// MoveTodoToDone relocates an active TODO into the done area.
	MoveTodoToDone(filename string) error

	// ListPhaseDocs lists phase documents in the active area.
	ListPhaseDocs() ([]PhaseDoc, error)

	// MovePhaseToDone relocates an active phase document into the done area.
	MovePhaseToDone(filename string) error

	// ListBlockerFiles lists filenames in the action-required area.
	ListBlockerFiles() ([]string, error)

	// RemoveBlockerFile deletes a consumed marker.
	RemoveBlockerFile(filename string) error

	// WriteArtifact atomically writes an executor-facing artifact. The
	// file appears fully written or not at all from a reader's view.
	WriteArtifact(path string, data []byte) error
}

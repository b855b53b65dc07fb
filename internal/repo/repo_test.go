package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitby/nextstep/internal/layout"
	"github.com/mwhitby/nextstep/internal/stepid"
)

var (
	_ Repository = (*FS)(nil)
	_ Repository = (*Mem)(nil)
)

func newFS(t *testing.T) *FS {
	t.Helper()
	l := layout.New(t.TempDir())
	require.NoError(t, l.Init())
	return NewFS(l)
}

func writeStep(t *testing.T, r *FS, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(r.Layout().StepsDir(), name), []byte(body), 0o644))
}

func TestListPendingStepsSkipsNonConformingNames(t *testing.T) {
	r := newFS(t)
	writeStep(t, r, "P1_01.1_setup.md", "Depends on: none\n")
	writeStep(t, r, "P1_01.2_build.md", "Depends on: P1_01.1\n")
	writeStep(t, r, "README.md", "not a step\n")

	result, err := r.ListPendingSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalPending)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "P1_01.1_setup.md", result.Steps[0].Filename)
	assert.Equal(t, "P1_01.2_build.md", result.Steps[1].Filename)
	require.Len(t, result.Steps[1].DependsOn, 1)
	assert.Equal(t, "P1_01.1", result.Steps[1].DependsOn[0].String())
	assert.Empty(t, result.Warnings)
}

func TestListPendingStepsPhaseFilter(t *testing.T) {
	r := newFS(t)
	writeStep(t, r, "P1_01.1.md", "Depends on: none\n")
	writeStep(t, r, "P2_01.1.md", "Depends on: none\n")

	p2 := stepid.MustParse("P2")
	result, err := r.ListPendingSteps(&p2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalPending, "filtering must not hide the global count")
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "P2_01.1.md", result.Steps[0].Filename)

	p9 := stepid.MustParse("P9")
	result, err = r.ListPendingSteps(&p9)
	require.NoError(t, err)
	assert.Empty(t, result.Steps)
	assert.Equal(t, 2, result.TotalPending, "empty filter result must stay distinguishable from an empty repo")
}

func TestListPendingStepsCollectsWarnings(t *testing.T) {
	r := newFS(t)
	writeStep(t, r, "P1_01.1.md", "Depends on: what-is-this\n")

	result, err := r.ListPendingSteps(nil)
	require.NoError(t, err)
	require.Len(t, result.Steps, 1)
	assert.Empty(t, result.Steps[0].DependsOn, "malformed declarations degrade to no dependencies")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "P1_01.1.md")
}

func TestMoveStepToDoneIsRenameNotCopy(t *testing.T) {
	r := newFS(t)
	writeStep(t, r, "P1_01.1.md", "Depends on: none\nbody text\n")

	require.NoError(t, r.MoveStepToDone("P1_01.1.md"))
	assert.False(t, r.StepExists("P1_01.1.md"))

	data, err := os.ReadFile(filepath.Join(r.Layout().DoneStepsDir(), "P1_01.1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "body text", "content must be preserved by promotion")

	done, err := r.ListDoneStepIDs()
	require.NoError(t, err)
	_, ok := done["P1_01.1"]
	assert.True(t, ok)
}

func TestMoveStepToDoneVanishedSource(t *testing.T) {
	r := newFS(t)
	err := r.MoveStepToDone("P1_01.1.md")
	assert.ErrorIs(t, err, ErrAlreadyMoved)
}

func TestListTodosParsesCancellation(t *testing.T) {
	r := newFS(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(r.Layout().TodosDir(), "P1_01_cleanup.md"),
		[]byte("# Cleanup\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(r.Layout().TodosDir(), "P1_02_dropped.md"),
		[]byte("---\nstatus: cancelled\n---\n# Dropped\n"), 0o644))

	todos, err := r.ListTodos()
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.False(t, todos[0].Cancelled)
	assert.True(t, todos[1].Cancelled)
}

func TestWriteArtifactPublishesWholeFile(t *testing.T) {
	r := newFS(t)
	path := r.Layout().PointerPath()
	require.NoError(t, r.WriteArtifact(path, []byte("first")))
	require.NoError(t, r.WriteArtifact(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(r.Layout().OutDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not leak into the out dir")
}

func TestMemMirrorsFSBehavior(t *testing.T) {
	m := NewMem().
		AddStep("P1_01.1.md", "Depends on: none\n").
		AddStep("P1_01.2.md", "Depends on: P1_01.1\n").
		AddStep("notes.txt", "ignored").
		AddDoneStep("P1_00.1.md")

	result, err := m.ListPendingSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalPending)

	done, err := m.ListDoneStepIDs()
	require.NoError(t, err)
	_, ok := done["P1_00.1"]
	assert.True(t, ok)

	require.NoError(t, m.MoveStepToDone("P1_01.1.md"))
	assert.ErrorIs(t, m.MoveStepToDone("P1_01.1.md"), ErrAlreadyMoved)
}

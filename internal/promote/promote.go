// Package promote implements the cascading completion state machine:
// when the last pending step under a TODO clears, the TODO moves to done;
// when every non-cancelled TODO in a phase is done, the phase document
// moves to done. All transitions are one-way and idempotent.
package promote

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mwhitby/nextstep/internal/logbook"
	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/stepid"
)

// Promoter advances TODOs and phases as their children complete.
type Promoter struct {
	repo repo.Repository
	log  *logbook.Logbook
}

// New builds a promoter over the repository. The logbook may be nil.
func New(r repo.Repository, log *logbook.Logbook) *Promoter {
	return &Promoter{repo: r, log: log}
}

// StepCompleted runs after a step file lands in the done area. If no
// pending step remains under the owning TODO, the TODO file is moved to
// done. When several TODO files share the owning id, the first by sorted
// filename wins and a warning is logged rather than guessing silently.
func (p *Promoter) StepCompleted(id stepid.ID) error {
	todo := id.Todo()
	scan, err := p.repo.ListPendingSteps(&todo)
	if err != nil {
		return fmt.Errorf("promote: scan steps for %s: %w", todo, err)
	}
	if len(scan.Steps) > 0 {
		return nil
	}

	todos, err := p.repo.ListTodos()
	if err != nil {
		return fmt.Errorf("promote: list todos: %w", err)
	}
	var matches []repo.TodoFile
	for _, t := range todos {
		if t.ID.Equal(todo) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Filename < matches[j].Filename })
	if len(matches) > 1 {
		p.log.Warn("promote: %d TODO files match %s, promoting %s", len(matches), todo, matches[0].Filename)
	}

	if err := p.repo.MoveTodoToDone(matches[0].Filename); err != nil {
		if errors.Is(err, repo.ErrAlreadyMoved) {
			p.log.Info("promote: TODO %s already moved", matches[0].Filename)
			return nil
		}
		return fmt.Errorf("promote: move TODO %s: %w", matches[0].Filename, err)
	}
	p.log.Info("promote: TODO %s done", todo)
	return nil
}

// PhaseExhausted runs when resolution reports no pending work for the
// given phase (or globally when phase is nil). Phases whose non-cancelled
// TODOs are all done have their documents moved to the done area.
// Cancelled TODOs are excluded from the remaining-work count but are never
// moved themselves. Re-invoking after full promotion is a no-op.
func (p *Promoter) PhaseExhausted(phase *stepid.ID) error {
	todos, err := p.repo.ListTodos()
	if err != nil {
		return fmt.Errorf("promote: list todos: %w", err)
	}
	scan, err := p.repo.ListPendingSteps(phase)
	if err != nil {
		return fmt.Errorf("promote: scan steps: %w", err)
	}
	cancelled := make(map[string]struct{})
	remaining := make(map[string]int)
	for _, t := range todos {
		if t.Cancelled {
			cancelled[t.ID.String()] = struct{}{}
			continue
		}
		if phase != nil && !phase.Covers(t.ID) {
			continue
		}
		remaining[t.ID.Phase().String()]++
	}
	for _, s := range scan.Steps {
		// Leftover steps under a cancelled TODO are abandoned work; they
		// stay in place but do not hold the phase open.
		if _, ok := cancelled[s.ID.Todo().String()]; ok {
			continue
		}
		remaining[s.ID.Phase().String()]++
	}

	docs, err := p.repo.ListPhaseDocs()
	if err != nil {
		return fmt.Errorf("promote: list phases: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	promoted := make(map[string]bool)
	for _, doc := range docs {
		if phase != nil && !phase.Covers(doc.ID) {
			continue
		}
		if remaining[doc.ID.String()] > 0 {
			continue
		}
		if promoted[doc.ID.String()] {
			p.log.Warn("promote: extra phase document %s for %s left in place", doc.Filename, doc.ID)
			continue
		}
		if err := p.repo.MovePhaseToDone(doc.Filename); err != nil {
			if errors.Is(err, repo.ErrAlreadyMoved) {
				p.log.Info("promote: phase %s already moved", doc.Filename)
				continue
			}
			return fmt.Errorf("promote: move phase %s: %w", doc.Filename, err)
		}
		promoted[doc.ID.String()] = true
		p.log.Info("promote: phase %s done", doc.ID)
	}
	return nil
}

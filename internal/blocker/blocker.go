// Package blocker implements the manual-intervention gate. Any file in the
// action-required area halts resolution until an operator acts; a
// "resolved_" marker signals the named step was handled externally and
// lets the engine promote it and clear the marker.
package blocker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwhitby/nextstep/internal/logbook"
	"github.com/mwhitby/nextstep/internal/promote"
	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/stepid"
)

const (
	resolvedPrefix = "resolved_"
	stepPrefix     = "step_"
)

// Marker is a parsed file from the action-required area.
type Marker struct {
	Filename string
	Resolved bool

	// StepID names the step the marker concerns, when the filename
	// follows the step_<id>_<reason>.md convention. HasStep reports
	// whether the id parsed; free-form marker names still block.
	StepID  stepid.ID
	HasStep bool
	Reason  string
}

// ParseMarker interprets a marker filename.
func ParseMarker(filename string) Marker {
	m := Marker{Filename: filename}
	rest := filename
	if trimmed, ok := strings.CutPrefix(rest, resolvedPrefix); ok {
		m.Resolved = true
		rest = trimmed
	}
	trimmed, ok := strings.CutPrefix(rest, stepPrefix)
	if !ok {
		return m
	}
	id, parsed := stepid.Parse(trimmed)
	if !parsed || id.Depth() == 0 {
		return m
	}
	m.StepID = id
	m.HasStep = true
	reason := strings.TrimPrefix(trimmed, id.String())
	reason = strings.TrimSuffix(reason, ".md")
	m.Reason = strings.Trim(reason, "_")
	return m
}

// Gate checks and reconciles the action-required area. Reconcile must run
// before every resolution pass so that an externally resolved blocker
// unblocks the very next call.
type Gate struct {
	repo     repo.Repository
	promoter *promote.Promoter
	log      *logbook.Logbook
}

// NewGate wires the gate to the repository and completion promoter.
func NewGate(r repo.Repository, p *promote.Promoter, log *logbook.Logbook) *Gate {
	return &Gate{repo: r, promoter: p, log: log}
}

// Reconcile consumes every resolved marker: the named step is moved to
// done (when still pending), the completion promoter runs, and the marker
// is deleted together with the original marker it answers. Operators
// signal resolution by creating the resolved_ file, not by deleting the
// original, so the original must not keep the gate closed. Markers that
// resolve nothing recognizable are deleted with a warning so they cannot
// wedge the gate forever.
func (g *Gate) Reconcile() error {
	names, err := g.repo.ListBlockerFiles()
	if err != nil {
		return fmt.Errorf("blocker: list markers: %w", err)
	}
	for _, name := range names {
		marker := ParseMarker(name)
		if !marker.Resolved {
			continue
		}
		if marker.HasStep {
			if err := g.completeStep(marker.StepID); err != nil {
				return err
			}
		} else {
			g.log.Warn("blocker: resolved marker %s names no step", name)
		}
		if err := g.repo.RemoveBlockerFile(name); err != nil {
			return fmt.Errorf("blocker: consume marker %s: %w", name, err)
		}
		original := strings.TrimPrefix(name, resolvedPrefix)
		if err := g.repo.RemoveBlockerFile(original); err != nil {
			return fmt.Errorf("blocker: clear original marker %s: %w", original, err)
		}
		g.log.Info("blocker: consumed resolved marker %s", name)
	}
	return nil
}

// Check returns the active (non-resolved) markers. Resolution must not
// proceed while any exist; the full list is returned so an operator can
// act on all of them at once.
func (g *Gate) Check() ([]Marker, error) {
	names, err := g.repo.ListBlockerFiles()
	if err != nil {
		return nil, fmt.Errorf("blocker: list markers: %w", err)
	}
	var active []Marker
	for _, name := range names {
		marker := ParseMarker(name)
		if marker.Resolved {
			continue
		}
		active = append(active, marker)
	}
	return active, nil
}

func (g *Gate) completeStep(id stepid.ID) error {
	scan, err := g.repo.ListPendingSteps(&id)
	if err != nil {
		return fmt.Errorf("blocker: scan for %s: %w", id, err)
	}
	moved := false
	for _, step := range scan.Steps {
		if !step.ID.Equal(id) {
			continue
		}
		if err := g.repo.MoveStepToDone(step.Filename); err != nil {
			if errors.Is(err, repo.ErrAlreadyMoved) {
				g.log.Info("blocker: step %s already moved", step.Filename)
				continue
			}
			return fmt.Errorf("blocker: move resolved step %s: %w", step.Filename, err)
		}
		moved = true
	}
	if !moved {
		g.log.Info("blocker: resolved step %s not pending, promotion only", id)
	}
	if g.promoter != nil {
		if err := g.promoter.StepCompleted(id); err != nil {
			return err
		}
	}
	return nil
}

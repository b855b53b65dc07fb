// Package resolve computes which pending step, if any, may run next. It is
// pure: callers hand it the pending scan and the done-id set, and it hands
// back a typed result. All filesystem effects stay in the caller.
package resolve

import (
	"sort"

	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/stepid"
)

// Kind enumerates resolution results.
type Kind int

const (
	// KindStep means exactly one ready step was selected.
	KindStep Kind = iota
	// KindBlocked means pending work exists but none of it is ready.
	KindBlocked
	// KindEmpty means no pending work remains.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindStep:
		return "step"
	case KindBlocked:
		return "blocked"
	case KindEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Unready describes a pending step that cannot run yet and the dependency
// ids holding it back.
type Unready struct {
	ID      stepid.ID
	Missing []stepid.ID
}

// Result is the outcome of one resolution pass.
type Result struct {
	Kind Kind

	// Step is set when Kind == KindStep.
	Step *repo.Step

	// Unready lists every pending-but-blocked step when Kind == KindBlocked,
	// so an operator can see the whole stuck set, not just the first.
	Unready []Unready
}

// MissingDependencySatisfied is the policy that treats a declared
// dependency as satisfied when it is neither done nor present among the
// pending steps. This tolerates dependencies on steps that were pruned or
// never materialized. It is also a documented hazard: a dependency file
// deleted by mistake silently stops gating its dependents. Kept as a named
// function so the rule can be audited or toggled in one place.
func MissingDependencySatisfied(dep stepid.ID, pending map[string]struct{}) bool {
	_, exists := pending[dep.String()]
	return !exists
}

// Next selects the next runnable step. Selection is deterministic: ready
// steps are ordered by ascending raw filename, so repeated calls over an
// unchanged tree pick the same step. The exists probe re-verifies the
// chosen file immediately before returning; a vanished candidate is
// skipped and, if every candidate vanished, the result degrades to Empty.
func Next(steps []repo.Step, done map[string]struct{}, exists func(filename string) bool) Result {
	if len(steps) == 0 {
		return Result{Kind: KindEmpty}
	}

	pendingIDs := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		pendingIDs[s.ID.String()] = struct{}{}
	}

	var ready []repo.Step
	var unready []Unready
	for _, s := range steps {
		missing := unmetDependencies(s, done, pendingIDs)
		if len(missing) == 0 {
			ready = append(ready, s)
		} else {
			unready = append(unready, Unready{ID: s.ID, Missing: missing})
		}
	}

	if len(ready) == 0 {
		sort.Slice(unready, func(i, j int) bool {
			return stepid.Compare(unready[i].ID, unready[j].ID) < 0
		})
		return Result{Kind: KindBlocked, Unready: unready}
	}

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Filename < ready[j].Filename
	})
	for i := range ready {
		if exists != nil && !exists(ready[i].Filename) {
			continue
		}
		step := ready[i]
		return Result{Kind: KindStep, Step: &step}
	}
	// Every ready candidate disappeared between scan and selection.
	return Result{Kind: KindEmpty}
}

func unmetDependencies(s repo.Step, done, pending map[string]struct{}) []stepid.ID {
	var missing []stepid.ID
	for _, dep := range s.DependsOn {
		if _, isDone := done[dep.String()]; isDone {
			continue
		}
		if MissingDependencySatisfied(dep, pending) {
			continue
		}
		missing = append(missing, dep)
	}
	return missing
}

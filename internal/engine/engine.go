// Package engine runs one full resolution pass: reconcile resolved
// blockers, gate on active ones, scan pending work, pick the next step,
// publish the artifacts, and cascade completion promotions when a scope
// drains. Fatal conditions (template or config shape) come back as errors;
// everything else is a typed outcome.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mwhitby/nextstep/internal/blocker"
	"github.com/mwhitby/nextstep/internal/config"
	"github.com/mwhitby/nextstep/internal/logbook"
	"github.com/mwhitby/nextstep/internal/profile"
	"github.com/mwhitby/nextstep/internal/promote"
	"github.com/mwhitby/nextstep/internal/prompt"
	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/resolve"
	"github.com/mwhitby/nextstep/internal/stepid"
)

// Outcome is the four-way result taxonomy of a resolution pass. Fatal is
// never returned as a value; fatal conditions surface as errors.
type Outcome int

const (
	// NextWritten means a step was selected and both artifacts published.
	NextWritten Outcome = iota
	// Blocked means resolution halted: active markers or unmet dependencies.
	Blocked
	// Empty means no pending work remains in the requested scope.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case NextWritten:
		return "NEXT_WRITTEN"
	case Blocked:
		return "BLOCKED"
	case Empty:
		return "EMPTY"
	default:
		return "UNKNOWN"
	}
}

// ErrStepNotPending reports a completion request for a step with no
// pending file behind it.
var ErrStepNotPending = errors.New("engine: step is not pending")

// Resolution is the full report of one pass.
type Resolution struct {
	Outcome Outcome

	// Step and Recommendation are set when Outcome == NextWritten.
	Step           *repo.Step
	Recommendation profile.Recommendation

	// Blockers holds the active markers when the gate halted the pass.
	Blockers []blocker.Marker

	// Unready lists pending-but-blocked steps when dependencies halted it.
	Unready []resolve.Unready

	// NoStepsInPhase marks an Empty outcome where the phase filter matched
	// nothing but pending work exists elsewhere.
	NoStepsInPhase bool

	Warnings []string
}

// Engine ties the repository, configuration, gate, promoter, and artifact
// writer together behind the per-invocation operations.
type Engine struct {
	repo     repo.Repository
	cfg      *config.Config
	gate     *blocker.Gate
	promoter *promote.Promoter
	writer   *prompt.Writer
	log      *logbook.Logbook
}

// New wires an engine over the repository and loaded configuration. The
// logbook may be nil.
func New(r repo.Repository, cfg *config.Config, log *logbook.Logbook) *Engine {
	promoter := promote.New(r, log)
	return &Engine{
		repo:     r,
		cfg:      cfg,
		gate:     blocker.NewGate(r, promoter, log),
		promoter: promoter,
		writer:   prompt.NewWriter(r, cfg.Layout),
		log:      log,
	}
}

// Writer exposes the artifact writer, so tests can pin its clock.
func (e *Engine) Writer() *prompt.Writer { return e.writer }

// ResolveNext runs one resolution pass, optionally scoped to a phase or
// TODO id. Exactly one of the taxonomy outcomes is returned unless a fatal
// condition aborts the pass.
func (e *Engine) ResolveNext(filter *stepid.ID) (Resolution, error) {
	if err := e.gate.Reconcile(); err != nil {
		return Resolution{}, err
	}
	active, err := e.gate.Check()
	if err != nil {
		return Resolution{}, err
	}
	if len(active) > 0 {
		e.log.Warn("engine: %d active blocker(s), resolution halted", len(active))
		return Resolution{Outcome: Blocked, Blockers: active}, nil
	}

	scan, err := e.repo.ListPendingSteps(filter)
	if err != nil {
		return Resolution{}, fmt.Errorf("engine: scan pending: %w", err)
	}
	if len(scan.Steps) == 0 {
		return e.emptyResolution(filter, scan)
	}

	done, err := e.repo.ListDoneStepIDs()
	if err != nil {
		return Resolution{}, fmt.Errorf("engine: list done: %w", err)
	}

	result := resolve.Next(scan.Steps, done, e.repo.StepExists)
	switch result.Kind {
	case resolve.KindStep:
		return e.publish(*result.Step, scan.Warnings)
	case resolve.KindBlocked:
		e.log.Warn("engine: %d pending step(s), none ready", len(result.Unready))
		return Resolution{Outcome: Blocked, Unready: result.Unready, Warnings: scan.Warnings}, nil
	default:
		// Every candidate vanished between scan and selection.
		return e.emptyResolution(filter, scan)
	}
}

func (e *Engine) emptyResolution(filter *stepid.ID, scan repo.ScanResult) (Resolution, error) {
	res := Resolution{Outcome: Empty, Warnings: scan.Warnings}
	if filter != nil && scan.TotalPending > 0 {
		res.NoStepsInPhase = true
		e.log.Info("engine: no pending steps under %s, %d elsewhere", filter, scan.TotalPending)
	} else {
		e.log.Info("engine: no pending work remains")
	}
	if err := e.promoter.PhaseExhausted(filter); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (e *Engine) publish(step repo.Step, warnings []string) (Resolution, error) {
	body, err := e.repo.ReadStep(step.Filename)
	if err != nil {
		return Resolution{}, fmt.Errorf("engine: read step %s: %w", step.Filename, err)
	}
	rec := profile.Recommend(step, body, e.cfg.Project.Profiles)

	tmpl, err := prompt.LoadTemplate(e.cfg.TemplatePath())
	if err != nil {
		return Resolution{}, err
	}
	in := prompt.Input{
		Step:           step,
		Recommendation: rec,
		OutputStyle:    e.cfg.Project.Fragments.OutputStyle,
		ManualTests:    e.cfg.Project.Fragments.ManualTests,
	}
	if err := e.writer.Write(tmpl, in); err != nil {
		return Resolution{}, err
	}
	e.log.Info("engine: next step %s (%s)", step.ID, rec.Profile)
	return Resolution{
		Outcome:        NextWritten,
		Step:           &step,
		Recommendation: rec,
		Warnings:       warnings,
	}, nil
}

// CompleteStep moves the named pending step to done and runs the
// completion cascade. Completing a step that is already done is a no-op;
// naming one that never existed is an error.
func (e *Engine) CompleteStep(id stepid.ID) error {
	scan, err := e.repo.ListPendingSteps(&id)
	if err != nil {
		return fmt.Errorf("engine: scan for %s: %w", id, err)
	}
	moved := false
	for _, step := range scan.Steps {
		if !step.ID.Equal(id) {
			continue
		}
		if err := e.repo.MoveStepToDone(step.Filename); err != nil {
			if errors.Is(err, repo.ErrAlreadyMoved) {
				e.log.Info("engine: step %s already moved", step.Filename)
				continue
			}
			return fmt.Errorf("engine: move step %s: %w", step.Filename, err)
		}
		e.log.Info("engine: step %s completed", step.ID)
		moved = true
	}
	if !moved {
		done, err := e.repo.ListDoneStepIDs()
		if err != nil {
			return fmt.Errorf("engine: list done: %w", err)
		}
		if _, ok := done[id.String()]; !ok {
			return fmt.Errorf("%w: %s", ErrStepNotPending, id)
		}
	}
	if err := e.promoter.StepCompleted(id); err != nil {
		return err
	}
	phase := id.Phase()
	return e.promoter.PhaseExhausted(&phase)
}

// TodoStatus summarizes one TODO scope for display.
type TodoStatus struct {
	ID           stepid.ID
	Filename     string
	Cancelled    bool
	PendingSteps int
}

// PhaseStatus groups the TODOs of one phase.
type PhaseStatus struct {
	ID    stepid.ID
	Todos []TodoStatus
}

// Status is a read-only snapshot of the active areas.
type Status struct {
	Phases       []PhaseStatus
	Blockers     []blocker.Marker
	TotalPending int
	TotalDone    int
	Warnings     []string
}

// Status builds a snapshot without mutating anything. Pending steps whose
// TODO file is absent still show up, under a synthesized entry.
func (e *Engine) Status() (Status, error) {
	scan, err := e.repo.ListPendingSteps(nil)
	if err != nil {
		return Status{}, fmt.Errorf("engine: scan pending: %w", err)
	}
	done, err := e.repo.ListDoneStepIDs()
	if err != nil {
		return Status{}, fmt.Errorf("engine: list done: %w", err)
	}
	todos, err := e.repo.ListTodos()
	if err != nil {
		return Status{}, fmt.Errorf("engine: list todos: %w", err)
	}
	blockers, err := e.gate.Check()
	if err != nil {
		return Status{}, err
	}

	byTodo := make(map[string]*TodoStatus)
	order := []string{}
	for _, t := range todos {
		key := t.ID.String()
		if _, seen := byTodo[key]; !seen {
			order = append(order, key)
		}
		byTodo[key] = &TodoStatus{ID: t.ID, Filename: t.Filename, Cancelled: t.Cancelled}
	}
	for _, s := range scan.Steps {
		key := s.ID.Todo().String()
		entry, ok := byTodo[key]
		if !ok {
			entry = &TodoStatus{ID: s.ID.Todo()}
			byTodo[key] = entry
			order = append(order, key)
		}
		entry.PendingSteps++
	}

	byPhase := make(map[string][]TodoStatus)
	var phaseOrder []string
	for _, key := range order {
		t := byTodo[key]
		phase := t.ID.Phase().String()
		if _, seen := byPhase[phase]; !seen {
			phaseOrder = append(phaseOrder, phase)
		}
		byPhase[phase] = append(byPhase[phase], *t)
	}
	sort.Strings(phaseOrder)

	st := Status{
		Blockers:     blockers,
		TotalPending: scan.TotalPending,
		TotalDone:    len(done),
		Warnings:     scan.Warnings,
	}
	for _, phase := range phaseOrder {
		group := byPhase[phase]
		sort.Slice(group, func(i, j int) bool {
			return stepid.Compare(group[i].ID, group[j].ID) < 0
		})
		id, _ := stepid.Parse(phase)
		st.Phases = append(st.Phases, PhaseStatus{ID: id, Todos: group})
	}
	return st, nil
}

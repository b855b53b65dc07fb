package render

import (
	"strings"
	"testing"

	"github.com/mwhitby/nextstep/internal/blocker"
	"github.com/mwhitby/nextstep/internal/engine"
	"github.com/mwhitby/nextstep/internal/profile"
	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/resolve"
	"github.com/mwhitby/nextstep/internal/stepid"
)

func TestResolutionNextWritten(t *testing.T) {
	step := repo.Step{ID: stepid.MustParse("P1_01.2"), Path: "/p/.nextstep/steps/P1_01.2.md"}
	out := Resolution(engine.Resolution{
		Outcome:        engine.NextWritten,
		Step:           &step,
		Recommendation: profile.Recommendation{Profile: "careful", Reason: "schema changes"},
	})
	for _, want := range []string{"NEXT_WRITTEN", "P1_01.2", "careful"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolutionBlocked(t *testing.T) {
	out := Resolution(engine.Resolution{
		Outcome:  engine.Blocked,
		Blockers: []blocker.Marker{{Filename: "step_P1_01.2_failed.md", Reason: "failed"}},
		Unready: []resolve.Unready{{
			ID:      stepid.MustParse("P1_01.3"),
			Missing: []stepid.ID{stepid.MustParse("P1_01.2")},
		}},
	})
	for _, want := range []string{"BLOCKED", "step_P1_01.2_failed.md", "P1_01.3 waits on P1_01.2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolutionEmptyScoped(t *testing.T) {
	out := Resolution(engine.Resolution{Outcome: engine.Empty, NoStepsInPhase: true})
	if !strings.Contains(out, "EMPTY") || !strings.Contains(out, "work remains elsewhere") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStatusListsPhasesAndBlockers(t *testing.T) {
	out := Status(engine.Status{
		TotalPending: 3,
		TotalDone:    2,
		Blockers:     []blocker.Marker{{Filename: "needs_human_review.md"}},
		Phases: []engine.PhaseStatus{{
			ID: stepid.MustParse("P1"),
			Todos: []engine.TodoStatus{
				{ID: stepid.MustParse("P1_01"), Filename: "P1_01_setup.md", PendingSteps: 3},
				{ID: stepid.MustParse("P1_02"), Filename: "P1_02_dropped.md", Cancelled: true},
			},
		}},
		Warnings: []string{"P1_01.9.md: unparseable dependency tokens: x"},
	})
	for _, want := range []string{
		"3 pending step(s), 2 done",
		"needs_human_review.md",
		"P1_01_setup.md",
		"cancelled",
		"unparseable dependency tokens",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

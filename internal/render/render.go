// Package render formats engine results for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwhitby/nextstep/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#50C878"))

	blockedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	cancelledStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("#666666"))
)

// Resolution renders the outcome of one resolution pass.
func Resolution(res engine.Resolution) string {
	var b strings.Builder
	switch res.Outcome {
	case engine.NextWritten:
		b.WriteString(okStyle.Render("NEXT_WRITTEN") + "\n")
		b.WriteString(fmt.Sprintf("Step:    %s\n", titleStyle.Render(res.Step.ID.String())))
		b.WriteString(fmt.Sprintf("File:    %s\n", res.Step.Path))
		b.WriteString(fmt.Sprintf("Profile: %s", res.Recommendation.Profile))
		if res.Recommendation.Reason != "" {
			b.WriteString(dimStyle.Render(" (" + res.Recommendation.Reason + ")"))
		}
		b.WriteString("\n")
	case engine.Blocked:
		b.WriteString(blockedStyle.Render("BLOCKED") + "\n")
		for _, marker := range res.Blockers {
			line := "action required: " + marker.Filename
			if marker.Reason != "" {
				line += dimStyle.Render(" (" + marker.Reason + ")")
			}
			b.WriteString("  " + line + "\n")
		}
		for _, u := range res.Unready {
			ids := make([]string, len(u.Missing))
			for i, dep := range u.Missing {
				ids[i] = dep.String()
			}
			b.WriteString(fmt.Sprintf("  %s waits on %s\n", u.ID, strings.Join(ids, ", ")))
		}
	case engine.Empty:
		b.WriteString(dimStyle.Render("EMPTY") + "\n")
		if res.NoStepsInPhase {
			b.WriteString("  no pending steps in the requested scope; work remains elsewhere\n")
		} else {
			b.WriteString("  no pending work remains\n")
		}
	}
	for _, w := range res.Warnings {
		b.WriteString(warnStyle.Render("warning: "+w) + "\n")
	}
	return b.String()
}

// Status renders the phases/TODOs/steps snapshot.
func Status(st engine.Status) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("nextstep status") + "\n")
	b.WriteString(fmt.Sprintf("%d pending step(s), %d done\n", st.TotalPending, st.TotalDone))

	if len(st.Blockers) > 0 {
		b.WriteString(blockedStyle.Render(fmt.Sprintf("%d active blocker(s)", len(st.Blockers))) + "\n")
		for _, marker := range st.Blockers {
			b.WriteString("  " + marker.Filename + "\n")
		}
	}

	for _, phase := range st.Phases {
		b.WriteString("\n" + titleStyle.Render(phase.ID.String()) + "\n")
		for _, todo := range phase.Todos {
			label := todo.ID.String()
			if todo.Filename != "" {
				label = todo.Filename
			}
			switch {
			case todo.Cancelled:
				b.WriteString("  " + cancelledStyle.Render(label) + dimStyle.Render(" cancelled") + "\n")
			case todo.PendingSteps == 0:
				b.WriteString("  " + label + dimStyle.Render(" no pending steps") + "\n")
			default:
				b.WriteString(fmt.Sprintf("  %s %s\n", label,
					okStyle.Render(fmt.Sprintf("%d pending", todo.PendingSteps))))
			}
		}
	}
	if len(st.Phases) == 0 {
		b.WriteString(dimStyle.Render("no active phases") + "\n")
	}
	for _, w := range st.Warnings {
		b.WriteString(warnStyle.Render("warning: "+w) + "\n")
	}
	return b.String()
}

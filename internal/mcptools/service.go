// Package mcptools exposes the engine over the Model Context Protocol so
// an agent can drive resolution directly instead of shelling out to the
// CLI. Three tools: next_step, complete_step, get_status.
package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwhitby/nextstep/internal/engine"
	"github.com/mwhitby/nextstep/internal/layout"
	"github.com/mwhitby/nextstep/internal/stepid"
)

// version is set by the linker at build time.
var version = "dev"

// Service handles MCP tool calls by delegating to the engine.
type Service struct {
	engine *engine.Engine
	layout layout.Layout
}

// NewService wraps an engine for MCP exposure.
func NewService(e *engine.Engine, l layout.Layout) *Service {
	return &Service{engine: e, layout: l}
}

// NextStep runs one resolution pass. The outcome taxonomy is carried in
// the output rather than as tool errors; only fatal conditions error.
func (s *Service) NextStep(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input NextStepInput,
) (*mcp.CallToolResult, NextStepOutput, error) {
	var filter *stepid.ID
	if input.Phase != "" {
		id, ok := stepid.Parse(input.Phase)
		if !ok {
			return nil, NextStepOutput{}, fmt.Errorf("invalid phase filter %q", input.Phase)
		}
		filter = &id
	}

	res, err := s.engine.ResolveNext(filter)
	if err != nil {
		return nil, NextStepOutput{}, err
	}

	out := NextStepOutput{
		Outcome:        res.Outcome.String(),
		NoStepsInScope: res.NoStepsInPhase,
		Warnings:       res.Warnings,
	}
	switch res.Outcome {
	case engine.NextWritten:
		out.StepID = res.Step.ID.String()
		out.StepFile = res.Step.Path
		out.Instructions = s.layout.InstructionsPath()
		out.Profile = res.Recommendation.Profile
		out.ProfileReason = res.Recommendation.Reason
	case engine.Blocked:
		for _, marker := range res.Blockers {
			out.Blockers = append(out.Blockers, marker.Filename)
		}
		for _, u := range res.Unready {
			out.UnreadySteps = append(out.UnreadySteps, u.ID.String())
		}
	}
	return nil, out, nil
}

// CompleteStep moves the named step to done and runs the cascade.
func (s *Service) CompleteStep(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CompleteStepInput,
) (*mcp.CallToolResult, CompleteStepOutput, error) {
	id, ok := stepid.Parse(input.StepID)
	if !ok || id.Depth() < 2 {
		return nil, CompleteStepOutput{}, fmt.Errorf("invalid step id %q", input.StepID)
	}
	if err := s.engine.CompleteStep(id); err != nil {
		return nil, CompleteStepOutput{}, err
	}
	return nil, CompleteStepOutput{
		StepID:  id.String(),
		Message: fmt.Sprintf("step %s completed; owning TODO and phase promoted if drained", id),
	}, nil
}

// GetStatus reports the phases/TODOs/steps snapshot.
func (s *Service) GetStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetStatusInput,
) (*mcp.CallToolResult, GetStatusOutput, error) {
	st, err := s.engine.Status()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	out := GetStatusOutput{
		TotalPending: st.TotalPending,
		TotalDone:    st.TotalDone,
		Warnings:     st.Warnings,
	}
	for _, marker := range st.Blockers {
		out.Blockers = append(out.Blockers, marker.Filename)
	}
	for _, phase := range st.Phases {
		summary := PhaseSummary{ID: phase.ID.String()}
		for _, todo := range phase.Todos {
			summary.Todos = append(summary.Todos, TodoSummary{
				ID:           todo.ID.String(),
				Filename:     todo.Filename,
				Cancelled:    todo.Cancelled,
				PendingSteps: todo.PendingSteps,
			})
		}
		out.Phases = append(out.Phases, summary)
	}
	return nil, out, nil
}

// NewServer creates the MCP server with the three engine tools registered.
func NewServer(e *engine.Engine, l layout.Layout) *mcp.Server {
	svc := NewService(e, l)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nextstep",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "next_step",
		Description: "Resolve the next eligible step and write the prompt artifacts. Returns NEXT_WRITTEN, BLOCKED, or EMPTY.",
	}, svc.NextStep)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_step",
		Description: "Mark a step as done and cascade TODO/phase promotions.",
	}, svc.CompleteStep)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Get the phases, TODOs, pending step counts, and active blockers.",
	}, svc.GetStatus)

	return server
}

// RunStdio serves MCP on stdio, blocking until stdin closes or the context
// is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

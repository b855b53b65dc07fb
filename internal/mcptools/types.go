package mcptools

// NextStepInput requests one resolution pass.
type NextStepInput struct {
	Phase string `json:"phase,omitempty" jsonschema:"limit resolution to one phase or TODO id (e.g. P1 or P1_01)"`
}

// NextStepOutput reports the outcome of a resolution pass.
type NextStepOutput struct {
	Outcome        string   `json:"outcome" jsonschema:"NEXT_WRITTEN, BLOCKED, or EMPTY"`
	StepID         string   `json:"stepId,omitempty" jsonschema:"identifier of the selected step"`
	StepFile       string   `json:"stepFile,omitempty" jsonschema:"path to the selected step file"`
	Instructions   string   `json:"instructions,omitempty" jsonschema:"path to the rendered instruction artifact"`
	Profile        string   `json:"profile,omitempty" jsonschema:"recommended execution profile"`
	ProfileReason  string   `json:"profileReason,omitempty" jsonschema:"why the profile was recommended"`
	Blockers       []string `json:"blockers,omitempty" jsonschema:"active blocker marker filenames"`
	UnreadySteps   []string `json:"unreadySteps,omitempty" jsonschema:"pending steps waiting on unmet dependencies"`
	NoStepsInScope bool     `json:"noStepsInScope,omitempty" jsonschema:"true when the phase filter matched nothing but work exists elsewhere"`
	Warnings       []string `json:"warnings,omitempty" jsonschema:"scan warnings such as malformed dependency sections"`
}

// CompleteStepInput marks a step as done.
type CompleteStepInput struct {
	StepID string `json:"stepId" jsonschema:"identifier of the step to complete (e.g. P1_01.2)"`
}

// CompleteStepOutput confirms a completion.
type CompleteStepOutput struct {
	StepID  string `json:"stepId" jsonschema:"identifier that was completed"`
	Message string `json:"message" jsonschema:"what happened, including any cascade promotions"`
}

// GetStatusInput requests a snapshot; it has no parameters.
type GetStatusInput struct{}

// TodoSummary is one TODO scope in the status snapshot.
type TodoSummary struct {
	ID           string `json:"id" jsonschema:"TODO identifier"`
	Filename     string `json:"filename,omitempty" jsonschema:"TODO filename; empty when only steps reference the id"`
	Cancelled    bool   `json:"cancelled,omitempty" jsonschema:"true when the TODO carries a cancelled status marker"`
	PendingSteps int    `json:"pendingSteps" jsonschema:"number of pending steps under this TODO"`
}

// PhaseSummary groups the TODOs of one phase.
type PhaseSummary struct {
	ID    string        `json:"id" jsonschema:"phase identifier"`
	Todos []TodoSummary `json:"todos" jsonschema:"TODO scopes in this phase"`
}

// GetStatusOutput is the snapshot of the active areas.
type GetStatusOutput struct {
	TotalPending int            `json:"totalPending" jsonschema:"pending steps across all phases"`
	TotalDone    int            `json:"totalDone" jsonschema:"completed steps"`
	Blockers     []string       `json:"blockers,omitempty" jsonschema:"active blocker marker filenames"`
	Phases       []PhaseSummary `json:"phases" jsonschema:"active phases with their TODO scopes"`
	Warnings     []string       `json:"warnings,omitempty" jsonschema:"scan warnings"`
}

// Package prompt renders the resolution artifacts: the short pointer file
// an executor polls for and the fully substituted instruction payload.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mwhitby/nextstep/internal/layout"
	"github.com/mwhitby/nextstep/internal/profile"
	"github.com/mwhitby/nextstep/internal/repo"
)

// Placeholders recognized in the instruction template. StepFile is
// required; the fragments are optional and collapse to nothing when the
// project configures no text for them.
const (
	PlaceholderStepFile    = "{{STEP_FILE}}"
	PlaceholderOutputStyle = "{{OUTPUT_STYLE}}"
	PlaceholderManualTests = "{{MANUAL_TESTS}}"
)

// ErrTemplatePlaceholder reports a template missing the required step-file
// placeholder. A template that cannot name the step is a configuration
// error, not a degraded mode.
var ErrTemplatePlaceholder = errors.New("prompt: template is missing " + PlaceholderStepFile)

//go:embed template.md
var defaultTemplate string

// Input carries everything one resolution needs rendered.
type Input struct {
	Step           repo.Step
	Recommendation profile.Recommendation
	OutputStyle    string
	ManualTests    string
}

// LoadTemplate returns the template text for the given override path, or
// the embedded default when the path is empty.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt: read template %s: %w", path, err)
	}
	return string(data), nil
}

// Render substitutes the placeholders into the template. The step-file
// placeholder must be present; fragment placeholders are optional and an
// empty fragment removes the placeholder line cleanly.
func Render(tmpl string, in Input) (string, error) {
	if !strings.Contains(tmpl, PlaceholderStepFile) {
		return "", ErrTemplatePlaceholder
	}
	out := strings.ReplaceAll(tmpl, PlaceholderStepFile, in.Step.Path)
	out = substituteFragment(out, PlaceholderOutputStyle, in.OutputStyle)
	out = substituteFragment(out, PlaceholderManualTests, in.ManualTests)
	return out, nil
}

// substituteFragment replaces the placeholder with the fragment text, or
// drops the placeholder's whole line when the fragment is empty.
func substituteFragment(text, placeholder, fragment string) string {
	if !strings.Contains(text, placeholder) {
		return text
	}
	if fragment != "" {
		return strings.ReplaceAll(text, placeholder, fragment)
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(strings.ReplaceAll(line, placeholder, "")) == "" &&
			strings.Contains(line, placeholder) {
			continue
		}
		kept = append(kept, strings.ReplaceAll(line, placeholder, ""))
	}
	return strings.Join(kept, "\n")
}

// PointerDoc builds the short artifact naming the chosen step. Executors
// that only need the file path read this one.
func PointerDoc(in Input, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Next step: %s\n\n", in.Step.ID)
	fmt.Fprintf(&b, "- File: %s\n", in.Step.Path)
	fmt.Fprintf(&b, "- Profile: %s\n", in.Recommendation.Profile)
	if in.Recommendation.Reason != "" {
		fmt.Fprintf(&b, "- Profile reason: %s\n", in.Recommendation.Reason)
	}
	fmt.Fprintf(&b, "- Resolved: %s\n", now.UTC().Format(time.RFC3339))
	return []byte(b.String())
}

// Writer publishes both artifacts through the repository's atomic
// write-through.
type Writer struct {
	repo   repo.Repository
	layout layout.Layout
	now    func() time.Time
}

// NewWriter builds a Writer over the repository and layout.
func NewWriter(r repo.Repository, l layout.Layout) *Writer {
	return &Writer{repo: r, layout: l, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Write renders and publishes the pointer and instruction artifacts.
func (w *Writer) Write(tmpl string, in Input) error {
	payload, err := Render(tmpl, in)
	if err != nil {
		return err
	}
	if err := w.repo.WriteArtifact(w.layout.InstructionsPath(), []byte(payload)); err != nil {
		return fmt.Errorf("prompt: write instructions: %w", err)
	}
	if err := w.repo.WriteArtifact(w.layout.PointerPath(), PointerDoc(in, w.now())); err != nil {
		return fmt.Errorf("prompt: write pointer: %w", err)
	}
	return nil
}

package stepfile

import (
	"strings"
	"testing"
)

func TestParseDependenciesInlineList(t *testing.T) {
	body := []byte("# Step P1_02.3\n\nDepends on: P1_02.1, P1_02.2\n\nDo the thing.\n")
	deps := ParseDependencies(body)
	if !deps.Declared {
		t.Fatal("expected declared section")
	}
	if deps.Warning != "" {
		t.Fatalf("unexpected warning: %s", deps.Warning)
	}
	if got := idStrings(deps); got != "P1_02.1,P1_02.2" {
		t.Fatalf("deps = %s", got)
	}
}

func TestParseDependenciesBulletList(t *testing.T) {
	body := []byte(strings.Join([]string{
		"## Depends on",
		"",
		"- P1_01.1",
		"- `P1_01.2`",
		"",
		"## Notes",
	}, "\n"))
	deps := ParseDependencies(body)
	if got := idStrings(deps); got != "P1_01.1,P1_01.2" {
		t.Fatalf("deps = %s", got)
	}
}

func TestParseDependenciesNone(t *testing.T) {
	deps := ParseDependencies([]byte("**Depends on:** none\n"))
	if !deps.Declared || len(deps.IDs) != 0 || deps.Warning != "" {
		t.Fatalf("none should declare an empty list, got %+v", deps)
	}
}

func TestParseDependenciesAbsentSection(t *testing.T) {
	deps := ParseDependencies([]byte("# Step\n\nJust prose, no declaration.\n"))
	if deps.Declared {
		t.Fatal("no section should report Declared=false")
	}
	if len(deps.IDs) != 0 {
		t.Fatalf("absent section must mean no dependencies, got %v", deps.IDs)
	}
}

func TestParseDependenciesMalformedTokensWarnButDoNotFail(t *testing.T) {
	deps := ParseDependencies([]byte("Depends on: P1_01.1, not-an-id\n"))
	if got := idStrings(deps); got != "P1_01.1" {
		t.Fatalf("deps = %s", got)
	}
	if deps.Warning == "" {
		t.Fatal("expected a warning for the bad token")
	}
}

func TestParseDependenciesEmptyValueWarns(t *testing.T) {
	deps := ParseDependencies([]byte("Depends on:\n\nNo list follows.\n"))
	if !deps.Declared || len(deps.IDs) != 0 {
		t.Fatalf("empty value should mean no dependencies, got %+v", deps)
	}
	if deps.Warning == "" {
		t.Fatal("expected a warning for the empty section")
	}
}

func TestParseStatusFrontMatter(t *testing.T) {
	content := []byte("---\nstatus: cancelled\n---\n\n# TODO P1_03\n")
	if got := ParseStatus(content); got != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got)
	}
}

func TestParseStatusInlineLine(t *testing.T) {
	cases := map[string]Status{
		"# TODO\n\nStatus: cancelled\n":   StatusCancelled,
		"**Status:** canceled\n":          StatusCancelled,
		"Status: in-progress\n":           StatusActive,
		"no marker at all\n":              StatusActive,
		"---\nstatus: active\n---\nbody":  StatusActive,
		"---\nbroken: [yaml\n---\nbody\n": StatusActive,
	}
	for content, want := range cases {
		if got := ParseStatus([]byte(content)); got != want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", content, got, want)
		}
	}
}

func idStrings(deps Dependencies) string {
	parts := make([]string, 0, len(deps.IDs))
	for _, id := range deps.IDs {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

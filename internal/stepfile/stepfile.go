// Package stepfile parses the structured fragments the engine reads out of
// step and TODO file bodies: the "Depends on" declaration and the status
// marker. Parsing returns structured results with typed "not declared"
// values instead of errors, so malformed authoring never halts a scan.
package stepfile

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwhitby/nextstep/internal/stepid"
)

// Dependencies is the parsed "Depends on" declaration of a step body.
type Dependencies struct {
	// IDs lists the declared dependency identifiers. Empty both for the
	// literal "none" and for an absent section.
	IDs []stepid.ID

	// Declared reports whether a "Depends on" section was found at all.
	Declared bool

	// Warning is non-empty when the section was present but some of its
	// tokens did not parse. The scan continues with the tokens that did;
	// the warning is surfaced so authoring mistakes stay visible.
	Warning string
}

// ParseDependencies extracts the first "Depends on" section from a step
// body. The section value is either the literal "none" or a list of
// identifiers, written inline after the label or as a bullet list on the
// following lines.
func ParseDependencies(body []byte) Dependencies {
	scanner := bufio.NewScanner(bytes.NewReader(normalizeNewlines(body)))
	for scanner.Scan() {
		value, ok := dependsOnLabel(scanner.Text())
		if !ok {
			continue
		}
		tokens := splitTokens(value)
		if len(tokens) == 0 {
			// Inline value absent; collect a bullet list below the label.
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				item, isBullet := strings.CutPrefix(line, "- ")
				if !isBullet {
					item, isBullet = strings.CutPrefix(line, "* ")
				}
				if !isBullet {
					break
				}
				tokens = append(tokens, splitTokens(item)...)
			}
		}
		return parseTokens(tokens)
	}
	return Dependencies{}
}

func parseTokens(tokens []string) Dependencies {
	deps := Dependencies{Declared: true}
	if len(tokens) == 0 {
		deps.Warning = "depends on section has no value"
		return deps
	}
	if len(tokens) == 1 && strings.EqualFold(tokens[0], "none") {
		return deps
	}
	var bad []string
	for _, token := range tokens {
		id, ok := stepid.Parse(token)
		if !ok || id.Depth() == 0 {
			bad = append(bad, token)
			continue
		}
		deps.IDs = append(deps.IDs, id)
	}
	if len(bad) > 0 {
		deps.Warning = fmt.Sprintf("unparseable dependency tokens: %s", strings.Join(bad, ", "))
	}
	return deps
}

// dependsOnLabel matches a line that carries the "Depends on" label in any
// of the markdown spellings authors use: plain, bold, or a heading.
func dependsOnLabel(line string) (value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "#>")
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimPrefix(trimmed, "**")
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "depends on") {
		return "", false
	}
	rest := trimmed[len("depends on"):]
	rest = strings.TrimPrefix(rest, "**")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimPrefix(rest, "**")
	return strings.TrimSpace(rest), true
}

func splitTokens(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "`*")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Status is the lifecycle marker carried inside a TODO file body.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

type frontMatter struct {
	Status string `yaml:"status"`
}

// ParseStatus reads the status marker from a TODO file. YAML frontmatter
// (`status: cancelled` between --- fences) wins; a plain `Status:` line in
// the body is accepted as a fallback. Anything unrecognized is active.
func ParseStatus(content []byte) Status {
	normalized := normalizeNewlines(content)
	if meta, ok := parseFrontMatter(normalized); ok {
		if cancelled(meta.Status) {
			return StatusCancelled
		}
		if meta.Status != "" {
			return StatusActive
		}
	}
	scanner := bufio.NewScanner(bytes.NewReader(normalized))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "**")
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "status") {
			continue
		}
		rest := line[len("status"):]
		rest = strings.TrimPrefix(rest, "**")
		rest = strings.TrimSpace(rest)
		rest = strings.TrimPrefix(rest, ":")
		if cancelled(rest) {
			return StatusCancelled
		}
		return StatusActive
	}
	return StatusActive
}

func parseFrontMatter(content []byte) (frontMatter, bool) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return frontMatter{}, false
	}
	rest := content[4:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) < 2 {
		return frontMatter{}, false
	}
	var meta frontMatter
	if err := yaml.Unmarshal(parts[0], &meta); err != nil {
		return frontMatter{}, false
	}
	return meta, true
}

func cancelled(value string) bool {
	value = strings.ToLower(strings.Trim(strings.TrimSpace(value), "`*"))
	return value == "cancelled" || value == "canceled"
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}

// Package stepid models the hierarchical identifiers that name phases,
// TODOs, and steps. Identifiers are embedded at the front of filenames:
// a phase segment (letters followed by digits, e.g. P1) and zero or more
// dot-separated numeric components joined to the phase with an underscore.
//
//	P1        phase
//	P1_01     TODO 01 inside phase P1
//	P1_01.2   step 2 of TODO P1_01
//	P1_01.2.1 sub-step, owned by P1_01.2
//
// Anything after the identifier must be a `_slug` suffix or a file
// extension; otherwise the filename does not carry an identifier.
package stepid

import "strings"

// ID is a parsed hierarchical identifier. The zero value is not valid;
// obtain IDs through Parse or MustParse.
type ID struct {
	phase string
	comps []string
}

// Parse extracts an identifier from the front of a filename or raw id
// string. It returns ok=false for non-conforming input so callers can
// filter silently.
func Parse(name string) (ID, bool) {
	pos := 0
	letters := 0
	for pos < len(name) && isLetter(name[pos]) {
		pos++
		letters++
	}
	if letters == 0 {
		return ID{}, false
	}
	digits := 0
	for pos < len(name) && isDigit(name[pos]) {
		pos++
		digits++
	}
	if digits == 0 {
		return ID{}, false
	}
	phase := name[:pos]

	var comps []string
	if pos < len(name) && name[pos] == '_' && pos+1 < len(name) && isDigit(name[pos+1]) {
		pos++ // consume the underscore
		for {
			start := pos
			for pos < len(name) && isDigit(name[pos]) {
				pos++
			}
			comps = append(comps, name[start:pos])
			if pos+1 < len(name) && name[pos] == '.' && isDigit(name[pos+1]) {
				pos++ // consume the dot, loop for the next component
				continue
			}
			break
		}
	}

	// The remainder must be empty, a slug, or an extension. A bare
	// alphanumeric continuation (P1x, P1_01a) is not an identifier.
	if pos < len(name) {
		switch name[pos] {
		case '_', '.':
		default:
			return ID{}, false
		}
	}
	return ID{phase: phase, comps: comps}, true
}

// MustParse parses a known-good identifier and panics otherwise. Intended
// for fixtures and package-level constants, not user input.
func MustParse(name string) ID {
	id, ok := Parse(name)
	if !ok {
		panic("stepid: invalid identifier " + name)
	}
	return id
}

// String renders the canonical identifier, e.g. "P1_01.2".
func (id ID) String() string {
	if len(id.comps) == 0 {
		return id.phase
	}
	return id.phase + "_" + strings.Join(id.comps, ".")
}

// IsZero reports whether the ID is the uninitialized zero value.
func (id ID) IsZero() bool {
	return id.phase == ""
}

// Depth returns the number of numeric components under the phase segment.
// Phases have depth 0, TODOs depth 1, steps depth 2 or more.
func (id ID) Depth() int {
	return len(id.comps)
}

// Parent strips the trailing dotted component. The parent of a TODO is its
// phase; the parent of a phase is the phase itself, making Parent total.
func (id ID) Parent() ID {
	if len(id.comps) == 0 {
		return id
	}
	return ID{phase: id.phase, comps: id.comps[:len(id.comps)-1]}
}

// Todo returns the identifier of the TODO that owns a step. For ids at or
// above TODO depth it behaves like Parent.
func (id ID) Todo() ID {
	return id.Parent()
}

// Phase returns the phase identifier.
func (id ID) Phase() ID {
	return ID{phase: id.phase}
}

// Covers reports whether other equals id or is nested anywhere under it.
// A phase covers every TODO and step that shares its phase segment.
func (id ID) Covers(other ID) bool {
	if id.phase != other.phase {
		return false
	}
	if len(other.comps) < len(id.comps) {
		return false
	}
	for i, c := range id.comps {
		if other.comps[i] != c {
			return false
		}
	}
	return true
}

// Equal reports identifier equality. Numeric components compare as written,
// so P1_01 and P1_1 are distinct ids.
func (id ID) Equal(other ID) bool {
	if id.phase != other.phase || len(id.comps) != len(other.comps) {
		return false
	}
	for i, c := range id.comps {
		if other.comps[i] != c {
			return false
		}
	}
	return true
}

// Compare orders identifiers structurally: phases lexicographically, then
// components numerically with a string tie-break so P1_01 and P1_1 keep a
// stable order. Returns -1, 0, or 1.
func Compare(a, b ID) int {
	if a.phase != b.phase {
		if a.phase < b.phase {
			return -1
		}
		return 1
	}
	n := len(a.comps)
	if len(b.comps) < n {
		n = len(b.comps)
	}
	for i := 0; i < n; i++ {
		if c := compareComponent(a.comps[i], b.comps[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.comps) < len(b.comps):
		return -1
	case len(a.comps) > len(b.comps):
		return 1
	default:
		return 0
	}
}

func compareComponent(a, b string) int {
	av, bv := numericValue(a), numericValue(b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func numericValue(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v*10 + int(s[i]-'0')
	}
	return v
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

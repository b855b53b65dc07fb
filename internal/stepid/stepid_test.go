package stepid

import (
	"sort"
	"testing"
)

func TestParseAcceptsConformingFilenames(t *testing.T) {
	cases := []struct {
		name  string
		want  string
		depth int
	}{
		{"P1", "P1", 0},
		{"P1.md", "P1", 0},
		{"P1_overview.md", "P1", 0},
		{"P1_01", "P1_01", 1},
		{"P1_01_cleanup.md", "P1_01", 1},
		{"P1_01.2", "P1_01.2", 2},
		{"P1_01.2_failed.md", "P1_01.2", 2},
		{"P2_04.1_b.md", "P2_04.1", 2},
		{"P10_03.1.2_split_work.md", "P10_03.1.2", 3},
		{"phase2_1.md", "phase2_1", 1},
	}
	for _, tc := range cases {
		id, ok := Parse(tc.name)
		if !ok {
			t.Fatalf("Parse(%q) rejected", tc.name)
		}
		if id.String() != tc.want {
			t.Fatalf("Parse(%q) = %s, want %s", tc.name, id, tc.want)
		}
		if id.Depth() != tc.depth {
			t.Fatalf("Parse(%q) depth = %d, want %d", tc.name, id.Depth(), tc.depth)
		}
	}
}

func TestParseRejectsNonConformingFilenames(t *testing.T) {
	for _, name := range []string{
		"",
		"README.md",
		"1_01.md",
		"P_01.md",
		"P1x.md",
		"P1_01a.md",
		"notes.txt",
		".gitkeep",
	} {
		if id, ok := Parse(name); ok {
			t.Fatalf("Parse(%q) accepted as %s, want rejection", name, id)
		}
	}
}

func TestParentAndPhaseAreTotal(t *testing.T) {
	step := MustParse("P1_01.2.1")
	if got := step.Parent().String(); got != "P1_01.2" {
		t.Fatalf("parent = %s, want P1_01.2", got)
	}
	todo := MustParse("P1_01")
	if got := todo.Parent().String(); got != "P1" {
		t.Fatalf("todo parent = %s, want P1", got)
	}
	phase := MustParse("P1")
	if got := phase.Parent().String(); got != "P1" {
		t.Fatalf("phase parent = %s, want P1", got)
	}
	if got := step.Phase().String(); got != "P1" {
		t.Fatalf("phase of %s = %s, want P1", step, got)
	}
}

func TestCovers(t *testing.T) {
	cases := []struct {
		owner, other string
		want         bool
	}{
		{"P1", "P1_01.2", true},
		{"P1", "P1", true},
		{"P1_01", "P1_01.2", true},
		{"P1_01", "P1_01", true},
		{"P1_01", "P1_02.1", false},
		{"P1_01.2", "P1_01", false},
		{"P1", "P2_01.1", false},
	}
	for _, tc := range cases {
		owner := MustParse(tc.owner)
		other := MustParse(tc.other)
		if got := owner.Covers(other); got != tc.want {
			t.Fatalf("%s covers %s = %v, want %v", tc.owner, tc.other, got, tc.want)
		}
	}
}

func TestCompareOrdersNumerically(t *testing.T) {
	ids := []ID{
		MustParse("P2_01"),
		MustParse("P1_10.2"),
		MustParse("P1_02.1"),
		MustParse("P1_02"),
		MustParse("P1"),
	}
	sort.Slice(ids, func(i, j int) bool { return Compare(ids[i], ids[j]) < 0 })
	want := []string{"P1", "P1_02", "P1_02.1", "P1_10.2", "P2_01"}
	for i, id := range ids {
		if id.String() != want[i] {
			t.Fatalf("sorted[%d] = %s, want %s", i, id, want[i])
		}
	}
}

func TestCompareDistinguishesLeadingZeros(t *testing.T) {
	a := MustParse("P1_01")
	b := MustParse("P1_1")
	if a.Equal(b) {
		t.Fatal("P1_01 and P1_1 must stay distinct ids")
	}
	if Compare(a, b) == 0 {
		t.Fatal("Compare must tie-break ids with equal numeric value")
	}
}

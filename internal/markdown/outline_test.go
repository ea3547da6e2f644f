package markdown

import (
	"reflect"
	"testing"
)

func paths(t *testing.T, o *Outliner, input string) []string {
	t.Helper()
	sections, err := o.Sections([]byte(input))
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}
	var out []string
	for _, s := range sections {
		out = append(out, s.Path)
	}
	return out
}

// TestSections_BasicHeaders tests an H1 with multiple H2s.
func TestSections_BasicHeaders(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

## Configuration

Config details here.
`

	got := paths(t, NewOutliner(3), input)

	want := []string{
		"# Getting Started",
		"# Getting Started > ## Installation",
		"# Getting Started > ## Configuration",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sections:\n got  %q\n want %q", got, want)
	}
}

// TestSections_NoHeaders tests a document without any headings.
func TestSections_NoHeaders(t *testing.T) {
	got := paths(t, NewOutliner(3), "Just a paragraph.\n\nAnd another.")
	if len(got) != 0 {
		t.Errorf("Expected no headings, got %q", got)
	}
}

// TestSections_MaxDepth tests that deeper headings are dropped.
func TestSections_MaxDepth(t *testing.T) {
	input := `# A

## B

### C

## D
`
	got := paths(t, NewOutliner(2), input)

	want := []string{"# A", "# A > ## B", "# A > ## D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sections:\n got  %q\n want %q", got, want)
	}
}

// TestSections_SiblingsDoNotShareAncestors guards against slice aliasing
// between sibling paths.
func TestSections_SiblingsDoNotShareAncestors(t *testing.T) {
	input := `# Root

## One

### One.1

## Two

### Two.1
`
	got := paths(t, NewOutliner(3), input)

	want := []string{
		"# Root",
		"# Root > ## One",
		"# Root > ## One > ### One.1",
		"# Root > ## Two",
		"# Root > ## Two > ### Two.1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sections:\n got  %q\n want %q", got, want)
	}
}

func TestSections_Offsets(t *testing.T) {
	input := "Preamble.\n\n# A\n\ntext\n\n## B\n\nSetext\n------\n"

	got, err := NewOutliner(3).Sections([]byte(input))
	if err != nil {
		t.Fatalf("Sections failed: %v", err)
	}

	want := []Section{
		{Path: "# A", Offset: 11},
		{Path: "# A > ## B", Offset: 22},
		{Path: "# A > ## Setext", Offset: 28},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sections:\n got  %+v\n want %+v", got, want)
	}
}

func TestFormatHeaderPath(t *testing.T) {
	if got := formatHeaderPath(nil); got != "" {
		t.Errorf("empty path: got %q", got)
	}
	if got := formatHeaderPath([]string{"Install", "Prereqs"}); got != "# Install > ## Prereqs" {
		t.Errorf("got %q", got)
	}
}

// Package markdown extracts the heading outline of markdown sources.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Outliner reads markdown documents and lists their section hierarchy.
type Outliner struct {
	parser   goldmark.Markdown
	maxDepth int
}

// NewOutliner creates an Outliner that reports headings down to maxDepth (1-6).
// Values outside that range default to 3.
func NewOutliner(maxDepth int) *Outliner {
	if maxDepth < 1 || maxDepth > 6 {
		maxDepth = 3
	}
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Outliner{
		parser:   md,
		maxDepth: maxDepth,
	}
}

// Section is one heading of a document.
type Section struct {
	// Path is the header hierarchy, e.g. "# Install > ## Prerequisites".
	Path string
	// Offset is the byte offset of the heading's first line in the source.
	Offset int
}

// Sections returns one Section per heading, in document order.
// A document without headings yields nil.
func (o *Outliner) Sections(source []byte) ([]Section, error) {
	doc := o.parser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(o.maxDepth),
		toc.Compact(true), // Remove empty items
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var paths []string
	walk(tree.Items, nil, &paths)
	if len(paths) == 0 {
		return nil, nil
	}

	offsets := o.headingOffsets(doc, source)
	if len(offsets) != len(paths) {
		return nil, fmt.Errorf("outline has %d headings, document has %d", len(paths), len(offsets))
	}

	sections := make([]Section, len(paths))
	for i := range paths {
		sections[i] = Section{Path: paths[i], Offset: offsets[i]}
	}
	return sections, nil
}

// headingOffsets lists the line offsets of the headings the TOC reports.
func (o *Outliner) headingOffsets(doc ast.Node, source []byte) []int {
	var offsets []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level <= o.maxDepth && h.HasChildren() && h.Lines().Len() > 0 {
			start := h.Lines().At(0).Start
			offsets = append(offsets, bytes.LastIndexByte(source[:start], '\n')+1)
		}
		return ast.WalkSkipChildren, nil
	})
	return offsets
}

func walk(items toc.Items, ancestors []string, out *[]string) {
	for _, item := range items {
		path := append(ancestors[:len(ancestors):len(ancestors)], string(item.Title))
		if len(item.Title) > 0 {
			*out = append(*out, formatHeaderPath(path))
		}
		if len(item.Items) > 0 {
			walk(item.Items, path, out)
		}
	}
}

// formatHeaderPath builds a header hierarchy string.
// Example: ["Installation", "Prerequisites"] -> "# Installation > ## Prerequisites"
func formatHeaderPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	parts := make([]string, 0, len(path))
	for i, segment := range path {
		prefix := strings.Repeat("#", i+1)
		parts = append(parts, fmt.Sprintf("%s %s", prefix, segment))
	}

	return strings.Join(parts, " > ")
}

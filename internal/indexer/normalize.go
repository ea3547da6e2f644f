package indexer

import (
	"regexp"
	"strings"
)

var (
	blockComment = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	lineComment  = regexp.MustCompile(`(?m)//.*$`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Normalize prepares file content for embedding: it strips /* */ block comments
// and // line comments, collapses whitespace runs to one space, trims, and
// prefixes a "File: <path>" header line followed by a blank line.
//
// The comment patterns are syntactic, not language aware: "//" inside a string
// literal or URL is removed as well.
func Normalize(filePath, content string) string {
	return "File: " + filePath + "\n\n" + normalizeBody(content)
}

func normalizeBody(content string) string {
	body := blockComment.ReplaceAllString(content, "")
	body = lineComment.ReplaceAllString(body, "")
	body = whitespace.ReplaceAllString(body, " ")
	return strings.TrimSpace(body)
}

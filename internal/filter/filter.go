// Package filter decides which repository files are worth indexing.
package filter

import (
	"strings"

	"github.com/bull/repo-ingest/internal/repo"
)

// DefaultMaxFileSize is the largest file the crawler will queue for fetching.
const DefaultMaxFileSize int64 = 1024 * 1024

// BinaryExtensions are never indexed, whatever else matches.
var BinaryExtensions = []string{
	// images
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
	// documents and archives
	".pdf", ".zip", ".tar", ".gz", ".7z", ".rar", ".jar",
	// executables, libraries, object files
	".exe", ".dll", ".so", ".dylib", ".bin", ".dat", ".o", ".a", ".class",
	// fonts and media
	".woff", ".woff2", ".ttf", ".mp3", ".mp4",
}

// SourceExtensions are the allow-listed source, markup, data and script extensions.
var SourceExtensions = []string{
	".js", ".ts", ".jsx", ".tsx", ".py", ".java", ".cpp", ".c", ".cs", ".php",
	".rb", ".go", ".rs", ".swift", ".kt", ".scala",
	".html", ".css", ".scss", ".sass", ".less", ".vue", ".svelte",
	".json", ".xml", ".yaml", ".yml", ".md", ".txt", ".sql", ".sh", ".bash",
}

// ExcludedPathParts are dependency, VCS and build output directory names.
// A path containing any of them is skipped.
var ExcludedPathParts = []string{
	"node_modules", ".git", "dist", "build", ".next", "coverage",
}

// Filter is a pure inclusion policy over file metadata.
type Filter struct {
	binary      map[string]struct{}
	source      map[string]struct{}
	pathParts   []string
	maxFileSize int64
}

// New returns a Filter with the default extension and path lists.
// A non-positive maxFileSize falls back to DefaultMaxFileSize.
func New(maxFileSize int64) *Filter {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Filter{
		binary:      toSet(BinaryExtensions),
		source:      toSet(SourceExtensions),
		pathParts:   ExcludedPathParts,
		maxFileSize: maxFileSize,
	}
}

// Accept reports whether a file entry should be fetched and chunked.
// Exclusions (binary extension, size, excluded path) are checked before the allow-list,
// so an oversized markdown file is still rejected.
func (f *Filter) Accept(file repo.FileEntry) bool {
	return f.Reason(file) == ""
}

// Reason returns why a file is rejected, or "" when it is accepted.
func (f *Filter) Reason(file repo.FileEntry) string {
	ext := file.Extension()

	if _, ok := f.binary[ext]; ok {
		return "binary"
	}
	if file.Size != nil && *file.Size > f.maxFileSize {
		return "too_large"
	}
	for _, part := range f.pathParts {
		if strings.Contains(file.Path, part) {
			return "excluded_path"
		}
	}
	if _, ok := f.source[ext]; ok {
		return ""
	}
	if file.Name == "README.md" {
		return ""
	}
	return "unsupported_type"
}

// SkipDir reports whether a directory can be pruned from the crawl because
// every file below it would be rejected as an excluded path.
func (f *Filter) SkipDir(dirPath string) bool {
	for _, part := range f.pathParts {
		if strings.Contains(dirPath, part) {
			return true
		}
	}
	return false
}

// MaxFileSize returns the size limit in bytes.
func (f *Filter) MaxFileSize() int64 {
	return f.maxFileSize
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

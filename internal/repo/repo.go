// Package repo holds the domain types shared by the crawl, chunking and storage layers.
package repo

import (
	"fmt"
	"path"
	"strings"
)

// Entry types reported by the GitHub contents API.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// Coordinate identifies a repository on the hosting service.
type Coordinate struct {
	Owner string
	Name  string
}

// ParseCoordinate parses "owner/name".
func ParseCoordinate(s string) (Coordinate, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Coordinate{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return Coordinate{Owner: owner, Name: name}, nil
}

// String returns "owner/name".
func (c Coordinate) String() string {
	return c.Owner + "/" + c.Name
}

// CollectionName derives the vector collection name for the repository:
// lower-cased "owner_name" with every character outside [a-z0-9_] mapped to '_'.
func (c Coordinate) CollectionName() string {
	raw := strings.ToLower(c.Owner + "_" + c.Name)
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// FileEntry is one node of the repository tree as returned by a directory listing.
type FileEntry struct {
	Path        string
	Name        string
	Type        string // TypeFile or TypeDir
	Size        *int64 // nil when the listing did not report a size
	DownloadURL string
}

// IsDir reports whether the entry is a directory.
func (f FileEntry) IsDir() bool { return f.Type == TypeDir }

// Extension returns the lower-cased extension including the leading dot,
// or "" when the name has no dot.
func (f FileEntry) Extension() string {
	return Extension(f.Name)
}

// Extension returns the lower-cased extension of name including the leading dot.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// FileType returns the extension without the dot, as stored in chunk payloads.
func FileType(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name
	}
	return name[i+1:]
}

// CodeChunk is a bounded piece of one normalized file.
type CodeChunk struct {
	Content    string
	FilePath   string
	FileName   string
	FileType   string
	ChunkIndex int // 0-based, contiguous per file
	Repository string
	Owner      string
	Headings   []string // markdown sections the chunk overlaps, empty for code
}

// BaseName returns the final element of a slash-separated path.
func BaseName(p string) string {
	return path.Base(p)
}

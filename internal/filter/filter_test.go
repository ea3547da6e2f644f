package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bull/repo-ingest/internal/repo"
)

func size(n int64) *int64 { return &n }

func file(p string, sz *int64) repo.FileEntry {
	return repo.FileEntry{Path: p, Name: repo.BaseName(p), Type: repo.TypeFile, Size: sz}
}

func TestAccept(t *testing.T) {
	f := New(0)

	tests := []struct {
		name  string
		entry repo.FileEntry
		want  bool
	}{
		{"go source", file("cmd/main.go", size(120)), true},
		{"upper-case extension", file("src/App.TSX", size(10)), true},
		{"no size reported", file("lib/util.py", nil), true},
		{"readme", file("README.md", size(10)), true},
		{"png", file("assets/logo.png", size(10)), false},
		{"gzip beats allow-list", file("data/dump.json.gz", size(10)), false},
		{"exactly at limit", file("big.txt", size(DefaultMaxFileSize)), true},
		{"over limit", file("big.txt", size(DefaultMaxFileSize+1)), false},
		{"huge markdown", file("docs/guide.md", size(5*1024*1024)), false},
		{"node_modules", file("node_modules/left-pad/index.js", size(10)), false},
		{"git dir", file(".github/workflows/ci.yml", size(10)), false},
		{"build output", file("build/gen.go", size(10)), false},
		{"dist substring", file("src/distance.go", size(10)), false},
		{"coverage", file("coverage/lcov.txt", size(10)), false},
		{"unknown extension", file("Makefile", size(10)), false},
		{"lockfile", file("Cargo.lock", size(10)), false},
		{"lower-case readme not special", file("docs/readme.rst", size(10)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Accept(tt.entry))
		})
	}
}

func TestReason_ExclusionOrder(t *testing.T) {
	f := New(0)

	// Binary wins over size and path.
	assert.Equal(t, "binary", f.Reason(file("node_modules/x.exe", size(10*DefaultMaxFileSize))))
	// Size wins over path.
	assert.Equal(t, "too_large", f.Reason(file("dist/app.js", size(10*DefaultMaxFileSize))))
	assert.Equal(t, "excluded_path", f.Reason(file("dist/app.js", size(1))))
	assert.Equal(t, "unsupported_type", f.Reason(file("LICENSE", size(1))))
	assert.Equal(t, "", f.Reason(file("main.go", size(1))))
}

func TestAccept_Pure(t *testing.T) {
	f := New(0)
	entry := file("pkg/server.go", size(42))
	first := f.Accept(entry)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, f.Accept(entry))
	}
	assert.Equal(t, int64(42), *entry.Size)
}

func TestNew_CustomLimit(t *testing.T) {
	f := New(100)
	assert.Equal(t, int64(100), f.MaxFileSize())
	assert.True(t, f.Accept(file("a.go", size(100))))
	assert.False(t, f.Accept(file("a.go", size(101))))
}

func TestSkipDir(t *testing.T) {
	f := New(0)
	assert.True(t, f.SkipDir("node_modules"))
	assert.True(t, f.SkipDir("web/dist"))
	assert.True(t, f.SkipDir(".git"))
	assert.False(t, f.SkipDir("src/internal"))
	assert.False(t, f.SkipDir(""))
}

package indexer

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/bull/repo-ingest/internal/chunking"
	"github.com/bull/repo-ingest/internal/markdown"
	"github.com/bull/repo-ingest/internal/repo"
)

// DefaultMaxContentChars is the largest fetched file, in characters, that is chunked.
const DefaultMaxContentChars = 1_000_000

// Reasons a file contributed no chunks.
const (
	SkipEmpty       = "empty"
	SkipTooLarge    = "content_too_large"
	SkipFetchFailed = "fetch_failed"
)

// ContentFetcher returns the text of one repository file.
type ContentFetcher interface {
	FetchContent(ctx context.Context, coord repo.Coordinate, entry repo.FileEntry, credential string) (string, error)
}

// FileResult is the outcome of building chunks for one file.
type FileResult struct {
	Path   string
	Chunks int
	Skip   string // empty when the file produced chunks
	Err    error  // set when Skip is SkipFetchFailed
}

// BuildResult holds every chunk produced for a run plus per-file outcomes.
type BuildResult struct {
	Chunks []repo.CodeChunk
	Files  []FileResult
}

// Skipped counts files that produced no chunks, by reason.
func (r *BuildResult) Skipped() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Files {
		if f.Skip != "" {
			out[f.Skip]++
		}
	}
	return out
}

// ChunkedFiles counts files that produced at least one chunk.
func (r *BuildResult) ChunkedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Skip == "" {
			n++
		}
	}
	return n
}

// Builder fetches, normalizes and splits files into code chunks.
type Builder struct {
	fetcher  ContentFetcher
	splitter *chunking.Splitter
	outliner *markdown.Outliner
	maxChars int
	logger   *slog.Logger
}

// NewBuilder creates a Builder. A nil outliner disables markdown headings;
// a non-positive maxChars uses DefaultMaxContentChars.
func NewBuilder(fetcher ContentFetcher, splitter *chunking.Splitter, outliner *markdown.Outliner, maxChars int, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	return &Builder{
		fetcher:  fetcher,
		splitter: splitter,
		outliner: outliner,
		maxChars: maxChars,
		logger:   logger,
	}
}

// BuildChunks processes files sequentially. A file that cannot be fetched, is
// empty or is too large is recorded in the result and skipped; it never aborts
// the build. The only error returned is the context's.
func (b *Builder) BuildChunks(ctx context.Context, coord repo.Coordinate, credential string, files []repo.FileEntry) (*BuildResult, error) {
	result := &BuildResult{Files: make([]FileResult, 0, len(files))}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		chunks, fr := b.buildFile(ctx, coord, credential, file)
		result.Files = append(result.Files, fr)
		result.Chunks = append(result.Chunks, chunks...)
	}

	return result, nil
}

func (b *Builder) buildFile(ctx context.Context, coord repo.Coordinate, credential string, file repo.FileEntry) ([]repo.CodeChunk, FileResult) {
	fr := FileResult{Path: file.Path}

	content, err := b.fetcher.FetchContent(ctx, coord, file, credential)
	if err != nil {
		b.logger.Warn("failed to fetch file", "path", file.Path, "error", err)
		fr.Skip, fr.Err = SkipFetchFailed, err
		return nil, fr
	}
	if content == "" {
		b.logger.Debug("skipping empty file", "path", file.Path)
		fr.Skip = SkipEmpty
		return nil, fr
	}
	if n := utf8.RuneCountInString(content); n > b.maxChars {
		b.logger.Info("skipping large file", "path", file.Path, "chars", n)
		fr.Skip = SkipTooLarge
		return nil, fr
	}

	var sections []markdown.Section
	if b.outliner != nil && file.Extension() == ".md" {
		// outline comes from the raw source; normalization flattens the structure
		sections, err = b.outliner.Sections([]byte(content))
		if err != nil {
			b.logger.Debug("markdown outline failed", "path", file.Path, "error", err)
		}
	}

	pieces := b.splitter.Chunks(Normalize(file.Path, content))
	marks := sectionOffsets(file.Path, content, sections)
	chunks := make([]repo.CodeChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = repo.CodeChunk{
			Content:    piece.Text,
			FilePath:   file.Path,
			FileName:   file.Name,
			FileType:   repo.FileType(file.Name),
			ChunkIndex: i,
			Repository: coord.Name,
			Owner:      coord.Owner,
			Headings:   headingsFor(sections, marks, piece.Start, piece.End),
		}
	}

	fr.Chunks = len(chunks)
	b.logger.Debug("chunked file", "path", file.Path, "chunks", len(chunks))
	return chunks, fr
}

// sectionOffsets maps each section's raw offset to its offset in
// Normalize(path, content). Segments between headings are normalized on their
// own, which matches the whole-file result unless a block comment spans a heading.
func sectionOffsets(path, content string, sections []markdown.Section) []int {
	if len(sections) == 0 {
		return nil
	}
	marks := make([]int, len(sections))
	pos := len(Normalize(path, ""))
	prev := 0
	for i, s := range sections {
		if seg := normalizeBody(content[prev:s.Offset]); seg != "" {
			pos += len(seg) + 1
		}
		marks[i] = pos
		prev = s.Offset
	}
	return marks
}

// headingsFor returns the paths of the sections overlapping [start, end).
// Text before the first heading belongs to no section.
func headingsFor(sections []markdown.Section, marks []int, start, end int) []string {
	var out []string
	for i, s := range sections {
		if marks[i] >= end {
			break
		}
		if i+1 < len(marks) && marks[i+1] <= start {
			continue
		}
		out = append(out, s.Path)
	}
	return out
}

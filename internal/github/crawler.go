package github

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/bull/repo-ingest/internal/filter"
	"github.com/bull/repo-ingest/internal/repo"
)

// FailedDir records a directory whose listing could not be read.
type FailedDir struct {
	Path string
	Err  error
}

// CrawlReport is the result of walking one repository.
type CrawlReport struct {
	Files       []repo.FileEntry // accepted files in traversal order
	Directories int              // directories listed successfully
	FailedDirs  []FailedDir
	Skipped     map[string]int // rejected files and pruned directories by reason
}

// SkippedTotal returns the number of rejected entries.
func (r *CrawlReport) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Crawler discovers and fetches repository files through the contents API.
type Crawler struct {
	client *Client
	filter *filter.Filter
	logger *slog.Logger
}

// NewCrawler creates a Crawler. If logger is nil, slog.Default() is used.
func NewCrawler(client *Client, f *filter.Filter, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		client: client,
		filter: f,
		logger: logger,
	}
}

// Crawl walks the repository tree depth-first from the root with an explicit
// stack of pending directories. A directory that cannot be listed is recorded
// in the report and contributes no files; the walk continues with the rest.
// The only error returned is the context's.
func (c *Crawler) Crawl(ctx context.Context, coord repo.Coordinate, credential string) (*CrawlReport, error) {
	gh := c.client.ForCredential(credential)
	report := &CrawlReport{Skipped: make(map[string]int)}

	stack := []string{""}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := c.listDir(ctx, gh, coord, dir)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			c.logger.Warn("failed to list directory",
				"repository", coord.String(),
				"path", dir,
				"error", err)
			report.FailedDirs = append(report.FailedDirs, FailedDir{Path: dir, Err: err})
			continue
		}
		report.Directories++

		var subdirs []string
		for _, entry := range entries {
			switch entry.Type {
			case repo.TypeDir:
				if c.filter.SkipDir(entry.Path) {
					report.Skipped["excluded_dir"]++
					continue
				}
				subdirs = append(subdirs, entry.Path)
			case repo.TypeFile:
				if reason := c.filter.Reason(entry); reason != "" {
					report.Skipped[reason]++
					continue
				}
				report.Files = append(report.Files, entry)
			}
		}

		// push in reverse so the first subdirectory is visited next
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	c.logger.Info("crawl complete",
		"repository", coord.String(),
		"files", len(report.Files),
		"directories", report.Directories,
		"failed_directories", len(report.FailedDirs),
		"skipped", report.SkippedTotal())

	return report, nil
}

// listDir lists one directory of the repository.
func (c *Crawler) listDir(ctx context.Context, gh *github.Client, coord repo.Coordinate, dir string) ([]repo.FileEntry, error) {
	file, dirContents, _, err := gh.Repositories.GetContents(ctx, coord.Owner, coord.Name, dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %q: %w", dir, err)
	}
	if file != nil {
		return nil, fmt.Errorf("%q is a file, not a directory", dir)
	}

	entries := make([]repo.FileEntry, 0, len(dirContents))
	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		entries = append(entries, toFileEntry(item))
	}
	return entries, nil
}

func toFileEntry(item *github.RepositoryContent) repo.FileEntry {
	entry := repo.FileEntry{
		Path:        item.GetPath(),
		Name:        item.GetName(),
		Type:        item.GetType(),
		DownloadURL: item.GetDownloadURL(),
	}
	if item.Size != nil {
		size := int64(*item.Size)
		entry.Size = &size
	}
	return entry
}

// jsonLayout expands every array and object, one element per line.
// Width 0 disables pretty's single-line arrays.
var jsonLayout = &pretty.Options{Width: 0, Indent: "  "}

// FetchContent returns the text of one file. It follows the entry's download URL
// when present and falls back to the inline content of the contents API.
// JSON documents are re-indented with two spaces and invalid UTF-8 is replaced.
func (c *Crawler) FetchContent(ctx context.Context, coord repo.Coordinate, entry repo.FileEntry, credential string) (string, error) {
	gh := c.client.ForCredential(credential)

	var (
		raw []byte
		err error
	)
	if entry.DownloadURL != "" {
		raw, err = download(ctx, gh, entry.DownloadURL)
	} else {
		raw, err = inlineContent(ctx, gh, coord, entry.Path)
	}
	if err != nil {
		return "", err
	}

	if entry.Extension() == ".json" && gjson.ValidBytes(raw) {
		raw = bytes.TrimRight(pretty.PrettyOptions(raw, jsonLayout), "\n")
	}

	return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
}

func download(ctx context.Context, gh *github.Client, rawURL string) ([]byte, error) {
	req, err := gh.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	var buf bytes.Buffer
	if _, err := gh.Do(ctx, req, &buf); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	return buf.Bytes(), nil
}

func inlineContent(ctx context.Context, gh *github.Client, coord repo.Coordinate, filePath string) ([]byte, error) {
	file, _, _, err := gh.Repositories.GetContents(ctx, coord.Owner, coord.Name, filePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", filePath, err)
	}
	if file == nil {
		return nil, fmt.Errorf("no file content returned for %s", filePath)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", filePath, err)
	}
	return []byte(content), nil
}

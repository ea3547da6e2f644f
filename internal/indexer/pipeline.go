// Package indexer turns a repository into a populated vector collection.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bull/repo-ingest/internal/github"
	"github.com/bull/repo-ingest/internal/repo"
	"github.com/bull/repo-ingest/internal/storage"
)

// DefaultBatchSize is the number of chunks embedded and upserted together.
const DefaultBatchSize = 5

// Run results recorded in RunsTotal.
const (
	resultSuccess     = "success"
	resultNoFiles     = "no_files"
	resultNoChunks    = "no_chunks"
	resultStoreFailed = "store_failed"
	resultBusy        = "busy"
	resultError       = "error"
)

// Outcome is the single result of an ingestion run.
type Outcome struct {
	Success         bool   `json:"success"`
	ChunksProcessed int    `json:"chunksProcessed"`
	Message         string `json:"message"`
}

// Crawler discovers the eligible files of a repository.
type Crawler interface {
	Crawl(ctx context.Context, coord repo.Coordinate, credential string) (*github.CrawlReport, error)
}

// Embedder produces one vector per text. Implementations are shared between runs.
type Embedder interface {
	Ready(ctx context.Context) error
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Config tunes the storing phase.
type Config struct {
	BatchSize int
	Metric    storage.Metric
}

// Pipeline orchestrates one ingestion run: crawl, chunk, then embed and store batch by batch.
type Pipeline struct {
	crawler  Crawler
	builder  *Builder
	embedder Embedder
	store    storage.Store
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
}

// NewPipeline creates a new ingestion pipeline with the given components.
func NewPipeline(
	crawler Crawler,
	builder *Builder,
	embedder Embedder,
	store storage.Store,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Metric == "" {
		cfg.Metric = storage.DefaultMetric
	}
	return &Pipeline{
		crawler:  crawler,
		builder:  builder,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		running:  make(map[string]struct{}),
	}
}

// Ingest runs the full pipeline for one repository and always returns an Outcome.
// A second run for a repository that is already being ingested is rejected.
func (p *Pipeline) Ingest(ctx context.Context, coord repo.Coordinate, credential string) Outcome {
	start := time.Now()

	if !p.acquire(coord) {
		RunsTotal.WithLabelValues(resultBusy).Inc()
		p.logger.Warn("ingestion rejected, run in progress", "repository", coord.String())
		return Outcome{Message: fmt.Sprintf("%s for %s", ErrRunInProgress, coord)}
	}
	defer p.release(coord)

	p.logger.Info("starting ingestion", "repository", coord.String(), "collection", coord.CollectionName())

	outcome, result := p.run(ctx, coord, credential)

	RunsTotal.WithLabelValues(result).Inc()
	RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("ingestion finished",
		"repository", coord.String(),
		"success", outcome.Success,
		"chunks", outcome.ChunksProcessed,
		"message", outcome.Message,
		"duration", time.Since(start))

	return outcome
}

// CollectionStatus reports whether the repository's collection exists and its size.
func (p *Pipeline) CollectionStatus(ctx context.Context, coord repo.Coordinate) (*storage.CollectionInfo, error) {
	info, err := p.store.CollectionInfo(ctx, coord.CollectionName())
	if err != nil {
		return nil, fmt.Errorf("collection status for %s: %w", coord, err)
	}
	return info, nil
}

func (p *Pipeline) acquire(coord repo.Coordinate) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := coord.CollectionName()
	if _, busy := p.running[key]; busy {
		return false
	}
	p.running[key] = struct{}{}
	return true
}

func (p *Pipeline) release(coord repo.Coordinate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, coord.CollectionName())
}

func (p *Pipeline) run(ctx context.Context, coord repo.Coordinate, credential string) (Outcome, string) {
	// 1. Crawl
	report, err := p.crawler.Crawl(ctx, coord, credential)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("crawl failed: %v", err)}, resultError
	}
	for reason, n := range report.Skipped {
		FilesSkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
	if len(report.Files) == 0 {
		return Outcome{Message: "no files found to process"}, resultNoFiles
	}

	// 2. Chunk
	built, err := p.builder.BuildChunks(ctx, coord, credential, report.Files)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("chunking failed: %v", err)}, resultError
	}
	skipped := built.Skipped()
	for reason, n := range skipped {
		FilesSkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
	if len(built.Chunks) == 0 {
		return Outcome{Message: "no code chunks generated"}, resultNoChunks
	}
	p.logger.Info("chunks generated",
		"repository", coord.String(),
		"files", len(report.Files),
		"chunks", len(built.Chunks))

	// 3. Embed and store
	stats, err := p.persist(ctx, coord, built.Chunks)
	if err != nil {
		return Outcome{Message: fmt.Sprintf("storing failed: %v", err)}, resultStoreFailed
	}
	ChunksTotal.Add(float64(stats.stored))

	skippedFiles := report.SkippedTotal()
	for _, n := range skipped {
		skippedFiles += n
	}

	return Outcome{
		Success:         true,
		ChunksProcessed: len(built.Chunks),
		Message:         successMessage(len(built.Chunks), len(report.Files), skippedFiles, len(report.FailedDirs), stats),
	}, resultSuccess
}

type storeStats struct {
	batches       int
	failedBatches int
	stored        int
}

// persist writes chunks into a freshly reset collection. Any failure deletes
// the collection again: after a failed run the collection is absent.
func (p *Pipeline) persist(ctx context.Context, coord repo.Coordinate, chunks []repo.CodeChunk) (storeStats, error) {
	name := coord.CollectionName()
	var stats storeStats

	err := p.storeBatches(ctx, coord, name, chunks, &stats)
	if err != nil {
		// the run context may already be canceled; cleanup still has to reach the store
		if derr := p.store.DeleteCollection(context.WithoutCancel(ctx), name); derr != nil {
			p.logger.Error("failed to delete collection after storing failure",
				"collection", name,
				"error", derr)
		} else {
			p.logger.Info("deleted collection after storing failure", "collection", name)
		}
	}
	return stats, err
}

func (p *Pipeline) storeBatches(ctx context.Context, coord repo.Coordinate, name string, chunks []repo.CodeChunk, stats *storeStats) error {
	if err := p.store.Health(ctx); err != nil {
		return fmt.Errorf("vector store unavailable: %w", err)
	}
	if err := p.embedder.Ready(ctx); err != nil {
		return fmt.Errorf("embedding model unavailable: %w", err)
	}
	if err := p.store.ResetCollection(ctx, name, p.embedder.Dimension(), p.cfg.Metric); err != nil {
		return fmt.Errorf("reset collection %s: %w", name, err)
	}

	ingestedAt := p.now().UTC()
	epoch := ingestedAt.UnixNano()

	for start := 0; start < len(chunks); start += p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+p.cfg.BatchSize, len(chunks))
		batch := chunks[start:end]
		stats.batches++

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			stats.failedBatches++
			BatchesTotal.WithLabelValues("embed_error").Inc()
			p.logger.Warn("failed to embed batch",
				"collection", name,
				"batch", stats.batches,
				"error", err)
			continue
		}

		records := make([]storage.VectorRecord, len(batch))
		for i, c := range batch {
			records[i] = storage.VectorRecord{
				ID:         storage.PointID(coord, c.FilePath, c.ChunkIndex, epoch),
				Vector:     vectors[i],
				Chunk:      c,
				IngestedAt: ingestedAt,
			}
		}

		if err := p.store.UpsertBatch(ctx, name, records); err != nil {
			stats.failedBatches++
			BatchesTotal.WithLabelValues("upsert_error").Inc()
			p.logger.Warn("failed to store batch",
				"collection", name,
				"batch", stats.batches,
				"error", err)
			continue
		}

		stats.stored += len(records)
		BatchesTotal.WithLabelValues("success").Inc()
		p.logger.Debug("stored batch", "collection", name, "batch", stats.batches, "records", len(records))
	}

	if stats.stored == 0 {
		return fmt.Errorf("%w (%d attempted)", ErrNoSuccessfulBatches, stats.batches)
	}
	return nil
}

func successMessage(chunks, files, skipped, failedDirs int, stats storeStats) string {
	msg := fmt.Sprintf("processed %d code chunks from %d files", chunks, files)

	var notes []string
	if skipped > 0 {
		notes = append(notes, fmt.Sprintf("%d skipped", skipped))
	}
	if failedDirs > 0 {
		notes = append(notes, fmt.Sprintf("%d directories unreadable", failedDirs))
	}
	if stats.failedBatches > 0 {
		notes = append(notes, fmt.Sprintf("%d of %d batches failed, %d chunks stored",
			stats.failedBatches, stats.batches, stats.stored))
	}
	if len(notes) > 0 {
		msg += " (" + strings.Join(notes, "; ") + ")"
	}
	return msg
}

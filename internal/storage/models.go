package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bull/repo-ingest/internal/repo"
)

// Metric is the similarity function a collection is configured with.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
	MetricEuclid Metric = "euclid"
)

// DefaultMetric is used for every repository collection.
const DefaultMetric = MetricCosine

// VectorDimension is the embedding size of all-MiniLM-L6-v2.
const VectorDimension = 384

// Payload keys written with every record.
const (
	FieldContent     = "content"
	FieldFilePath    = "filePath"
	FieldFileName    = "fileName"
	FieldFileType    = "fileType"
	FieldChunkIndex  = "chunkIndex"
	FieldRepository  = "repository"
	FieldOwner       = "owner"
	FieldHeadings    = "headings"
	FieldProcessedAt = "processedAt"
)

// VectorRecord is the unit persisted to a collection: one embedded chunk.
type VectorRecord struct {
	ID         string // UUID, see PointID
	Vector     []float32
	Chunk      repo.CodeChunk
	IngestedAt time.Time
}

// Payload returns the record metadata as stored alongside the vector.
func (r VectorRecord) Payload() map[string]any {
	payload := map[string]any{
		FieldContent:     r.Chunk.Content,
		FieldFilePath:    r.Chunk.FilePath,
		FieldFileName:    r.Chunk.FileName,
		FieldFileType:    r.Chunk.FileType,
		FieldChunkIndex:  r.Chunk.ChunkIndex,
		FieldRepository:  r.Chunk.Repository,
		FieldOwner:       r.Chunk.Owner,
		FieldProcessedAt: r.IngestedAt.UTC().Format(time.RFC3339),
	}
	if len(r.Chunk.Headings) > 0 {
		headings := make([]any, len(r.Chunk.Headings))
		for i, h := range r.Chunk.Headings {
			headings[i] = h
		}
		payload[FieldHeadings] = headings
	}
	return payload
}

// CollectionInfo contains collection statistics.
type CollectionInfo struct {
	Name        string
	Exists      bool
	PointsCount uint64
}

// Store is the vector store writer used by the ingestion pipeline.
// Implementations must be safe for concurrent use by independent runs.
type Store interface {
	// Health reports whether the backing service is reachable.
	Health(ctx context.Context) error
	// ResetCollection deletes the collection if present and creates it empty.
	ResetCollection(ctx context.Context, name string, dimension int, metric Metric) error
	// UpsertBatch writes records in a single call and returns once they are applied.
	UpsertBatch(ctx context.Context, name string, records []VectorRecord) error
	// DeleteCollection removes the collection. A missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error
	// CollectionInfo reports existence and point count.
	CollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)
	Close() error
}

// validateRecords checks that every record carries a vector of the expected size.
// A non-positive dimension only requires the vectors to agree with each other.
func validateRecords(records []VectorRecord, dimension int) error {
	for i, r := range records {
		if dimension <= 0 {
			dimension = len(r.Vector)
		}
		if len(r.Vector) == 0 || len(r.Vector) != dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(r.Vector), dimension)
		}
	}
	return nil
}

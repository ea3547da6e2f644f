package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
)

// errNoEmbedder is returned if chromem is ever asked to embed text itself.
// Records always arrive with precomputed vectors.
var errNoEmbedder = errors.New("memory store only accepts precomputed embeddings")

// MemoryStore is an embedded, process-local vector store backed by chromem-go.
// It supports the cosine metric only and loses its data on exit; it is meant for
// local runs and tests.
type MemoryStore struct {
	db *chromem.DB

	mu   sync.Mutex
	dims map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		db:   chromem.NewDB(),
		dims: make(map[string]int),
	}
}

func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Health always succeeds; the store lives in this process.
func (s *MemoryStore) Health(_ context.Context) error {
	return nil
}

// ResetCollection drops and recreates the named collection.
func (s *MemoryStore) ResetCollection(_ context.Context, name string, dimension int, metric Metric) error {
	if metric != MetricCosine && metric != "" {
		return fmt.Errorf("%w: %q (memory store is cosine only)", ErrUnsupportedMetric, metric)
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: collection %s needs a positive dimension, got %d", ErrDimensionMismatch, name, dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to reset collection %s: %w", name, err)
	}
	if _, err := s.db.CreateCollection(name, nil, noEmbedding); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	s.dims[name] = dimension
	return nil
}

// UpsertBatch adds or replaces records by ID. The write is applied before it returns.
func (s *MemoryStore) UpsertBatch(ctx context.Context, name string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	collection := s.db.GetCollection(name, noEmbedding)
	dimension := s.dims[name]
	s.mu.Unlock()

	if collection == nil {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if err := validateRecords(records, dimension); err != nil {
		return err
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Chunk.Content,
			Metadata:  stringMetadata(r.Payload()),
			Embedding: r.Vector,
		}
	}

	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to upsert %d documents: %w", len(docs), err)
	}
	return nil
}

// DeleteCollection removes the collection if present.
func (s *MemoryStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.dims, name)
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// CollectionInfo reports whether the collection exists and how many records it holds.
func (s *MemoryStore) CollectionInfo(_ context.Context, name string) (*CollectionInfo, error) {
	s.mu.Lock()
	collection := s.db.GetCollection(name, noEmbedding)
	s.mu.Unlock()

	info := &CollectionInfo{Name: name}
	if collection == nil {
		return info, nil
	}
	info.Exists = true
	info.PointsCount = uint64(collection.Count())
	return info, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) String() string {
	return "memory"
}

// stringMetadata flattens a payload into chromem's string-only metadata.
// The content is stored as the document body, not duplicated here.
func stringMetadata(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			if k == FieldContent {
				continue
			}
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		case []any:
			items := make([]string, len(val))
			for i, item := range val {
				items[i] = fmt.Sprint(item)
			}
			out[k] = strings.Join(items, "\n")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
